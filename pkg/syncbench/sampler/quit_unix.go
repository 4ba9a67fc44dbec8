//go:build unix

package sampler

import (
	"bufio"
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// StdinQuit polls standard input for a quit line, waiting at most the
// timeout on each call.
func StdinQuit() QuitFunc {
	fd := int32(os.Stdin.Fd())
	r := bufio.NewReader(os.Stdin)
	closed := false

	return func(ctx context.Context, timeout time.Duration) bool {
		if closed {
			_ = sleepCtx(ctx, timeout)
			return false
		}

		if r.Buffered() == 0 {
			fds := []unix.PollFd{{Fd: fd, Events: unix.POLLIN}}
			n, err := unix.Poll(fds, int(timeout.Milliseconds()))
			if err != nil {
				if !errors.Is(err, unix.EINTR) {
					logger.Debug("stdin poll failed", "error", err)
				}
				return false
			}
			if n == 0 || fds[0].Revents&(unix.POLLIN|unix.POLLHUP) == 0 {
				return false
			}
		}

		line, err := r.ReadString('\n')
		if err != nil && line == "" {
			closed = true
			return false
		}
		return IsQuitLine(line)
	}
}
