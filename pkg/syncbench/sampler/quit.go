package sampler

import (
	"bufio"
	"context"
	"io"
	"strings"
	"time"
)

// IsQuitLine reports whether an input line asks the monitor to stop.
func IsQuitLine(line string) bool {
	line = strings.TrimSpace(line)
	return line == "e" || line == "E"
}

// ReaderQuit returns a QuitFunc fed by lines read from r in a background
// goroutine. Once r is exhausted the function only waits out the timeout.
func ReaderQuit(r io.Reader) QuitFunc {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	return func(ctx context.Context, timeout time.Duration) bool {
		t := time.NewTimer(timeout)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return false
			case <-t.C:
				return false
			case line, ok := <-lines:
				if !ok {
					lines = nil
					continue
				}
				if IsQuitLine(line) {
					return true
				}
			}
		}
	}
}
