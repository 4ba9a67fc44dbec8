//go:build !unix

package sampler

import "os"

// StdinQuit reads quit lines from standard input.
func StdinQuit() QuitFunc {
	return ReaderQuit(os.Stdin)
}
