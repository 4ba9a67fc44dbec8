//go:build !unix

package logging

import "os"

// Advisory locking is unavailable; writes from one process are still
// serialized by the writer's mutex.
func lockFile(*os.File) error { return nil }

func unlockFile(*os.File) {}
