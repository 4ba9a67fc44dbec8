// Package du measures the apparent size of directory trees.
package du

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"
	"github.com/dustin/go-humanize"
)

// Usage is the result of measuring a tree.
type Usage struct {
	Bytes int64
	Files int64
}

// Human returns the size formatted with IEC units.
func (u Usage) Human() string {
	return Human(u.Bytes)
}

// Size sums the apparent size of every regular file under root. Symlinks are
// not followed.
func Size(ctx context.Context, root string) (Usage, error) {
	if _, err := os.Stat(root); err != nil {
		return Usage{}, fmt.Errorf("measuring %s: %w", root, err)
	}

	var bytes, files atomic.Int64

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			// Removed between readdir and stat.
			return nil
		}
		bytes.Add(info.Size())
		files.Add(1)
		return nil
	})
	if err != nil {
		return Usage{}, fmt.Errorf("measuring %s: %w", root, err)
	}

	return Usage{Bytes: bytes.Load(), Files: files.Load()}, nil
}

// Human formats a byte count the way du -sh would, with IEC units.
func Human(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}
