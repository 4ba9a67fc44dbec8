package generate

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"sync"

	"github.com/charlievieth/fastwalk"
)

// GrowResult records the size change of one grown file.
type GrowResult struct {
	Path   string `json:"path"`
	Before int64  `json:"before"`
	After  int64  `json:"after"`
}

// GrowTarget returns the size a file of size bytes must reach.
func GrowTarget(size int64, percent float64) int64 {
	return int64(float64(size) * (1 + percent/100))
}

// GrowFile appends filler lines tagged with index until the file has grown by
// percent. A newline always precedes the filler, so even a zero percent grow
// changes the file.
func GrowFile(path string, percent float64, index int) (GrowResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return GrowResult{}, fmt.Errorf("stat %s: %w", path, err)
	}

	res := GrowResult{Path: path, Before: info.Size()}
	target := GrowTarget(info.Size(), percent)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return res, fmt.Errorf("opening %s: %w", path, err)
	}

	size, err := appendFiller(f, info.Size(), target, index)
	if err != nil {
		_ = f.Close()
		return res, fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return res, fmt.Errorf("closing %s: %w", path, err)
	}

	res.After = size
	return res, nil
}

// appendFiller writes a newline and then filler lines to w until size
// reaches target. It returns the size including everything buffered.
func appendFiller(w io.Writer, size, target int64, index int) (int64, error) {
	bw := bufio.NewWriter(w)
	n, err := bw.WriteString("\n")
	size += int64(n)
	if err != nil {
		return size, err
	}

	filler := fmt.Sprintf("this is test content *%d* \n", index)
	for size < target {
		n, err = bw.WriteString(filler)
		size += int64(n)
		if err != nil {
			return size, err
		}
	}
	return size, bw.Flush()
}

// Grow grows every regular file under root by percent. Results are sorted
// by path.
func Grow(ctx context.Context, root string, percent float64, index int) ([]GrowResult, error) {
	if percent < 0 {
		return nil, fmt.Errorf("grow percent cannot be negative: %v", percent)
	}

	var (
		mu      sync.Mutex
		results []GrowResult
	)

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

		res, err := GrowFile(path, percent, index)
		if err != nil {
			return err
		}

		mu.Lock()
		results = append(results, res)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return results, fmt.Errorf("growing %s: %w", root, err)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	logger.Info("grew files", "root", root, "files", len(results), "percent", percent, "index", index)
	return results, nil
}
