// Package generate creates synthetic test data for transfer benchmarks:
// fixed-size random files arranged in size ladders, numbered text files that
// are updated in place, and incremental growth of existing trees.
package generate

import (
	"bufio"
	"fmt"
	"math/rand/v2"
	"os"
)

// Each unit of a fixed-size file is LinesPerUnit lines of LineLength random
// alphanumeric characters plus a newline, 1040 bytes in total.
const (
	LineLength   = 64
	LinesPerUnit = 16
	UnitSize     = LinesPerUnit * (LineLength + 1)
)

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomFile writes units × UnitSize bytes of random alphanumeric lines to
// path, truncating any existing file.
func RandomFile(path string, units int, rng *rand.Rand) error {
	if units < 0 {
		return fmt.Errorf("negative unit count %d", units)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	w := bufio.NewWriterSize(f, 64*1024)
	line := make([]byte, LineLength+1)
	line[LineLength] = '\n'

	for i := 0; i < units*LinesPerUnit; i++ {
		for j := 0; j < LineLength; j++ {
			line[j] = alphabet[rng.IntN(len(alphabet))]
		}
		if _, err := w.Write(line); err != nil {
			_ = f.Close()
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}

	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flushing %s: %w", path, err)
	}
	return f.Close()
}

// UnitsSize returns the byte size of a file generated with units units.
func UnitsSize(units int) int64 {
	return int64(units) * UnitSize
}
