package generate

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jamesainslie/syncbench/pkg/syncbench/logging"
)

var logger = logging.Get("generate")

// Style selects how ladder step directories are named.
type Style string

const (
	// StyleK names steps by unit count with a "k" suffix: 1k, 2k, 4k.
	StyleK Style = "k"
	// StyleUnit names steps 4KB, 32KB, 256KB, 2MB.
	StyleUnit Style = "unit"
)

// ErrUnknownStyle is returned for an unrecognized ladder style.
var ErrUnknownStyle = errors.New("unknown ladder style")

// ParseStyle parses a ladder style name.
func ParseStyle(s string) (Style, error) {
	switch Style(s) {
	case StyleK, "":
		return StyleK, nil
	case StyleUnit:
		return StyleUnit, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStyle, s)
	}
}

// DirName returns the step directory name for a file size of units.
func (s Style) DirName(units int) string {
	if s == StyleUnit {
		if units >= 1024 {
			return strconv.Itoa(units/1024) + "MB"
		}
		return strconv.Itoa(units) + "KB"
	}
	return strconv.Itoa(units) + "k"
}

// Step is one rung of a size ladder.
type Step struct {
	Units int
	Name  string
}

// Steps returns the geometric series start, start×factor, ... of length n.
func Steps(start, factor, n int, style Style) []Step {
	steps := make([]Step, 0, max(n, 0))
	units := start
	for i := 0; i < n; i++ {
		steps = append(steps, Step{Units: units, Name: style.DirName(units)})
		units *= factor
	}
	return steps
}

// Ladder generates Count random files for every step of a size ladder,
// optionally once per category subtree.
type Ladder struct {
	Root       string
	Categories []string
	Count      int
	Start      int
	Factor     int
	Steps      int
	Style      Style

	// Seed makes generation reproducible when non-zero.
	Seed uint64

	// OnStep is called before each step directory is filled.
	OnStep func(dir string, step Step)
}

// File describes one generated file.
type File struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// Validate checks the ladder parameters.
func (l *Ladder) Validate() error {
	if l.Root == "" {
		return errors.New("ladder root cannot be empty")
	}
	if l.Count < 1 {
		return fmt.Errorf("file count must be positive, got %d", l.Count)
	}
	if l.Start < 1 {
		return fmt.Errorf("start size must be positive, got %d", l.Start)
	}
	if l.Factor < 1 {
		return fmt.Errorf("factor must be positive, got %d", l.Factor)
	}
	if l.Steps < 1 {
		return fmt.Errorf("steps must be positive, got %d", l.Steps)
	}
	return nil
}

// Generate writes the ladder and returns every file it created.
func (l *Ladder) Generate(ctx context.Context) ([]File, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}

	seed := l.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	categories := l.Categories
	if len(categories) == 0 {
		categories = []string{""}
	}

	var files []File
	for _, category := range categories {
		base := filepath.Join(l.Root, category)
		for _, step := range Steps(l.Start, l.Factor, l.Steps, l.Style) {
			dir := filepath.Join(base, step.Name)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return files, fmt.Errorf("creating %s: %w", dir, err)
			}

			if l.OnStep != nil {
				l.OnStep(dir, step)
			}
			logger.Info("generating step", "dir", dir, "files", l.Count, "units", step.Units)

			for i := 0; i < l.Count; i++ {
				if err := ctx.Err(); err != nil {
					return files, err
				}
				path := filepath.Join(dir, fmt.Sprintf("file_%d.txt", i))
				if err := RandomFile(path, step.Units, rng); err != nil {
					return files, err
				}
				files = append(files, File{Path: path, Size: UnitsSize(step.Units)})
			}
		}
	}

	return files, nil
}
