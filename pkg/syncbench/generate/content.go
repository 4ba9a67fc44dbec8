package generate

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Default content generation parameters.
const (
	DefaultUpdates        = 4
	DefaultLinesPerUpdate = 50
)

// Placement assigns a numbered file to a directory relative to the root.
type Placement struct {
	Dir    string
	Number int
}

// DefaultLayout places test1..2 at the root, test3..4 in subdir and test5 in
// subdir/subdir.
func DefaultLayout() []Placement {
	return []Placement{
		{Dir: "", Number: 1},
		{Dir: "", Number: 2},
		{Dir: "subdir", Number: 3},
		{Dir: "subdir", Number: 4},
		{Dir: filepath.Join("subdir", "subdir"), Number: 5},
	}
}

// Update identifies one completed content update.
type Update struct {
	Path   string
	Number int
	Round  int
	Lines  int
}

// Content writes numbered text files and updates each of them several times,
// calling AfterUpdate once the update is flushed to disk.
type Content struct {
	Root           string
	Layout         []Placement
	Updates        int
	LinesPerUpdate int

	// AfterUpdate runs after every flushed update. A returned error aborts
	// generation.
	AfterUpdate func(ctx context.Context, u Update) error
}

// Generate writes every file in the layout and returns the paths created.
func (c *Content) Generate(ctx context.Context) ([]string, error) {
	if c.Root == "" {
		return nil, errors.New("content root cannot be empty")
	}

	layout := c.Layout
	if len(layout) == 0 {
		layout = DefaultLayout()
	}
	updates := c.Updates
	if updates <= 0 {
		updates = DefaultUpdates
	}
	perUpdate := c.LinesPerUpdate
	if perUpdate <= 0 {
		perUpdate = DefaultLinesPerUpdate
	}

	paths := make([]string, 0, len(layout))
	for _, p := range layout {
		dir := filepath.Join(c.Root, p.Dir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return paths, fmt.Errorf("creating %s: %w", dir, err)
		}

		path := filepath.Join(dir, fmt.Sprintf("test%d", p.Number))
		logger.Info("generating content file", "path", path, "updates", updates)
		if err := c.writeFile(ctx, path, p.Number, updates, perUpdate); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}

	return paths, nil
}

func (c *Content) writeFile(ctx context.Context, path string, number, updates, perUpdate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	line := 1
	for round := 1; round <= updates; round++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprintf(w, "line %d: blank line \n", line)
		line++
		for k := 1; k < perUpdate; k++ {
			fmt.Fprintf(w, "line %d: update %d test content of file %d \n", line, round, number)
			line++
		}

		if err := w.Flush(); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}

		if c.AfterUpdate != nil {
			u := Update{Path: path, Number: number, Round: round, Lines: line - 1}
			if err := c.AfterUpdate(ctx, u); err != nil {
				return fmt.Errorf("after update %d of %s: %w", round, path, err)
			}
		}
		logger.Debug("update complete", "path", path, "round", round)
	}

	return f.Close()
}
