package plot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/jamesainslie/syncbench/pkg/syncbench/types"
)

// TrafficOptions controls the bandwidth chart.
type TrafficOptions struct {
	Title  string
	YMax   float64
	Width  vg.Length
	Height vg.Length
}

// DefaultTrafficOptions returns the standard bandwidth chart settings.
func DefaultTrafficOptions() TrafficOptions {
	return TrafficOptions{
		Title:  "Backup Bandwidth Plot",
		YMax:   2,
		Width:  8 * vg.Inch,
		Height: 5 * vg.Inch,
	}
}

// PlotName returns the PNG name matching a traffic log file name.
func PlotName(logPath string) string {
	base := filepath.Base(logPath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".png"
}

// Traffic renders down and up bandwidth over time and saves it to path.
// The format follows the file extension.
func Traffic(points []TrafficPoint, opts TrafficOptions, path string) error {
	if len(points) == 0 {
		return errors.New("no traffic samples to plot")
	}
	def := DefaultTrafficOptions()
	if opts.Title == "" {
		opts.Title = def.Title
	}
	if opts.YMax <= 0 {
		opts.YMax = def.YMax
	}
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.Height <= 0 {
		opts.Height = def.Height
	}

	down := make(plotter.XYs, len(points))
	up := make(plotter.XYs, len(points))
	for i, pt := range points {
		down[i].X, down[i].Y = pt.End, pt.DownMBps
		up[i].X, up[i].Y = pt.End, pt.UpMBps
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "Time(s)"
	p.Y.Label.Text = "Bandwidth(MB/s)"
	p.Legend.Top = true

	if err := plotutil.AddLines(p, "Down", down, "Up", up); err != nil {
		return fmt.Errorf("adding lines: %w", err)
	}
	p.Y.Min, p.Y.Max = 0, opts.YMax

	return save(p, opts.Width, opts.Height, path)
}

// Transfers renders run time per ladder step.
func Transfers(rows []types.TransferRow, title, path string) error {
	if len(rows) == 0 {
		return errors.New("no transfer rows to plot")
	}
	if title == "" {
		title = "Transfer time"
	}

	pts := make(plotter.XYs, len(rows))
	for i, r := range rows {
		pts[i].X = float64(i + 1)
		pts[i].Y = r.RunTime.Seconds()
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Step"
	p.Y.Label.Text = "run_time(s)"

	if err := plotutil.AddLinePoints(p, "run_time", pts); err != nil {
		return fmt.Errorf("adding points: %w", err)
	}
	p.Y.Min = 0

	return save(p, 8*vg.Inch, 5*vg.Inch, path)
}

func save(p *plot.Plot, w, h vg.Length, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := p.Save(w, h, path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}
