package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jamesainslie/syncbench/pkg/syncbench/plot"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var plotCmd = &cobra.Command{
	Use:   "plot <file>",
	Short: "Plot a traffic log or a transfer CSV",
	Long: `Render a PNG from a file written by another command.

  *.csv   transfer run times per ladder step (bench, strategy)
  other   a traffic log, as Down/Up bandwidth over time

The image is written next to the input unless --out is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlot,
}

var (
	plotOut   string
	plotTitle string
)

func init() {
	plotCmd.Flags().StringVar(&plotOut, "out", "", "output image path")
	plotCmd.Flags().StringVar(&plotTitle, "title", "", "plot title")
	rootCmd.AddCommand(plotCmd)
}

func runPlot(cmd *cobra.Command, args []string) error {
	in := args[0]
	out := plotOut
	if out == "" {
		out = filepath.Join(filepath.Dir(in), plot.PlotName(in))
	}

	var err error
	if strings.EqualFold(filepath.Ext(in), ".csv") {
		err = plotTransferCSV(in, out, plotTitle)
	} else {
		err = plotTrafficLog(in, out, viper.GetFloat64("traffic.y_max"))
	}
	if err != nil {
		return err
	}

	printInfo("Plot written to %s", out)
	return nil
}

func plotTrafficLog(logPath, pngPath string, yMax float64) error {
	f, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("failed to open traffic log: %w", err)
	}
	defer f.Close()

	points, err := plot.ParseTrafficLog(f)
	if err != nil {
		return fmt.Errorf("%s: %w", logPath, err)
	}

	opts := plot.DefaultTrafficOptions()
	if yMax > 0 {
		opts.YMax = yMax
	}
	if plotTitle != "" {
		opts.Title = plotTitle
	}
	return plot.Traffic(points, opts, pngPath)
}

func plotTransferCSV(csvPath, pngPath, title string) error {
	f, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("failed to open transfer CSV: %w", err)
	}
	defer f.Close()

	rows, err := plot.ParseTransferCSV(f)
	if err != nil {
		return fmt.Errorf("%s: %w", csvPath, err)
	}

	if title == "" {
		title = strings.TrimSuffix(filepath.Base(csvPath), filepath.Ext(csvPath))
	}
	return plot.Transfers(rows, title, pngPath)
}
