package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/jamesainslie/syncbench/pkg/syncbench/bench"
	"github.com/jamesainslie/syncbench/pkg/syncbench/output"
	"github.com/spf13/viper"
)

// renderReport writes a suite report in the --output format.
func renderReport(report *bench.Report) error {
	formatter, err := output.Get(viper.GetString("output"))
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, output.FromReport(report)); err != nil {
		return fmt.Errorf("failed to format report: %w", err)
	}
	_, err = buf.WriteTo(os.Stdout)
	return err
}
