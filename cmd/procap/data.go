package main

import (
	"bufio"
	"fmt"
	"math"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/procap/internal/dataset"
	"github.com/verte-zerg/procap/internal/generator"
	"github.com/verte-zerg/procap/internal/model"
	"github.com/verte-zerg/procap/internal/stats"
	"github.com/verte-zerg/procap/internal/viewport"
)

const (
	defaultSampleSize     = 100
	defaultSampleDecimals = 4
)

var (
	dataBins int
	dataJSON bool
	dataPlot bool

	sampleSize     int
	sampleSeed     int64
	sampleDrift    float64
	sampleDecimals int
)

func newDataCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data <file>",
		Short: "Describe a sample and compute capability from it",
		Long: "Reads one value per line (comma, semicolon or whitespace separated values are also accepted).\n" +
			"Capability metrics are computed when both --lsl and --usl are given, on the command line or in the config.",
		Args: cobra.ExactArgs(1),
		RunE: runDataCmd,
	}
	cmd.Flags().IntVar(&dataBins, "bins", stats.DefaultBins, "histogram bins")
	cmd.Flags().BoolVar(&dataJSON, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&dataPlot, "plot", false, "draw the histogram with the fitted Normal curve")
	return cmd
}

func runDataCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	cfg, err := resolveConfig(cmd, fileCfg)
	if err != nil {
		return err
	}
	values, err := dataset.LoadValues(args[0])
	if err != nil {
		return fmt.Errorf("failed to load sample: %w", err)
	}
	log.WithFields(logrus.Fields{"file": args[0], "n": len(values)}).Debug("sample loaded")

	withLimits := limitsGiven(cmd, fileCfg)
	var report stats.Report
	if withLimits {
		r, ok := stats.BuildDataReport(values, cfg.LSL, cfg.USL, cfg.Target, cfg.Bins)
		if !ok {
			return fmt.Errorf("sample is empty")
		}
		report = r
	} else {
		ds, ok := stats.CalculateDescriptiveStats(values)
		if !ok {
			return fmt.Errorf("sample is empty")
		}
		hist := stats.GenerateHistogram(values, cfg.Bins)
		report = stats.Report{Mean: ds.Mean, Std: ds.Std, SampleStd: ds.SampleStd, Data: &ds, Histogram: &hist}
	}

	out := cmd.OutOrStdout()
	if dataJSON {
		if !withLimits {
			report.Viewport = viewport.Hybrid(report.Mean, report.Std, math.NaN(), math.NaN())
		}
		return writeJSON(out, report)
	}
	if withLimits {
		err = stats.RenderReport(out, report)
	} else {
		err = stats.RenderDescriptive(out, *report.Data, *report.Histogram)
	}
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if !dataPlot {
		return nil
	}
	if report.Std <= 0 {
		log.Warn("sample has no spread; skipping plot")
		return nil
	}
	bounds := dataBounds(report, withLimits)
	var markers []stats.Marker
	if withLimits {
		markers = specMarkers(cfg.LSL, cfg.USL, cfg.Target)
	}
	if err := stats.PlotDistributions(out, stats.PlotOptions{
		Title:     "Sample",
		Bounds:    bounds,
		Curves:    []stats.Curve{{Name: "fit", Mean: report.Mean, Std: report.Std}},
		Markers:   markers,
		Histogram: report.Histogram,
		Height:    cfg.PlotHeight,
	}); err != nil {
		return fmt.Errorf("failed to render plot: %w", err)
	}
	return nil
}

// dataBounds widens the curve viewport so the whole histogram is visible.
func dataBounds(r stats.Report, withLimits bool) model.ViewportBounds {
	lsl, usl := math.NaN(), math.NaN()
	if withLimits {
		lsl, usl = r.LSL, r.USL
	}
	b := viewport.Hybrid(r.Mean, r.Std, lsl, usl)
	if r.Histogram != nil && len(r.Histogram.Bins) > 0 {
		b.DisplayMin = math.Min(b.DisplayMin, r.Histogram.Min)
		b.DisplayMax = math.Max(b.DisplayMax, r.Histogram.Max)
	}
	return b
}

func newSampleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write a synthetic Normal sample, one value per line",
		Args:  cobra.NoArgs,
		RunE:  runSampleCmd,
	}
	cmd.Flags().IntVar(&sampleSize, "n", defaultSampleSize, "number of values")
	cmd.Flags().Int64Var(&sampleSeed, "seed", 0, "random seed (unset: time based)")
	cmd.Flags().Float64Var(&sampleDrift, "drift", 0, "linear mean shift across the sample")
	cmd.Flags().IntVar(&sampleDecimals, "decimals", defaultSampleDecimals, "decimal places (negative: no rounding)")
	return cmd
}

func runSampleCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	cfg, err := resolveConfig(cmd, fileCfg)
	if err != nil {
		return err
	}
	if sampleSize <= 0 {
		return fmt.Errorf("--n must be > 0")
	}
	if cfg.Std <= 0 {
		return fmt.Errorf("--std must be > 0")
	}
	if math.IsNaN(sampleDrift) || math.IsInf(sampleDrift, 0) {
		return fmt.Errorf("--drift must be a finite number")
	}

	gen := generator.New()
	if cmd.Flags().Changed("seed") {
		gen = generator.NewSeeded(sampleSeed)
	}
	values := gen.NormalWithDrift(sampleSize, cfg.Mean, cfg.Std, sampleDrift)
	if sampleDecimals >= 0 {
		values = generator.Round(values, sampleDecimals)
	}

	writer := bufio.NewWriter(cmd.OutOrStdout())
	for _, v := range values {
		if _, err := writer.WriteString(strconv.FormatFloat(v, 'f', -1, 64) + "\n"); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return nil
}
