package main

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/procap/internal/goalseek"
	"github.com/verte-zerg/procap/internal/model"
	"github.com/verte-zerg/procap/internal/stats"
	"github.com/verte-zerg/procap/internal/viewport"
)

// errSeekFailed is returned after a failed goal seek has been written out.
var errSeekFailed = errors.New("goal seek failed")

var (
	reportJSON bool
	reportPlot bool

	seekJSON bool

	viewportFit  float64
	viewportJSON bool
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print capability and performance metrics",
		Args:  cobra.NoArgs,
		RunE:  runReportCmd,
	}
	cmd.Flags().BoolVar(&reportJSON, "json", false, "print the report as JSON")
	cmd.Flags().BoolVar(&reportPlot, "plot", false, "draw the distribution curve")
	return cmd
}

func runReportCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	cfg, err := resolveConfig(cmd, fileCfg)
	if err != nil {
		return err
	}
	report := stats.BuildReport(params(cfg), cfg.SampleStd)
	if report.Capability == nil {
		log.WithFields(logrus.Fields{"std": cfg.Std, "lsl": cfg.LSL, "usl": cfg.USL}).
			Warn("metrics unavailable: std must be > 0 and usl must exceed lsl")
	}
	out := cmd.OutOrStdout()
	if reportJSON {
		return writeJSON(out, report)
	}
	if err := stats.RenderReport(out, report); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if !reportPlot {
		return nil
	}
	if err := stats.PlotDistributions(out, stats.PlotOptions{
		Title:   "Distribution",
		Bounds:  report.Viewport,
		Curves:  []stats.Curve{{Name: "process", Mean: cfg.Mean, Std: cfg.Std}},
		Markers: specMarkers(cfg.LSL, cfg.USL, cfg.Target),
		Height:  cfg.PlotHeight,
	}); err != nil {
		return fmt.Errorf("failed to render plot: %w", err)
	}
	return nil
}

func newGoalSeekCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "goal-seek mean|std",
		Short:     "Solve for the mean or std that reaches a target Cpk",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(goalseek.ParamMean), string(goalseek.ParamStd)},
		RunE:      runGoalSeekCmd,
	}
	cmd.Flags().Float64Var(&targetCpk, "cpk", defaultTargetCpk, "target Cpk")
	cmd.Flags().BoolVar(&seekJSON, "json", false, "print the result as JSON")
	return cmd
}

// seekOutput is the JSON shape of a goal-seek result.
type seekOutput struct {
	Status      string             `json:"status"`
	Param       goalseek.Param     `json:"param"`
	Value       *float64           `json:"value,omitempty"`
	AchievedCpk *float64           `json:"achievedCpk,omitempty"`
	Warning     string             `json:"warning,omitempty"`
	Error       string             `json:"error,omitempty"`
	Fallback    *goalseek.Fallback `json:"fallback,omitempty"`
}

func runGoalSeekCmd(cmd *cobra.Command, args []string) error {
	param := goalseek.Param(args[0])
	if param != goalseek.ParamMean && param != goalseek.ParamStd {
		return fmt.Errorf("unknown parameter %q (use mean or std)", args[0])
	}
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	cfg, err := resolveConfig(cmd, fileCfg)
	if err != nil {
		return err
	}

	var res goalseek.Result
	if param == goalseek.ParamMean {
		current := cfg.Mean
		res = goalseek.SolveForMean(cfg.TargetCpk, cfg.LSL, cfg.USL, cfg.Std, &current)
	} else {
		res = goalseek.SolveForStd(cfg.TargetCpk, cfg.Mean, cfg.LSL, cfg.USL)
	}

	out := cmd.OutOrStdout()
	if seekJSON {
		if err := writeJSON(out, toSeekOutput(res)); err != nil {
			return err
		}
	} else if err := writeSeekResult(out, res); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if _, ok := res.(goalseek.Failure); ok {
		return errSeekFailed
	}
	if partial, ok := res.(goalseek.Partial); ok {
		log.Warn(partial.Warning)
	}
	return nil
}

func toSeekOutput(res goalseek.Result) seekOutput {
	switch r := res.(type) {
	case goalseek.Success:
		return seekOutput{Status: "success", Param: r.Param, Value: &r.Value, AchievedCpk: &r.AchievedCpk}
	case goalseek.Partial:
		return seekOutput{Status: "partial", Param: r.Param, Value: &r.Value, AchievedCpk: &r.AchievedCpk, Warning: r.Warning}
	case goalseek.Failure:
		return seekOutput{Status: "failure", Param: r.Param, Error: r.Err, Fallback: r.Fallback}
	}
	return seekOutput{}
}

func writeSeekResult(w io.Writer, res goalseek.Result) error {
	var err error
	switch r := res.(type) {
	case goalseek.Success:
		_, err = fmt.Fprintf(w, "%s = %.6g\nAchieved Cpk = %.4f\n", r.Param, r.Value, r.AchievedCpk)
	case goalseek.Partial:
		_, err = fmt.Fprintf(w, "%s = %.6g\nAchieved Cpk = %.4f\nWarning: %s\n", r.Param, r.Value, r.AchievedCpk, r.Warning)
	case goalseek.Failure:
		_, err = fmt.Fprintf(w, "Failed: %s\n", r.Err)
		if err == nil && r.Fallback != nil {
			_, err = fmt.Fprintf(w, "Best available %s = %.6g (Cpk %.4f)\n", r.Param, r.Fallback.Value, r.Fallback.AchievedCpk)
		}
	}
	return err
}

func newViewportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "viewport",
		Short: "Print the chart display range",
		Args:  cobra.NoArgs,
		RunE:  runViewportCmd,
	}
	cmd.Flags().Float64Var(&viewportFit, "fit", 0, "fit to mean ± this many σ instead of the hybrid range")
	cmd.Flags().BoolVar(&viewportJSON, "json", false, "print the bounds as JSON")
	return cmd
}

func runViewportCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	cfg, err := resolveConfig(cmd, fileCfg)
	if err != nil {
		return err
	}
	var bounds model.ViewportBounds
	if cmd.Flags().Changed("fit") {
		if math.IsNaN(viewportFit) || viewportFit <= 0 {
			return fmt.Errorf("--fit must be > 0")
		}
		bounds = viewport.FitToMean(cfg.Mean, cfg.Std, viewportFit)
	} else {
		bounds = viewport.Hybrid(cfg.Mean, cfg.Std, cfg.LSL, cfg.USL)
	}
	out := cmd.OutOrStdout()
	if viewportJSON {
		return writeJSON(out, bounds)
	}
	if _, err := fmt.Fprintf(out, "Display min: %.6g\nDisplay max: %.6g\n", bounds.DisplayMin, bounds.DisplayMax); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func specMarkers(lsl, usl float64, target *float64) []stats.Marker {
	markers := []stats.Marker{{Label: "LSL", X: lsl}, {Label: "USL", X: usl}}
	if target != nil {
		markers = append(markers, stats.Marker{Label: "T", X: *target})
	}
	return markers
}
