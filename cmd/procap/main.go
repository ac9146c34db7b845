// Package main provides the CLI entrypoint for procap.
package main

import (
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/procap/internal/config"
	"github.com/verte-zerg/procap/internal/model"
	"github.com/verte-zerg/procap/internal/stats"
	"github.com/verte-zerg/procap/internal/store"
	"github.com/verte-zerg/procap/internal/tui"
)

const (
	defaultMean          = 0.0
	defaultStd           = 1.0
	defaultLSL           = -3.0
	defaultUSL           = 3.0
	defaultTargetCpk     = 1.33
	defaultFitMultiplier = 4.0
	defaultPlotHeight    = 10
	defaultLogLevel      = "warn"
)

var log = logrus.New()

var (
	processMean      float64
	processStd       float64
	processLSL       float64
	processUSL       float64
	processTarget    float64
	processSampleStd float64

	targetCpk     float64
	plotHeight    int
	fitMultiplier float64
	logLevel      string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "procap",
		Short:             "Process capability explorer",
		SilenceUsage:      true,
		SilenceErrors:     false,
		PersistentPreRunE: setupLogging,
		RunE:              runExplorerCmd,
	}

	flags := rootCmd.PersistentFlags()
	flags.Float64Var(&processMean, "mean", defaultMean, "process mean")
	flags.Float64Var(&processStd, "std", defaultStd, "process standard deviation (σ)")
	flags.Float64Var(&processLSL, "lsl", defaultLSL, "lower specification limit")
	flags.Float64Var(&processUSL, "usl", defaultUSL, "upper specification limit")
	flags.Float64Var(&processTarget, "target", 0, "target value for Cpm (unset: no Cpm)")
	flags.Float64Var(&processSampleStd, "sample-std", 0, "sample std (n-1) for Pp/Ppk (0: use --std)")
	flags.IntVar(&plotHeight, "plot-height", defaultPlotHeight, "plot height in rows")
	flags.StringVar(&logLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")

	rootCmd.Flags().Float64Var(&targetCpk, "cpk", defaultTargetCpk, "target Cpk for goal seek")
	rootCmd.Flags().Float64Var(&fitMultiplier, "fit-multiplier", defaultFitMultiplier, "σ multiplier for the fit-to-mean view")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newGoalSeekCmd())
	rootCmd.AddCommand(newViewportCmd())
	rootCmd.AddCommand(newDataCmd())
	rootCmd.AddCommand(newSampleCmd())
	rootCmd.AddCommand(newScenarioCmd())

	return rootCmd
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	log.SetOutput(cmd.ErrOrStderr())
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	return nil
}

func runExplorerCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	cfg, err := resolveConfig(cmd, fileCfg)
	if err != nil {
		return err
	}

	var workspace tui.ScenarioStore
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		log.WithError(err).Warn("scenario workspace unavailable")
	} else {
		defer closeStore(st)
		workspace = st
	}

	explorer := tui.NewModel(workspace, cfg)
	program := tea.NewProgram(explorer, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	final := explorer.Config()
	log.WithFields(logrus.Fields{
		"mean": final.Mean,
		"std":  final.Std,
		"lsl":  final.LSL,
		"usl":  final.USL,
	}).Debug("explorer closed")
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		log.WithField("path", path).Info("wrote default config")
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func loadFileConfig() (config.FileConfig, error) {
	path := config.DefaultConfigPath()
	fileCfg, err := config.LoadConfig(path)
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	log.WithField("path", path).Debug("config loaded")
	return fileCfg, nil
}

// resolveConfig merges config file values into every flag the user did not
// set explicitly and validates the result.
func resolveConfig(cmd *cobra.Command, fileCfg config.FileConfig) (model.Config, error) {
	applyFloatConfig(cmd, "mean", &processMean, fileCfg.Process.Mean)
	applyFloatConfig(cmd, "std", &processStd, fileCfg.Process.Std)
	applyFloatConfig(cmd, "lsl", &processLSL, fileCfg.Process.LSL)
	applyFloatConfig(cmd, "usl", &processUSL, fileCfg.Process.USL)
	applyFloatConfig(cmd, "sample-std", &processSampleStd, fileCfg.Process.SampleStd)
	applyFloatConfig(cmd, "cpk", &targetCpk, fileCfg.GoalSeek.TargetCpk)
	applyFloatConfig(cmd, "fit-multiplier", &fitMultiplier, fileCfg.Display.FitMultiplier)
	applyIntConfig(cmd, "plot-height", &plotHeight, fileCfg.Display.PlotHeight)
	applyIntConfig(cmd, "bins", &dataBins, fileCfg.Display.Bins)

	var target *float64
	switch {
	case cmd.Flags().Changed("target"):
		v := processTarget
		target = &v
	case fileCfg.Process.Target != nil:
		v := *fileCfg.Process.Target
		target = &v
	}

	cfg := model.Config{
		Mean:          processMean,
		Std:           processStd,
		LSL:           processLSL,
		USL:           processUSL,
		Target:        target,
		SampleStd:     processSampleStd,
		Bins:          dataBins,
		FitMultiplier: fitMultiplier,
		PlotHeight:    plotHeight,
		TargetCpk:     targetCpk,
	}
	if err := validateConfig(cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

// limitsGiven reports whether both spec limits came from a flag or the config file.
func limitsGiven(cmd *cobra.Command, fileCfg config.FileConfig) bool {
	lsl := cmd.Flags().Changed("lsl") || fileCfg.Process.LSL != nil
	usl := cmd.Flags().Changed("usl") || fileCfg.Process.USL != nil
	return lsl && usl
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# procap configuration
# Uncomment a value to enable it. CLI flags override config values.

[process]
# mean = %.1f             # Process mean
# std = %.1f              # Process standard deviation
# lsl = %.1f             # Lower specification limit
# usl = %.1f              # Upper specification limit
# target = 0.0            # Target value (enables Cpm)
# sample-std = 1.0        # Sample std (n-1) used for Pp/Ppk

[display]
# bins = %d               # Histogram bins for the data command
# fit-multiplier = %.1f   # σ multiplier for the fit-to-mean view
# plot-height = %d        # Plot height in rows

[goal-seek]
# target-cpk = %.2f       # Target Cpk for goal seek
`,
		defaultMean,
		defaultStd,
		defaultLSL,
		defaultUSL,
		stats.DefaultBins,
		defaultFitMultiplier,
		defaultPlotHeight,
		defaultTargetCpk,
	)
}

func validateConfig(cfg model.Config) error {
	finite := func(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"--mean", cfg.Mean},
		{"--std", cfg.Std},
		{"--lsl", cfg.LSL},
		{"--usl", cfg.USL},
		{"--sample-std", cfg.SampleStd},
		{"--cpk", cfg.TargetCpk},
		{"--fit-multiplier", cfg.FitMultiplier},
	} {
		if !finite(f.value) {
			return fmt.Errorf("%s must be a finite number", f.name)
		}
	}
	if cfg.Target != nil && !finite(*cfg.Target) {
		return fmt.Errorf("--target must be a finite number")
	}
	if cfg.SampleStd < 0 {
		return fmt.Errorf("--sample-std must be >= 0")
	}
	if cfg.TargetCpk <= 0 {
		return fmt.Errorf("--cpk must be > 0")
	}
	if cfg.FitMultiplier <= 0 {
		return fmt.Errorf("--fit-multiplier must be > 0")
	}
	if cfg.PlotHeight <= 0 {
		return fmt.Errorf("--plot-height must be > 0")
	}
	if cfg.Bins <= 0 {
		return fmt.Errorf("--bins must be > 0")
	}
	return nil
}

func params(cfg model.Config) model.DistributionParameters {
	return model.DistributionParameters{
		Mean:   cfg.Mean,
		Std:    cfg.Std,
		LSL:    cfg.LSL,
		USL:    cfg.USL,
		Target: cfg.Target,
	}
}

func openStore() (*store.Store, error) {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		log.WithError(err).Warn("failed to close db")
	}
}
