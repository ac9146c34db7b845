package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/procap/internal/dataset"
	"github.com/verte-zerg/procap/internal/model"
	"github.com/verte-zerg/procap/internal/stats"
	"github.com/verte-zerg/procap/internal/viewport"
)

var scenarioHidden bool

func newScenarioCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenario",
		Short: "Manage the saved scenario workspace",
	}
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Save the process given by --mean/--std/--lsl/--usl/--target",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenarioAddCmd,
	}
	add.Flags().BoolVar(&scenarioHidden, "hidden", false, "exclude the scenario from overlays")

	cmd.AddCommand(add)
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved scenarios",
		Args:  cobra.NoArgs,
		RunE:  runScenarioListCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:     "rm <name>",
		Aliases: []string{"remove"},
		Short:   "Delete a scenario",
		Args:    cobra.ExactArgs(1),
		RunE:    runScenarioRemoveCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show <name>",
		Short: "Include a scenario in overlays",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenarioVisibilityCmd(true),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "hide <name>",
		Short: "Exclude a scenario from overlays",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenarioVisibilityCmd(false),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "report <name>",
		Short: "Print metrics for a saved scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenarioReportCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Import scenarios from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenarioImportCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "plot",
		Short: "Overlay all visible scenarios",
		Args:  cobra.NoArgs,
		RunE:  runScenarioPlotCmd,
	})
	return cmd
}

func runScenarioAddCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	cfg, err := resolveConfig(cmd, fileCfg)
	if err != nil {
		return err
	}
	if cfg.Std <= 0 {
		return fmt.Errorf("--std must be > 0")
	}
	if cfg.USL <= cfg.LSL {
		return fmt.Errorf("--usl must be greater than --lsl")
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	p := params(cfg)
	id, err := st.SaveScenario(context.Background(), model.Scenario{
		Name:    args[0],
		Mean:    p.Mean,
		Std:     p.Std,
		LSL:     p.LSL,
		USL:     p.USL,
		Target:  p.Target,
		Visible: !scenarioHidden,
	})
	if err != nil {
		return fmt.Errorf("failed to save scenario: %w", err)
	}
	log.WithFields(logrus.Fields{"name": args[0], "id": id}).Info("scenario saved")
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", args[0]); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func runScenarioListCmd(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	scenarios, err := st.ListScenarios(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list scenarios: %w", err)
	}
	if len(scenarios) == 0 {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), "No scenarios saved."); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	if err := stats.RenderScenarios(cmd.OutOrStdout(), scenarios); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func runScenarioRemoveCmd(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	if err := st.DeleteScenario(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to delete scenario: %w", err)
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0]); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func runScenarioVisibilityCmd(visible bool) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore(st)

		if err := st.SetVisible(context.Background(), args[0], visible); err != nil {
			return fmt.Errorf("failed to update scenario: %w", err)
		}
		log.WithFields(logrus.Fields{"name": args[0], "visible": visible}).Info("scenario updated")
		return nil
	}
}

func runScenarioReportCmd(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	sc, err := st.GetScenario(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to load scenario: %w", err)
	}
	if err := stats.RenderReport(cmd.OutOrStdout(), stats.BuildReport(sc.Params(), 0)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func runScenarioImportCmd(cmd *cobra.Command, args []string) error {
	scenarios, err := dataset.LoadScenarios(args[0])
	if err != nil {
		return fmt.Errorf("failed to read scenarios: %w", err)
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	if err := st.SaveScenarios(context.Background(), scenarios); err != nil {
		return fmt.Errorf("failed to import scenarios: %w", err)
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Imported %d scenarios\n", len(scenarios)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func runScenarioPlotCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	cfg, err := resolveConfig(cmd, fileCfg)
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	scenarios, err := st.ListScenarios(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list scenarios: %w", err)
	}
	curves := make([]stats.Curve, 0, len(scenarios))
	for _, sc := range scenarios {
		if sc.Visible {
			curves = append(curves, stats.Curve{Name: sc.Name, Mean: sc.Mean, Std: sc.Std})
		}
	}
	if len(curves) == 0 {
		return fmt.Errorf("no visible scenarios (use: procap scenario show <name>)")
	}
	if err := stats.PlotDistributions(cmd.OutOrStdout(), stats.PlotOptions{
		Title:  "Scenarios",
		Bounds: viewport.MultiDistribution(scenarios),
		Curves: curves,
		Height: cfg.PlotHeight,
	}); err != nil {
		return fmt.Errorf("failed to render plot: %w", err)
	}
	return nil
}
