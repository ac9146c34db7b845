package main

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/verte-zerg/procap/internal/config"
	"github.com/verte-zerg/procap/internal/model"
	"github.com/verte-zerg/procap/internal/stats"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestReportJSON(t *testing.T) {
	setupEnv(t)
	out, err := execute(t, "report", "--mean", "0", "--std", "1", "--lsl", "-3", "--usl", "3", "--target", "0", "--json")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	var r stats.Report
	if err := json.Unmarshal([]byte(out), &r); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if r.Capability == nil || math.Abs(r.Capability.Cp-1) > 1e-12 {
		t.Fatalf("expected Cp 1, got %+v", r.Capability)
	}
	if r.Performance == nil || r.Performance.Cpm == nil || math.Abs(*r.Performance.Cpm-1) > 1e-12 {
		t.Fatalf("expected Cpm 1, got %+v", r.Performance)
	}
}

func TestReportTable(t *testing.T) {
	setupEnv(t)
	out, err := execute(t, "report", "--std", "0")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !strings.Contains(out, "Cpk") || !strings.Contains(out, "—") {
		t.Fatalf("expected placeholder metrics:\n%s", out)
	}
}

func TestGoalSeekSuccess(t *testing.T) {
	setupEnv(t)
	out, err := execute(t, "goal-seek", "std", "--cpk", "1", "--mean", "0", "--lsl", "-4", "--usl", "4", "--json")
	if err != nil {
		t.Fatalf("goal-seek: %v", err)
	}
	var res seekOutput
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if res.Status != "success" || res.Value == nil || math.Abs(*res.Value-4.0/3.0) > 1e-9 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestGoalSeekFailureReturnsError(t *testing.T) {
	setupEnv(t)
	out, err := execute(t, "goal-seek", "mean", "--cpk", "3", "--std", "1", "--lsl", "-4", "--usl", "4")
	if !errors.Is(err, errSeekFailed) {
		t.Fatalf("expected goal seek failure, got %v", err)
	}
	if strings.Count(out, "Failed:") != 1 || !strings.Contains(out, "Best available mean = 0") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	detail := strings.TrimPrefix(strings.SplitN(out, "\n", 2)[0], "Failed: ")
	if strings.Contains(err.Error(), detail) {
		t.Fatalf("failure reason repeated in returned error: %v", err)
	}
}

func TestGoalSeekUnknownParam(t *testing.T) {
	setupEnv(t)
	if _, err := execute(t, "goal-seek", "lsl"); err == nil {
		t.Fatalf("expected error for unknown parameter")
	}
}

func TestViewportUsesConfig(t *testing.T) {
	dir := setupEnv(t)
	path := filepath.Join(dir, "config", "procap", "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("[process]\nmean = 5.0\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	out, err := execute(t, "viewport")
	if err != nil {
		t.Fatalf("viewport: %v", err)
	}
	if !strings.Contains(out, "Display min: -3.3") || !strings.Contains(out, "Display max: 11") {
		t.Fatalf("expected config mean to apply:\n%s", out)
	}
	out, err = execute(t, "viewport", "--mean", "0")
	if err != nil {
		t.Fatalf("viewport: %v", err)
	}
	if !strings.Contains(out, "Display min: -6") || !strings.Contains(out, "Display max: 6") {
		t.Fatalf("expected flag to override config:\n%s", out)
	}
}

func TestViewportFit(t *testing.T) {
	setupEnv(t)
	out, err := execute(t, "viewport", "--mean", "10", "--std", "2", "--fit", "3", "--json")
	if err != nil {
		t.Fatalf("viewport: %v", err)
	}
	var b model.ViewportBounds
	if err := json.Unmarshal([]byte(out), &b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b.DisplayMin != 4 || b.DisplayMax != 16 {
		t.Fatalf("unexpected bounds: %+v", b)
	}
	if _, err := execute(t, "viewport", "--fit", "0"); err == nil {
		t.Fatalf("expected error for zero multiplier")
	}
}

func TestSampleSeeded(t *testing.T) {
	setupEnv(t)
	first, err := execute(t, "sample", "--n", "5", "--seed", "7", "--mean", "10", "--std", "0.5")
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	second, err := execute(t, "sample", "--n", "5", "--seed", "7", "--mean", "10", "--std", "0.5")
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	if first != second {
		t.Fatalf("expected identical seeded samples")
	}
	if lines := strings.Split(strings.TrimSpace(first), "\n"); len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d", len(lines))
	}
	if _, err := execute(t, "sample", "--std", "0"); err == nil {
		t.Fatalf("expected error for zero std")
	}
}

func TestDataCommand(t *testing.T) {
	dir := setupEnv(t)
	path := filepath.Join(dir, "sample.txt")
	if err := os.WriteFile(path, []byte("value\n9.8\n10.1\n10.0\n9.9\n10.2\n10.0\n"), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	out, err := execute(t, "data", path, "--bins", "3")
	if err != nil {
		t.Fatalf("data: %v", err)
	}
	if !strings.Contains(out, "Sample") || !strings.Contains(out, "Histogram") || strings.Contains(out, "Cpk") {
		t.Fatalf("expected descriptive output only:\n%s", out)
	}
	out, err = execute(t, "data", path, "--bins", "3", "--lsl", "9", "--usl", "11")
	if err != nil {
		t.Fatalf("data: %v", err)
	}
	if !strings.Contains(out, "Cpk") || !strings.Contains(out, "Histogram") {
		t.Fatalf("expected capability output:\n%s", out)
	}
	if _, err := execute(t, "data", filepath.Join(dir, "missing.txt")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestScenarioCommands(t *testing.T) {
	dir := setupEnv(t)
	if _, err := execute(t, "scenario", "add", "line-a", "--mean", "10", "--std", "0.5", "--lsl", "8", "--usl", "12"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := execute(t, "scenario", "add", "bad", "--std", "0"); err == nil {
		t.Fatalf("expected error for zero std")
	}
	yamlPath := filepath.Join(dir, "scenarios.yaml")
	content := "scenarios:\n  - name: line-b\n    mean: 11\n    std: 0.4\n    lsl: 8\n    usl: 12\n    visible: false\n"
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	out, err := execute(t, "scenario", "import", yamlPath)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "Imported 1 scenarios") {
		t.Fatalf("unexpected import output: %s", out)
	}

	out, err = execute(t, "scenario", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "line-a") || !strings.Contains(out, "line-b") {
		t.Fatalf("expected both scenarios:\n%s", out)
	}

	out, err = execute(t, "scenario", "plot", "--plot-height", "4")
	if err != nil {
		t.Fatalf("plot: %v", err)
	}
	if !strings.Contains(out, "line-a") || strings.Contains(out, "line-b") {
		t.Fatalf("expected only the visible scenario in the legend:\n%s", out)
	}

	if _, err := execute(t, "scenario", "show", "line-b"); err != nil {
		t.Fatalf("show: %v", err)
	}
	if _, err := execute(t, "scenario", "hide", "line-a"); err != nil {
		t.Fatalf("hide: %v", err)
	}
	out, err = execute(t, "scenario", "report", "line-b")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !strings.Contains(out, "Cpk") {
		t.Fatalf("expected metrics:\n%s", out)
	}

	if _, err := execute(t, "scenario", "rm", "line-a"); err != nil {
		t.Fatalf("rm: %v", err)
	}
	if _, err := execute(t, "scenario", "rm", "line-a"); err == nil {
		t.Fatalf("expected error removing a missing scenario")
	}
	if _, err := execute(t, "scenario", "hide", "line-b"); err != nil {
		t.Fatalf("hide: %v", err)
	}
	if _, err := execute(t, "scenario", "plot"); err == nil {
		t.Fatalf("expected error with no visible scenarios")
	}
}

func TestScenarioImportRejectsInvalidProcess(t *testing.T) {
	dir := setupEnv(t)
	yamlPath := filepath.Join(dir, "scenarios.yaml")
	content := "scenarios:\n  - {name: ok, mean: 1, std: 1, lsl: 0, usl: 2}\n  - {name: bad, mean: 1, std: 0, lsl: 5, usl: 2}\n"
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	if _, err := execute(t, "scenario", "import", yamlPath); err == nil {
		t.Fatalf("expected error for invalid scenario")
	}
	out, err := execute(t, "scenario", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "No scenarios saved.") {
		t.Fatalf("expected nothing imported:\n%s", out)
	}
}

func TestInvalidLogLevel(t *testing.T) {
	setupEnv(t)
	if _, err := execute(t, "viewport", "--log-level", "loud"); err == nil {
		t.Fatalf("expected error for invalid log level")
	}
}

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	if _, err := config.LoadConfig(path); err != nil {
		t.Fatalf("template should decode: %v", err)
	}
}

func TestValidateConfig(t *testing.T) {
	valid := model.Config{Std: 1, LSL: -3, USL: 3, Bins: 20, FitMultiplier: 4, PlotHeight: 10, TargetCpk: 1.33}
	if err := validateConfig(valid); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
	nan := math.NaN()
	cases := []struct {
		name   string
		mutate func(*model.Config)
		want   string
	}{
		{"nan mean", func(c *model.Config) { c.Mean = math.NaN() }, "--mean"},
		{"inf usl", func(c *model.Config) { c.USL = math.Inf(1) }, "--usl"},
		{"nan target", func(c *model.Config) { c.Target = &nan }, "--target"},
		{"negative sample std", func(c *model.Config) { c.SampleStd = -1 }, "--sample-std"},
		{"zero cpk", func(c *model.Config) { c.TargetCpk = 0 }, "--cpk"},
		{"zero bins", func(c *model.Config) { c.Bins = 0 }, "--bins"},
		{"zero plot height", func(c *model.Config) { c.PlotHeight = 0 }, "--plot-height"},
	}
	for _, tc := range cases {
		cfg := valid
		tc.mutate(&cfg)
		err := validateConfig(cfg)
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: expected error mentioning %s, got %v", tc.name, tc.want, err)
		}
	}
}
