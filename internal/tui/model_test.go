package tui

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/procap/internal/goalseek"
	"github.com/verte-zerg/procap/internal/model"
	"github.com/verte-zerg/procap/internal/viewport"
)

type fakeStore struct {
	scenarios []model.Scenario
}

func (f *fakeStore) ListScenarios(context.Context) ([]model.Scenario, error) {
	return append([]model.Scenario(nil), f.scenarios...), nil
}

func (f *fakeStore) SaveScenario(_ context.Context, sc model.Scenario) (int64, error) {
	for i := range f.scenarios {
		if f.scenarios[i].Name == sc.Name {
			sc.ID = f.scenarios[i].ID
			f.scenarios[i] = sc
			return sc.ID, nil
		}
	}
	sc.ID = int64(len(f.scenarios) + 1)
	f.scenarios = append(f.scenarios, sc)
	return sc.ID, nil
}

func (f *fakeStore) SetVisible(_ context.Context, name string, visible bool) error {
	for i := range f.scenarios {
		if f.scenarios[i].Name == name {
			f.scenarios[i].Visible = visible
			return nil
		}
	}
	return errors.New("not found")
}

func (f *fakeStore) DeleteScenario(_ context.Context, name string) error {
	for i := range f.scenarios {
		if f.scenarios[i].Name == name {
			f.scenarios = append(f.scenarios[:i], f.scenarios[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

func baseConfig() model.Config {
	return model.Config{
		Mean:          0,
		Std:           1,
		LSL:           -4,
		USL:           4,
		FitMultiplier: 4,
		TargetCpk:     1.33,
	}
}

func press(m *Model, key string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
}

func pressType(m *Model, t tea.KeyType) {
	m.Update(tea.KeyMsg{Type: t})
}

func TestSeekMeanAppliesSuccess(t *testing.T) {
	cfg := baseConfig()
	cfg.Mean = 2
	m := NewModel(nil, cfg)
	press(m, "m")
	if _, ok := m.lastSeek.(goalseek.Success); !ok {
		t.Fatalf("expected success, got %#v", m.lastSeek)
	}
	if math.Abs(m.cfg.Mean-0.01) > 1e-9 {
		t.Fatalf("expected nearest feasible mean 0.01, got %v", m.cfg.Mean)
	}
	if !strings.Contains(m.notice, "Applied") {
		t.Fatalf("expected applied notice, got %q", m.notice)
	}
	if m.report.Mean != m.cfg.Mean {
		t.Fatalf("expected report to follow the new mean")
	}
}

func TestSeekStdAppliesSuccess(t *testing.T) {
	cfg := baseConfig()
	cfg.TargetCpk = 1
	m := NewModel(nil, cfg)
	press(m, "s")
	if math.Abs(m.cfg.Std-4.0/3.0) > 1e-9 {
		t.Fatalf("expected std 4/3, got %v", m.cfg.Std)
	}
}

func TestSeekFailureKeepsProcess(t *testing.T) {
	cfg := baseConfig()
	cfg.Mean = 1
	cfg.TargetCpk = 3
	m := NewModel(nil, cfg)
	press(m, "m")
	fail, ok := m.lastSeek.(goalseek.Failure)
	if !ok {
		t.Fatalf("expected failure, got %#v", m.lastSeek)
	}
	if fail.Fallback == nil {
		t.Fatalf("expected fallback for unreachable target")
	}
	if m.cfg.Mean != 1 {
		t.Fatalf("expected mean to stay 1, got %v", m.cfg.Mean)
	}
	if m.errMsg == "" {
		t.Fatalf("expected error message")
	}
}

func TestApplySeekPartialWarns(t *testing.T) {
	m := NewModel(nil, baseConfig())
	m.applySeek(goalseek.Partial{Param: goalseek.ParamStd, Value: 0.5, AchievedCpk: 1.2, Warning: "off target"})
	if m.cfg.Std != 0.5 {
		t.Fatalf("expected partial result to be applied, got std %v", m.cfg.Std)
	}
	if !strings.Contains(m.warning, "off target") {
		t.Fatalf("expected warning, got %q", m.warning)
	}
}

func TestStepKeys(t *testing.T) {
	m := NewModel(nil, baseConfig())
	press(m, ".")
	if math.Abs(m.cfg.Mean-0.1) > 1e-12 {
		t.Fatalf("expected mean 0.1, got %v", m.cfg.Mean)
	}
	press(m, ",")
	press(m, ",")
	if math.Abs(m.cfg.Mean+0.1) > 1e-12 {
		t.Fatalf("expected mean -0.1, got %v", m.cfg.Mean)
	}
	press(m, "=")
	if math.Abs(m.cfg.Std-1.1) > 1e-12 {
		t.Fatalf("expected std 1.1, got %v", m.cfg.Std)
	}
	press(m, "-")
	if math.Abs(m.cfg.Std-1) > 1e-12 {
		t.Fatalf("expected std 1, got %v", m.cfg.Std)
	}
}

func TestFitToggle(t *testing.T) {
	m := NewModel(nil, baseConfig())
	if m.report.Viewport.DisplayMin != -6 || m.report.Viewport.DisplayMax != 6 {
		t.Fatalf("expected hybrid viewport, got %+v", m.report.Viewport)
	}
	press(m, "f")
	want := viewport.FitToMean(0, 1, 4)
	if m.report.Viewport != want {
		t.Fatalf("expected %+v, got %+v", want, m.report.Viewport)
	}
}

func TestEditForm(t *testing.T) {
	m := NewModel(nil, baseConfig())
	press(m, "e")
	if m.form.mode != modeEdit {
		t.Fatalf("expected edit mode")
	}
	m.form.inputs[fieldMean].SetValue("10")
	m.form.inputs[fieldStd].SetValue("0.5")
	m.form.inputs[fieldLSL].SetValue("8")
	m.form.inputs[fieldUSL].SetValue("12")
	m.form.inputs[fieldTarget].SetValue("10")
	m.form.inputs[fieldSampleStd].SetValue("")
	pressType(m, tea.KeyEnter)
	if m.form.mode != modeNone {
		t.Fatalf("expected form to close")
	}
	if m.cfg.Mean != 10 || m.cfg.Std != 0.5 || m.cfg.LSL != 8 || m.cfg.USL != 12 {
		t.Fatalf("unexpected config: %+v", m.cfg)
	}
	if m.cfg.Target == nil || *m.cfg.Target != 10 {
		t.Fatalf("expected target 10")
	}
	if m.report.Performance == nil || m.report.Performance.Cpm == nil {
		t.Fatalf("expected Cpm with a target")
	}
}

func TestEditFormRejectsInvalid(t *testing.T) {
	m := NewModel(nil, baseConfig())
	press(m, "e")
	m.form.inputs[fieldStd].SetValue("abc")
	pressType(m, tea.KeyEnter)
	if m.form.mode != modeEdit {
		t.Fatalf("expected form to stay open")
	}
	if !strings.Contains(m.form.err, "std") {
		t.Fatalf("expected std error, got %q", m.form.err)
	}
	pressType(m, tea.KeyEsc)
	if m.form.mode != modeNone || m.cfg.Std != 1 {
		t.Fatalf("expected cancel to keep config")
	}
}

func TestTargetCpkPrompt(t *testing.T) {
	m := NewModel(nil, baseConfig())
	press(m, "t")
	m.form.prompt.SetValue("-1")
	pressType(m, tea.KeyEnter)
	if m.form.err == "" {
		t.Fatalf("expected error for negative target")
	}
	m.form.prompt.SetValue("2")
	pressType(m, tea.KeyEnter)
	if m.cfg.TargetCpk != 2 {
		t.Fatalf("expected target Cpk 2, got %v", m.cfg.TargetCpk)
	}
}

func TestScenarioWorkflow(t *testing.T) {
	st := &fakeStore{scenarios: []model.Scenario{
		{ID: 1, Name: "wide", Mean: 1, Std: 2, LSL: -4, USL: 4, Visible: true},
	}}
	m := NewModel(st, baseConfig())
	pressType(m, tea.KeyRight)
	pressType(m, tea.KeyRight)
	if m.activeTab != tabScenarios {
		t.Fatalf("expected scenarios tab, got %d", m.activeTab)
	}

	press(m, "a")
	m.form.prompt.SetValue("current")
	pressType(m, tea.KeyEnter)
	if len(st.scenarios) != 2 || st.scenarios[1].Name != "current" || !st.scenarios[1].Visible {
		t.Fatalf("expected saved scenario, got %+v", st.scenarios)
	}
	if m.selected != 1 {
		t.Fatalf("expected new scenario to be selected, got %d", m.selected)
	}

	m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if st.scenarios[1].Visible {
		t.Fatalf("expected scenario to be hidden")
	}

	pressType(m, tea.KeyUp)
	pressType(m, tea.KeyEnter)
	if m.cfg.Mean != 1 || m.cfg.Std != 2 {
		t.Fatalf("expected wide scenario to be loaded, got %+v", m.cfg)
	}

	press(m, "x")
	if len(st.scenarios) != 1 || st.scenarios[0].Name != "current" {
		t.Fatalf("expected wide scenario to be deleted, got %+v", st.scenarios)
	}
}

func TestScenarioKeysWithoutStore(t *testing.T) {
	m := NewModel(nil, baseConfig())
	m.activeTab = tabScenarios
	press(m, "a")
	if m.form.mode != modeNone || m.errMsg == "" {
		t.Fatalf("expected error without a workspace")
	}
}

func TestViewRendersTabs(t *testing.T) {
	m := NewModel(nil, baseConfig())
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	out := m.View()
	for _, want := range []string{"Capability", "Curve", "Scenarios", "Goal Seek", "Process: mean=0"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in view", want)
		}
	}
	if got := len(strings.Split(out, "\n")); got != 40 {
		t.Fatalf("expected view to fill 40 lines, got %d", got)
	}
}

func TestRenderCurveInvalid(t *testing.T) {
	cfg := baseConfig()
	cfg.Std = 0
	m := NewModel(nil, cfg)
	if got := renderCurve(m.report, 80, 8); !strings.Contains(got, "Std must be > 0") {
		t.Fatalf("unexpected curve output: %q", got)
	}
}

func TestRenderGoalSeek(t *testing.T) {
	out := renderGoalSeek(baseConfig(), NewModel(nil, baseConfig()).report, goalseek.Failure{Param: goalseek.ParamStd, Err: "mean must be less than USL"})
	if !strings.Contains(out, "mean must be less than USL") || !strings.Contains(out, "not changed") {
		t.Fatalf("unexpected goal seek output:\n%s", out)
	}
}
