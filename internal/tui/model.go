// Package tui provides the Bubble Tea process explorer.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/procap/internal/goalseek"
	"github.com/verte-zerg/procap/internal/model"
	"github.com/verte-zerg/procap/internal/stats"
)

const (
	tabCapability = iota
	tabCurve
	tabScenarios
	tabGoalSeek
)

const (
	defaultPlotHeight = 10
	meanStepFraction  = 0.1
	stdStepFactor     = 1.1
)

type inputMode int

const (
	modeNone inputMode = iota
	modeEdit
	modeTargetCpk
	modeScenarioName
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7FB77E"))
	cardStyle    = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	modalStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A")).
			Padding(1, 2)
)

// ScenarioStore is the scenario persistence used by the explorer.
type ScenarioStore interface {
	ListScenarios(ctx context.Context) ([]model.Scenario, error)
	SaveScenario(ctx context.Context, sc model.Scenario) (int64, error)
	SetVisible(ctx context.Context, name string, visible bool) error
	DeleteScenario(ctx context.Context, name string) error
}

// Model implements the Bubble Tea explorer.
type Model struct {
	store ScenarioStore
	cfg   model.Config

	report  stats.Report
	errMsg  string
	warning string
	notice  string

	tabs      []string
	activeTab int
	viewports []viewport.Model

	width  int
	height int

	form form

	scenarios []model.Scenario
	selected  int

	fitToMean bool
	lastSeek  goalseek.Result
}

// NewModel constructs an explorer for cfg. A nil store disables the
// scenario workspace.
func NewModel(st ScenarioStore, cfg model.Config) *Model {
	if cfg.PlotHeight <= 0 {
		cfg.PlotHeight = defaultPlotHeight
	}
	m := &Model{
		store: st,
		cfg:   cfg,
		tabs:  []string{"Capability", "Curve", "Scenarios", "Goal Seek"},
	}
	m.form = newForm()
	m.initViewports()
	m.loadScenarios()
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.form.mode != modeNone {
			return m.updateForm(msg)
		}
		if msg.String() == "q" {
			return m, tea.Quit
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.clearStatus()
	if m.activeTab == tabScenarios {
		if handled := m.updateScenarioKeys(msg); handled {
			m.renderTabContents()
			return m, nil
		}
	}
	switch msg.String() {
	case "left", "h":
		m.moveTab(-1)
		return m, tea.ClearScreen
	case "right", "l":
		m.moveTab(1)
		return m, tea.ClearScreen
	case ",":
		m.cfg.Mean -= m.meanStep()
		m.refreshReport()
		return m, nil
	case ".":
		m.cfg.Mean += m.meanStep()
		m.refreshReport()
		return m, nil
	case "-":
		m.cfg.Std /= stdStepFactor
		m.refreshReport()
		return m, nil
	case "=":
		m.cfg.Std *= stdStepFactor
		m.refreshReport()
		return m, nil
	case "f":
		m.fitToMean = !m.fitToMean
		m.refreshReport()
		return m, nil
	case "m":
		m.seek(goalseek.ParamMean)
		return m, nil
	case "s":
		m.seek(goalseek.ParamStd)
		return m, nil
	case "e", "/":
		return m, m.form.startEdit(m.cfg)
	case "t":
		return m, m.form.startPrompt(modeTargetCpk, fmt.Sprintf("%g", m.cfg.TargetCpk))
	case "g", "home":
		m.viewports[m.activeTab].GotoTop()
		return m, nil
	case "G", "end":
		m.viewports[m.activeTab].GotoBottom()
		return m, nil
	default:
		vp := m.viewports[m.activeTab]
		var cmd tea.Cmd
		vp, cmd = vp.Update(msg)
		m.viewports[m.activeTab] = vp
		return m, cmd
	}
}

func (m *Model) updateScenarioKeys(msg tea.KeyMsg) bool {
	if msg.Type == tea.KeySpace {
		m.toggleSelected()
		return true
	}
	switch msg.String() {
	case "up", "k":
		m.moveSelection(-1)
	case "down", "j":
		m.moveSelection(1)
	case "enter":
		m.loadSelected()
	case "x", "delete":
		m.deleteSelected()
	case "a":
		if m.store == nil {
			m.errMsg = "scenario workspace is not available"
			return true
		}
		m.form.startPrompt(modeScenarioName, "")
	default:
		return false
	}
	return true
}

func (m *Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.form.stop()
		return m, nil
	case tea.KeyEnter:
		if err := m.submitForm(); err != nil {
			m.form.err = err.Error()
			return m, nil
		}
		m.form.stop()
		m.refreshReport()
		return m, nil
	case tea.KeyTab:
		return m, m.form.focus(m.form.index + 1)
	case tea.KeyShiftTab:
		return m, m.form.focus(m.form.index - 1)
	}
	return m, m.form.update(msg)
}

func (m *Model) submitForm() error {
	switch m.form.mode {
	case modeEdit:
		cfg, err := m.form.applyEdit(m.cfg)
		if err != nil {
			return err
		}
		m.cfg = cfg
		m.lastSeek = nil
	case modeTargetCpk:
		target, err := m.form.targetCpk()
		if err != nil {
			return err
		}
		m.cfg.TargetCpk = target
	case modeScenarioName:
		name := strings.TrimSpace(m.form.prompt.Value())
		if name == "" {
			return fmt.Errorf("scenario name must not be empty")
		}
		return m.saveScenario(name)
	}
	return nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.form.mode == modeTargetCpk || m.form.mode == modeScenarioName {
		return fitLines(m.renderPromptModal(), m.width, m.height)
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

// Config returns the process settings as currently adjusted in the explorer.
func (m *Model) Config() model.Config {
	return m.cfg
}

func (m *Model) initViewports() {
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if m.form.mode == modeNone && m.statusLine() != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, vpHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = vpHeight
	}
	m.form.resize(m.width)
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
}

func (m *Model) params() model.DistributionParameters {
	return model.DistributionParameters{
		Mean:   m.cfg.Mean,
		Std:    m.cfg.Std,
		LSL:    m.cfg.LSL,
		USL:    m.cfg.USL,
		Target: m.cfg.Target,
	}
}

func (m *Model) meanStep() float64 {
	if m.cfg.Std > 0 {
		return m.cfg.Std * meanStepFraction
	}
	return meanStepFraction
}

func (m *Model) refreshReport() {
	m.report = stats.BuildReport(m.params(), m.cfg.SampleStd)
	if m.fitToMean {
		m.report.Viewport = fitBounds(m.cfg)
	}
	m.updateLayout()
	m.renderTabContents()
}

func (m *Model) clearStatus() {
	m.errMsg = ""
	m.warning = ""
	m.notice = ""
}

func (m *Model) seek(param goalseek.Param) {
	var res goalseek.Result
	switch param {
	case goalseek.ParamMean:
		current := m.cfg.Mean
		res = goalseek.SolveForMean(m.cfg.TargetCpk, m.cfg.LSL, m.cfg.USL, m.cfg.Std, &current)
	default:
		res = goalseek.SolveForStd(m.cfg.TargetCpk, m.cfg.Mean, m.cfg.LSL, m.cfg.USL)
	}
	m.applySeek(res)
}

// applySeek applies a successful or partial result to the process and
// reports failures without touching it.
func (m *Model) applySeek(res goalseek.Result) {
	m.lastSeek = res
	switch r := res.(type) {
	case goalseek.Success:
		m.setParam(r.Param, r.Value)
		m.notice = "Applied " + goalseek.Describe(r)
	case goalseek.Partial:
		m.setParam(r.Param, r.Value)
		m.warning = "Applied with warning: " + r.Warning
	case goalseek.Failure:
		m.errMsg = goalseek.Describe(r)
	}
	m.refreshReport()
}

func (m *Model) setParam(param goalseek.Param, value float64) {
	switch param {
	case goalseek.ParamMean:
		m.cfg.Mean = value
	case goalseek.ParamStd:
		m.cfg.Std = value
	}
}

func (m *Model) loadScenarios() {
	if m.store == nil {
		return
	}
	list, err := m.store.ListScenarios(context.Background())
	if err != nil {
		m.errMsg = fmt.Sprintf("failed to load scenarios: %v", err)
		return
	}
	m.scenarios = list
	if m.selected >= len(m.scenarios) {
		m.selected = maxInt(0, len(m.scenarios)-1)
	}
}

func (m *Model) moveSelection(delta int) {
	if len(m.scenarios) == 0 {
		return
	}
	m.selected = (m.selected + delta + len(m.scenarios)) % len(m.scenarios)
}

func (m *Model) selectedScenario() (model.Scenario, bool) {
	if m.selected < 0 || m.selected >= len(m.scenarios) {
		return model.Scenario{}, false
	}
	return m.scenarios[m.selected], true
}

func (m *Model) toggleSelected() {
	sc, ok := m.selectedScenario()
	if !ok {
		return
	}
	if err := m.store.SetVisible(context.Background(), sc.Name, !sc.Visible); err != nil {
		m.errMsg = fmt.Sprintf("failed to update scenario: %v", err)
		return
	}
	m.loadScenarios()
}

func (m *Model) deleteSelected() {
	sc, ok := m.selectedScenario()
	if !ok {
		return
	}
	if err := m.store.DeleteScenario(context.Background(), sc.Name); err != nil {
		m.errMsg = fmt.Sprintf("failed to delete scenario: %v", err)
		return
	}
	m.notice = fmt.Sprintf("Deleted %s", sc.Name)
	m.loadScenarios()
}

func (m *Model) loadSelected() {
	sc, ok := m.selectedScenario()
	if !ok {
		return
	}
	m.cfg.Mean = sc.Mean
	m.cfg.Std = sc.Std
	m.cfg.LSL = sc.LSL
	m.cfg.USL = sc.USL
	m.cfg.Target = sc.Target
	m.lastSeek = nil
	m.notice = fmt.Sprintf("Loaded %s", sc.Name)
	m.refreshReport()
}

func (m *Model) saveScenario(name string) error {
	p := m.params()
	_, err := m.store.SaveScenario(context.Background(), model.Scenario{
		Name:    name,
		Mean:    p.Mean,
		Std:     p.Std,
		LSL:     p.LSL,
		USL:     p.USL,
		Target:  p.Target,
		Visible: true,
	})
	if err != nil {
		return fmt.Errorf("failed to save scenario: %w", err)
	}
	m.loadScenarios()
	for i, sc := range m.scenarios {
		if sc.Name == name {
			m.selected = i
		}
	}
	m.notice = fmt.Sprintf("Saved %s", name)
	return nil
}
