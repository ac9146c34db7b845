package tui

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/procap/internal/goalseek"
	"github.com/verte-zerg/procap/internal/model"
	"github.com/verte-zerg/procap/internal/stats"
	"github.com/verte-zerg/procap/internal/viewport"
)

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	summary := padLines(m.renderSummary(), m.width)
	return tabs + "\n" + summary
}

func (m *Model) renderSummary() string {
	target := "none"
	if m.cfg.Target != nil {
		target = formatValue(*m.cfg.Target)
	}
	view := "hybrid"
	if m.fitToMean {
		view = fmt.Sprintf("fit ±%gσ", m.cfg.FitMultiplier)
	}
	summary := fmt.Sprintf("Process: mean=%s  std=%s  LSL=%s  USL=%s  target=%s  target Cpk=%g  view=%s",
		formatValue(m.cfg.Mean), formatValue(m.cfg.Std), formatValue(m.cfg.LSL), formatValue(m.cfg.USL),
		target, m.cfg.TargetCpk, view)
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderHelp() string {
	help := "Nav: left/right  Mean: ,/.  Std: -/=  Edit: e  Seek: m/s  Target: t  View: f  Quit: q"
	if m.activeTab == tabScenarios {
		help = "Nav: left/right  Select: up/down  Show/hide: space  Load: enter  Save: a  Delete: x  Quit: q"
	}
	return headerStyle.Render(truncateLine(help, m.width))
}

func (m *Model) statusLine() string {
	switch {
	case m.errMsg != "":
		return errorStyle.Render(m.errMsg)
	case m.warning != "":
		return warningStyle.Render(m.warning)
	case m.notice != "":
		return noticeStyle.Render(m.notice)
	}
	return ""
}

func (m *Model) renderFooter() string {
	if m.form.mode == modeEdit {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	if status := m.statusLine(); status != "" {
		return m.renderHelp() + "\n" + status
	}
	return m.renderHelp()
}

func (m *Model) renderBody(height int) string {
	if m.form.mode == modeEdit {
		return fitLines(m.form.view(), m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func (m *Model) renderPromptModal() string {
	title := "Target Cpk"
	hint := "Goal seek solves for this Cpk."
	if m.form.mode == modeScenarioName {
		title = "Save Scenario"
		hint = "An existing scenario with this name is replaced."
	}
	body := []string{
		cardValueStyle.Render(title),
		m.form.prompt.View(),
		headerStyle.Render(hint),
		headerStyle.Render("Enter to apply / Esc to cancel"),
	}
	if m.form.err != "" {
		body = append(body, errorStyle.Render(m.form.err))
	}
	box := modalStyle.Width(modalWidth(m.width)).Render(strings.Join(body, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m *Model) renderTabContents() {
	if len(m.viewports) == 0 {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabCapability].SetContent(renderCapability(m.report, width))
	m.viewports[tabCurve].SetContent(renderCurve(m.report, width, m.cfg.PlotHeight))
	m.viewports[tabScenarios].SetContent(renderScenarios(m.scenarios, m.selected, m.store != nil, width, m.cfg.PlotHeight))
	m.viewports[tabGoalSeek].SetContent(renderGoalSeek(m.cfg, m.report, m.lastSeek))
}

func renderCapability(r stats.Report, width int) string {
	cards := renderSummaryCards(r, width)
	var buf bytes.Buffer
	if err := stats.RenderReport(&buf, r); err != nil {
		return fmt.Sprintf("Failed to render report: %v", err)
	}
	return strings.TrimRight(cards+"\n\n"+buf.String(), "\n")
}

func renderSummaryCards(r stats.Report, width int) string {
	cp, cpk, ppk, sigma, dpmo := "—", "—", "—", "—", "—"
	if c := r.Capability; c != nil {
		cp = fmt.Sprintf("%.3f", c.Cp)
		cpk = fmt.Sprintf("%.3f", c.Cpk)
	}
	if p := r.Performance; p != nil {
		ppk = fmt.Sprintf("%.3f", p.Ppk)
		sigma = fmt.Sprintf("%.2f", p.SigmaLevel)
		dpmo = fmt.Sprintf("%.0f", p.DPMO)
	}
	cards := []string{
		metricCard("Cp", cp),
		metricCard("Cpk", cpk),
		metricCard("Ppk", ppk),
		metricCard("Sigma", sigma),
		metricCard("DPMO", dpmo),
	}
	if width < 80 {
		return strings.Join(cards, "\n")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderCurve(r stats.Report, width, height int) string {
	if r.Capability == nil {
		return "Std must be > 0 and USL must be greater than LSL to draw the curve."
	}
	var buf bytes.Buffer
	err := stats.PlotDistributions(&buf, stats.PlotOptions{
		Bounds:     r.Viewport,
		Curves:     []stats.Curve{{Name: "process", Mean: r.Mean, Std: r.Std}},
		Markers:    specMarkers(r.LSL, r.USL, r.Target),
		Width:      stats.PlotWidthFor(width),
		Height:     height,
		ForceColor: true,
	})
	if err != nil {
		return fmt.Sprintf("Failed to render curve: %v", err)
	}
	bounds := fmt.Sprintf("Viewport: [%s, %s]", formatValue(r.Viewport.DisplayMin), formatValue(r.Viewport.DisplayMax))
	return strings.TrimRight(headerStyle.Render(bounds)+"\n"+buf.String(), "\n")
}

func renderScenarios(scenarios []model.Scenario, selected int, available bool, width, height int) string {
	if !available {
		return "Scenario workspace is not available."
	}
	if len(scenarios) == 0 {
		return "No scenarios saved. Press a to save the current process."
	}
	lines := make([]string, 0, len(scenarios)+1)
	lines = append(lines, mutedStyle.Render(fmt.Sprintf("  %-3s %-16s %10s %10s %10s %10s %8s", "", "Name", "Mean", "Std", "LSL", "USL", "Cpk")))
	curves := make([]stats.Curve, 0, len(scenarios))
	for i, sc := range scenarios {
		mark := "[ ]"
		if sc.Visible {
			mark = "[x]"
			curves = append(curves, stats.Curve{Name: sc.Name, Mean: sc.Mean, Std: sc.Std})
		}
		cpk := "—"
		if c, ok := stats.ComputeStats(sc.Mean, sc.Std, sc.LSL, sc.USL); ok {
			cpk = fmt.Sprintf("%.3f", c.Cpk)
		}
		line := fmt.Sprintf("%-3s %-16s %10s %10s %10s %10s %8s",
			mark, truncateLine(sc.Name, 16), formatValue(sc.Mean), formatValue(sc.Std),
			formatValue(sc.LSL), formatValue(sc.USL), cpk)
		if i == selected {
			lines = append(lines, selectedStyle.Render("> "+line))
		} else {
			lines = append(lines, "  "+line)
		}
	}
	if len(curves) == 0 {
		return strings.Join(lines, "\n") + "\n\nNo visible scenarios."
	}
	var buf bytes.Buffer
	err := stats.PlotDistributions(&buf, stats.PlotOptions{
		Bounds:     viewport.MultiDistribution(scenarios),
		Curves:     curves,
		Width:      stats.PlotWidthFor(width),
		Height:     height,
		ForceColor: true,
	})
	if err != nil {
		return strings.Join(lines, "\n") + fmt.Sprintf("\n\nFailed to render overlay: %v", err)
	}
	return strings.TrimRight(strings.Join(lines, "\n")+"\n\n"+buf.String(), "\n")
}

func renderGoalSeek(cfg model.Config, r stats.Report, last goalseek.Result) string {
	current := "—"
	if r.Capability != nil {
		current = fmt.Sprintf("%.4f", r.Capability.Cpk)
	}
	lines := []string{
		fmt.Sprintf("Target Cpk:  %g", cfg.TargetCpk),
		fmt.Sprintf("Current Cpk: %s", current),
		"",
		"m: solve for mean (std fixed, nearest feasible mean)",
		"s: solve for std (mean fixed, largest std)",
		"t: change target Cpk",
		"",
	}
	switch res := last.(type) {
	case nil:
		lines = append(lines, mutedStyle.Render("No goal seek run yet."))
	case goalseek.Success:
		lines = append(lines, noticeStyle.Render("Success: "+goalseek.Describe(res)))
	case goalseek.Partial:
		lines = append(lines, warningStyle.Render("Partial: "+goalseek.Describe(res)))
	case goalseek.Failure:
		lines = append(lines, errorStyle.Render("Failed: "+goalseek.Describe(res)))
		lines = append(lines, mutedStyle.Render("The process was not changed."))
	}
	return strings.Join(lines, "\n")
}

func specMarkers(lsl, usl float64, target *float64) []stats.Marker {
	markers := []stats.Marker{{Label: "LSL", X: lsl}, {Label: "USL", X: usl}}
	if target != nil {
		markers = append(markers, stats.Marker{Label: "T", X: *target})
	}
	return markers
}

func fitBounds(cfg model.Config) model.ViewportBounds {
	return viewport.FitToMean(cfg.Mean, cfg.Std, cfg.FitMultiplier)
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
