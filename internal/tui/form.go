package tui

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/procap/internal/model"
)

const (
	fieldMean = iota
	fieldStd
	fieldLSL
	fieldUSL
	fieldTarget
	fieldSampleStd
)

// form holds the parameter editor and the single-line prompts.
type form struct {
	mode   inputMode
	inputs []textinput.Model
	index  int
	prompt textinput.Model
	err    string
}

func newForm() form {
	return form{
		inputs: []textinput.Model{
			newInput("Mean: "),
			newInput("Std (σ): "),
			newInput("LSL: "),
			newInput("USL: "),
			newInput("Target (blank for none): "),
			newInput("Sample std (blank for none): "),
		},
		prompt: newInput(""),
	}
}

func newInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (f *form) startEdit(cfg model.Config) tea.Cmd {
	f.mode = modeEdit
	f.err = ""
	f.inputs[fieldMean].SetValue(formatInput(cfg.Mean))
	f.inputs[fieldStd].SetValue(formatInput(cfg.Std))
	f.inputs[fieldLSL].SetValue(formatInput(cfg.LSL))
	f.inputs[fieldUSL].SetValue(formatInput(cfg.USL))
	if cfg.Target != nil {
		f.inputs[fieldTarget].SetValue(formatInput(*cfg.Target))
	} else {
		f.inputs[fieldTarget].SetValue("")
	}
	if cfg.SampleStd > 0 {
		f.inputs[fieldSampleStd].SetValue(formatInput(cfg.SampleStd))
	} else {
		f.inputs[fieldSampleStd].SetValue("")
	}
	return f.focus(0)
}

func (f *form) startPrompt(mode inputMode, value string) tea.Cmd {
	f.mode = mode
	f.err = ""
	switch mode {
	case modeTargetCpk:
		f.prompt.Prompt = "Target Cpk: "
		f.prompt.Placeholder = "1.33"
	case modeScenarioName:
		f.prompt.Prompt = "Name: "
		f.prompt.Placeholder = "line-a"
	}
	f.prompt.SetValue(value)
	return f.prompt.Focus()
}

func (f *form) stop() {
	f.mode = modeNone
	f.err = ""
	f.prompt.Blur()
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
}

func (f *form) focus(idx int) tea.Cmd {
	if f.mode != modeEdit {
		return nil
	}
	count := len(f.inputs)
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	f.index = idx
	var cmd tea.Cmd
	for i := range f.inputs {
		if i == f.index {
			cmd = f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
	return cmd
}

func (f *form) update(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	if f.mode == modeEdit {
		f.inputs[f.index], cmd = f.inputs[f.index].Update(msg)
		return cmd
	}
	f.prompt, cmd = f.prompt.Update(msg)
	return cmd
}

func (f *form) resize(width int) {
	for i := range f.inputs {
		promptWidth := lipgloss.Width(f.inputs[i].Prompt)
		f.inputs[i].Width = maxInt(10, width-promptWidth-2)
	}
	promptWidth := lipgloss.Width(f.prompt.Prompt)
	f.prompt.Width = maxInt(10, modalInnerWidth(width)-promptWidth)
}

// applyEdit returns cfg with the edited process values.
func (f *form) applyEdit(cfg model.Config) (model.Config, error) {
	mean, err := parseRequired(f.inputs[fieldMean].Value(), "mean")
	if err != nil {
		return cfg, err
	}
	std, err := parseRequired(f.inputs[fieldStd].Value(), "std")
	if err != nil {
		return cfg, err
	}
	lsl, err := parseRequired(f.inputs[fieldLSL].Value(), "LSL")
	if err != nil {
		return cfg, err
	}
	usl, err := parseRequired(f.inputs[fieldUSL].Value(), "USL")
	if err != nil {
		return cfg, err
	}
	target, err := parseOptional(f.inputs[fieldTarget].Value(), "target")
	if err != nil {
		return cfg, err
	}
	sampleStd, err := parseOptional(f.inputs[fieldSampleStd].Value(), "sample std")
	if err != nil {
		return cfg, err
	}
	cfg.Mean = mean
	cfg.Std = std
	cfg.LSL = lsl
	cfg.USL = usl
	cfg.Target = target
	cfg.SampleStd = 0
	if sampleStd != nil {
		cfg.SampleStd = *sampleStd
	}
	return cfg, nil
}

func (f *form) targetCpk() (float64, error) {
	v, err := parseRequired(f.prompt.Value(), "target Cpk")
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, fmt.Errorf("invalid target Cpk (use a number > 0)")
	}
	return v, nil
}

func (f *form) view() string {
	lines := []string{"Process (tab: next field, enter: apply, esc: cancel)"}
	for _, input := range f.inputs {
		lines = append(lines, input.View())
	}
	if f.err != "" {
		lines = append(lines, errorStyle.Render(f.err))
	}
	return strings.Join(lines, "\n")
}

func parseRequired(raw, name string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%s must not be empty", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid %s (use a finite number)", name)
	}
	return v, nil
}

func parseOptional(raw, name string) (*float64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	v, err := parseRequired(raw, name)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func formatInput(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
