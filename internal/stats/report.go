package stats

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/verte-zerg/procap/internal/model"
	"github.com/verte-zerg/procap/internal/viewport"
)

// Report bundles every metric computed for one process.
// Capability and Performance are nil when the inputs are invalid.
type Report struct {
	Mean        float64                  `json:"mean"`
	Std         float64                  `json:"std"`
	LSL         float64                  `json:"lsl"`
	USL         float64                  `json:"usl"`
	Target      *float64                 `json:"target,omitempty"`
	SampleStd   float64                  `json:"sampleStd,omitempty"`
	Capability  *model.CapabilityResult  `json:"capability"`
	Performance *model.PerformanceResult `json:"performance"`
	Viewport    model.ViewportBounds     `json:"viewport"`
	Data        *model.DescriptiveStats  `json:"data,omitempty"`
	Histogram   *model.Histogram         `json:"histogram,omitempty"`
}

// BuildReport computes capability, performance and the hybrid viewport.
func BuildReport(p model.DistributionParameters, sampleStd float64) Report {
	r := Report{
		Mean:      p.Mean,
		Std:       p.Std,
		LSL:       p.LSL,
		USL:       p.USL,
		Target:    p.Target,
		SampleStd: sampleStd,
		Viewport:  viewport.Hybrid(p.Mean, p.Std, p.LSL, p.USL),
	}
	if c, ok := ComputeStats(p.Mean, p.Std, p.LSL, p.USL); ok {
		r.Capability = &c
	}
	if perf, ok := ComputeAdvancedStats(p.Mean, p.Std, p.LSL, p.USL, sampleStd, p.Target); ok {
		r.Performance = &perf
	}
	return r
}

// BuildDataReport computes a report from a raw sample: the sample's mean and
// population std describe the process, and the n-1 std feeds Pp/Ppk.
// The boolean is false for an empty sample.
func BuildDataReport(data []float64, lsl, usl float64, target *float64, bins int) (Report, bool) {
	ds, ok := CalculateDescriptiveStats(data)
	if !ok {
		return Report{}, false
	}
	r := BuildReport(model.DistributionParameters{
		Mean:   ds.Mean,
		Std:    ds.Std,
		LSL:    lsl,
		USL:    usl,
		Target: target,
	}, ds.SampleStd)
	hist := GenerateHistogram(data, bins)
	r.Data = &ds
	r.Histogram = &hist
	return r, true
}

// RenderReport prints the process inputs and every metric as tables.
// Metrics that cannot be computed are shown as a placeholder.
func RenderReport(w io.Writer, r Report) error {
	target := placeholder
	if r.Target != nil {
		target = formatNumber(*r.Target)
	}
	inputs := [][]string{
		{"Mean", formatNumber(r.Mean)},
		{"Std (σ)", formatNumber(r.Std)},
		{"LSL", formatNumber(r.LSL)},
		{"USL", formatNumber(r.USL)},
		{"Target", target},
	}
	if r.SampleStd > 0 {
		inputs = append(inputs, []string{"Sample std", formatNumber(r.SampleStd)})
	}
	if err := writeTable(w, "Process", nil, inputs, map[int]bool{1: true}); err != nil {
		return err
	}

	cp, cpk, inside, outside, above, below := placeholder, placeholder, placeholder, placeholder, placeholder, placeholder
	if c := r.Capability; c != nil {
		cp, cpk = formatIndex(c.Cp), formatIndex(c.Cpk)
		inside, outside = formatPercent(c.PctInside), formatPercent(c.PctOutside)
		above, below = formatPercent(c.PctAbove), formatPercent(c.PctBelow)
	}
	pp, ppk, cpm, dpmo, sigma := placeholder, placeholder, placeholder, placeholder, placeholder
	if p := r.Performance; p != nil {
		pp, ppk = formatIndex(p.Pp), formatIndex(p.Ppk)
		dpmo = humanize.CommafWithDigits(p.DPMO, 1)
		sigma = formatIndex(p.SigmaLevel)
		if p.Cpm != nil {
			cpm = formatIndex(*p.Cpm)
		}
	}
	metrics := [][]string{
		{"Cp", cp},
		{"Cpk", cpk},
		{"Pp", pp},
		{"Ppk", ppk},
		{"Cpm", cpm},
		{"DPMO", dpmo},
		{"Sigma level", sigma},
	}
	if err := writeTable(w, "Capability", []string{"Metric", "Value"}, metrics, map[int]bool{1: true}); err != nil {
		return err
	}
	tails := [][]string{
		{"Inside spec", inside},
		{"Outside spec", outside},
		{"Above USL", above},
		{"Below LSL", below},
	}
	if err := writeTable(w, "Yield", []string{"Region", "Share"}, tails, map[int]bool{1: true}); err != nil {
		return err
	}
	if r.Data != nil && r.Histogram != nil {
		return RenderDescriptive(w, *r.Data, *r.Histogram)
	}
	return nil
}

// RenderDescriptive prints sample statistics and the histogram bins.
func RenderDescriptive(w io.Writer, ds model.DescriptiveStats, h model.Histogram) error {
	n := 0
	for _, b := range h.Bins {
		n += b.Count
	}
	summary := [][]string{
		{"N", humanize.Comma(int64(n))},
		{"Mean", formatNumber(ds.Mean)},
		{"Std (population)", formatNumber(ds.Std)},
		{"Std (sample)", formatNumber(ds.SampleStd)},
		{"Min", formatNumber(h.Min)},
		{"Max", formatNumber(h.Max)},
	}
	if err := writeTable(w, "Sample", nil, summary, map[int]bool{1: true}); err != nil {
		return err
	}
	rows := make([][]string, 0, len(h.Bins))
	for i, b := range h.Bins {
		closing := ")"
		if i == len(h.Bins)-1 {
			closing = "]"
		}
		rows = append(rows, []string{
			fmt.Sprintf("[%s, %s%s", formatNumber(b.Start), formatNumber(b.End), closing),
			humanize.Comma(int64(b.Count)),
			formatPercent(b.Frequency * percentScaling),
		})
	}
	if err := writeTable(w, "Histogram", []string{"Bin", "Count", "Freq"}, rows, map[int]bool{1: true, 2: true}); err != nil {
		return err
	}
	if len(h.Bins) == 0 {
		return nil
	}
	_, err := fmt.Fprintf(w, "Shape: %s\n\n", Sparkline(HistogramCounts(h)))
	return err
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func formatIndex(v float64) string {
	return fmt.Sprintf("%.3f", v)
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.4f%%", v)
}

// RenderScenarios prints one row per scenario with its Cp and Cpk.
func RenderScenarios(w io.Writer, scenarios []model.Scenario) error {
	rows := make([][]string, 0, len(scenarios))
	for _, sc := range scenarios {
		visible := "no"
		if sc.Visible {
			visible = "yes"
		}
		target := placeholder
		if sc.Target != nil {
			target = formatNumber(*sc.Target)
		}
		cp, cpk := placeholder, placeholder
		if c, ok := ComputeStats(sc.Mean, sc.Std, sc.LSL, sc.USL); ok {
			cp, cpk = formatIndex(c.Cp), formatIndex(c.Cpk)
		}
		rows = append(rows, []string{
			sc.Name,
			formatNumber(sc.Mean),
			formatNumber(sc.Std),
			formatNumber(sc.LSL),
			formatNumber(sc.USL),
			target,
			cp,
			cpk,
			visible,
		})
	}
	headers := []string{"Name", "Mean", "Std", "LSL", "USL", "Target", "Cp", "Cpk", "Visible"}
	right := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true, 6: true, 7: true}
	return writeTable(w, "Scenarios", headers, rows, right)
}
