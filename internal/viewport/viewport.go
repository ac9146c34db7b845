// Package viewport derives chart display ranges from distribution parameters.
package viewport

import (
	"math"

	"github.com/verte-zerg/procap/internal/model"
)

const (
	sigmaSpan   = 6.0
	specPadding = 0.1
)

// Default is the range used when nothing sensible can be derived.
var Default = model.ViewportBounds{DisplayMin: -6, DisplayMax: 6}

// Hybrid returns the wider of mean±6σ and the padded spec limits.
func Hybrid(mean, std, lsl, usl float64) model.ViewportBounds {
	if !finite(mean) || !finite(std) || std <= 0 {
		return Default
	}
	meanMin := mean - sigmaSpan*std
	meanMax := mean + sigmaSpan*std

	specMin := meanMin
	if finite(lsl) {
		specMin = padLower(lsl)
	}
	specMax := meanMax
	if finite(usl) {
		specMax = padUpper(usl)
	}

	lo := math.Min(meanMin, specMin)
	hi := math.Max(meanMax, specMax)
	if !finite(lo) || !finite(hi) || lo >= hi {
		return model.ViewportBounds{DisplayMin: meanMin, DisplayMax: meanMax}
	}
	return model.ViewportBounds{DisplayMin: lo, DisplayMax: hi}
}

// FitToMean returns mean±multiplier·σ.
func FitToMean(mean, std, multiplier float64) model.ViewportBounds {
	if !finite(mean) || !finite(std) || std <= 0 {
		return Default
	}
	if !finite(multiplier) || multiplier <= 0 {
		return model.ViewportBounds{DisplayMin: mean - sigmaSpan, DisplayMax: mean + sigmaSpan}
	}
	return model.ViewportBounds{DisplayMin: mean - multiplier*std, DisplayMax: mean + multiplier*std}
}

// MultiDistribution returns the union of the hybrid viewports of all visible
// scenarios, or Default when none are visible.
func MultiDistribution(scenarios []model.Scenario) model.ViewportBounds {
	out := Default
	seen := false
	for _, s := range scenarios {
		if !s.Visible {
			continue
		}
		b := Hybrid(s.Mean, s.Std, s.LSL, s.USL)
		if !seen {
			out = b
			seen = true
			continue
		}
		out.DisplayMin = math.Min(out.DisplayMin, b.DisplayMin)
		out.DisplayMax = math.Max(out.DisplayMax, b.DisplayMax)
	}
	return out
}

// padLower pushes a lower limit 10% away from zero on the negative side and
// 10% toward zero on the positive side.
func padLower(v float64) float64 {
	if v < 0 {
		return v * (1 + specPadding)
	}
	return v * (1 - specPadding)
}

func padUpper(v float64) float64 {
	if v < 0 {
		return v * (1 - specPadding)
	}
	return v * (1 + specPadding)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
