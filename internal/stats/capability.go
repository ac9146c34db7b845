// Package stats contains capability calculations and reporting.
package stats

import (
	"math"

	"github.com/verte-zerg/procap/internal/model"
	"github.com/verte-zerg/procap/internal/normal"
)

const (
	opportunities  = 1_000_000.0
	sigmaCeiling   = 6.0
	percentScaling = 100.0
)

// ValidParams reports whether the inputs describe a usable process:
// all finite, std > 0 and usl > lsl.
func ValidParams(mean, std, lsl, usl float64) bool {
	for _, v := range []float64{mean, std, lsl, usl} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return std > 0 && usl > lsl
}

// ComputeStats returns Cp, Cpk and the tail percentages for a Normal process.
// The boolean is false when the inputs are invalid.
func ComputeStats(mean, std, lsl, usl float64) (model.CapabilityResult, bool) {
	if !ValidParams(mean, std, lsl, usl) {
		return model.CapabilityResult{}, false
	}
	cp := (usl - lsl) / (6 * std)
	cpu := (usl - mean) / (3 * std)
	cpl := (mean - lsl) / (3 * std)

	phiL := normal.Phi((lsl - mean) / std)
	phiU := normal.Phi((usl - mean) / std)
	pctInside := (phiU - phiL) * percentScaling

	return model.CapabilityResult{
		Cp:         cp,
		Cpk:        math.Min(cpu, cpl),
		PctBelow:   phiL * percentScaling,
		PctAbove:   (1 - phiU) * percentScaling,
		PctInside:  pctInside,
		PctOutside: percentScaling - pctInside,
	}, true
}

// ComputeAdvancedStats returns Pp, Ppk, DPMO, sigma level and, when target is
// finite, Cpm. Pp and Ppk use sampleStd when it is positive, otherwise std.
// DPMO and sigma level always use std.
func ComputeAdvancedStats(mean, std, lsl, usl, sampleStd float64, target *float64) (model.PerformanceResult, bool) {
	if !ValidParams(mean, std, lsl, usl) {
		return model.PerformanceResult{}, false
	}
	spread := std
	if sampleStd > 0 {
		spread = sampleStd
	}
	pp := (usl - lsl) / (6 * spread)
	ppu := (usl - mean) / (3 * spread)
	ppl := (mean - lsl) / (3 * spread)

	zL := (lsl - mean) / std
	zU := (usl - mean) / std
	pctOutside := (normal.Phi(zL) + (1 - normal.Phi(zU))) * percentScaling
	dpmo := pctOutside / percentScaling * opportunities

	res := model.PerformanceResult{
		Pp:         pp,
		Ppk:        math.Min(ppu, ppl),
		DPMO:       dpmo,
		SigmaLevel: SigmaLevel(dpmo),
	}
	if target != nil && !math.IsNaN(*target) && !math.IsInf(*target, 0) {
		dev := mean - *target
		tau := math.Sqrt(std*std + dev*dev)
		cpm := (usl - lsl) / (6 * tau)
		res.Cpm = &cpm
	}
	return res, true
}

// SigmaLevel converts a defect rate to a sigma level using the two-tailed
// split of the defect probability.
func SigmaLevel(dpmo float64) float64 {
	if dpmo <= 0 {
		return sigmaCeiling
	}
	if dpmo >= opportunities {
		return 0
	}
	oneTail := dpmo / opportunities / 2
	return math.Max(0, normal.InverseNormal(1-oneTail))
}
