// Package model defines shared data structures.
package model

import "time"

// DistributionParameters describes one Normal process against its spec limits.
type DistributionParameters struct {
	Mean   float64
	Std    float64
	LSL    float64
	USL    float64
	Target *float64
}

// CapabilityResult holds the short-term capability indices and tail percentages.
type CapabilityResult struct {
	Cp         float64 `json:"cp"`
	Cpk        float64 `json:"cpk"`
	PctOutside float64 `json:"pctOutside"`
	PctInside  float64 `json:"pctInside"`
	PctAbove   float64 `json:"pctAbove"`
	PctBelow   float64 `json:"pctBelow"`
}

// PerformanceResult holds the performance indices and Six-Sigma metrics.
// Cpm is nil unless a finite target was supplied.
type PerformanceResult struct {
	Pp         float64  `json:"pp"`
	Ppk        float64  `json:"ppk"`
	DPMO       float64  `json:"dpmo"`
	SigmaLevel float64  `json:"sigmaLevel"`
	Cpm        *float64 `json:"cpm,omitempty"`
}

// DescriptiveStats summarizes a raw sample.
type DescriptiveStats struct {
	Mean      float64 `json:"mean"`
	Std       float64 `json:"std"`
	SampleStd float64 `json:"sampleStd"`
}

// Bin is a single histogram bucket covering [Start, End).
type Bin struct {
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Count     int     `json:"count"`
	Frequency float64 `json:"frequency"`
}

// Histogram is a fixed-count binning of a sample.
type Histogram struct {
	Bins []Bin   `json:"bins"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// ViewportBounds is a display range for chart axes.
type ViewportBounds struct {
	DisplayMin float64 `json:"displayMin"`
	DisplayMax float64 `json:"displayMax"`
}

// Scenario is a named distribution kept in the workspace.
type Scenario struct {
	ID        int64     `yaml:"-"`
	Name      string    `yaml:"name"`
	Mean      float64   `yaml:"mean"`
	Std       float64   `yaml:"std"`
	LSL       float64   `yaml:"lsl"`
	USL       float64   `yaml:"usl"`
	Target    *float64  `yaml:"target,omitempty"`
	Visible   bool      `yaml:"visible"`
	CreatedAt time.Time `yaml:"-"`
}

// Params returns the scenario's distribution parameters.
func (s Scenario) Params() DistributionParameters {
	return DistributionParameters{
		Mean:   s.Mean,
		Std:    s.Std,
		LSL:    s.LSL,
		USL:    s.USL,
		Target: s.Target,
	}
}

// Config defines the process settings used by the CLI and explorer.
type Config struct {
	Mean          float64
	Std           float64
	LSL           float64
	USL           float64
	Target        *float64
	SampleStd     float64
	Bins          int
	FitMultiplier float64
	PlotHeight    int
	TargetCpk     float64
}
