// Package generator builds synthetic measurement samples.
package generator

import (
	"math"
	"math/rand"
	"time"
)

// Generator produces Normal-distributed samples.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a Generator with a fixed seed for reproducible samples.
func NewSeeded(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Normal draws count values from N(mean, std²).
func (g *Generator) Normal(count int, mean, std float64) []float64 {
	if count <= 0 {
		return nil
	}
	out := make([]float64, count)
	for i := range out {
		out[i] = mean + std*g.rnd.NormFloat64()
	}
	return out
}

// NormalWithDrift draws count values whose mean moves linearly by drift over
// the whole sample, as a slowly shifting process would produce.
func (g *Generator) NormalWithDrift(count int, mean, std, drift float64) []float64 {
	if count <= 0 {
		return nil
	}
	out := make([]float64, count)
	for i := range out {
		shift := 0.0
		if count > 1 {
			shift = drift * float64(i) / float64(count-1)
		}
		out[i] = mean + shift + std*g.rnd.NormFloat64()
	}
	return out
}

// Round rounds every value to the given number of decimals, mimicking the
// resolution of a measuring instrument. Negative decimals leave values as is.
func Round(values []float64, decimals int) []float64 {
	if decimals < 0 {
		return values
	}
	scale := math.Pow(10, float64(decimals))
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = math.Round(v*scale) / scale
	}
	return out
}
