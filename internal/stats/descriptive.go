package stats

import (
	"math"
	"strings"

	moremath "github.com/aclements/go-moremath/stats"

	"github.com/verte-zerg/procap/internal/model"
)

// DefaultBins is the histogram bin count used when none is given.
const DefaultBins = 20

// CalculateDescriptiveStats returns the mean, population std and sample std of
// data. The boolean is false for an empty sample.
func CalculateDescriptiveStats(data []float64) (model.DescriptiveStats, bool) {
	n := len(data)
	if n == 0 {
		return model.DescriptiveStats{}, false
	}
	sample := moremath.Sample{Xs: data}
	mean := sample.Mean()
	if n == 1 {
		return model.DescriptiveStats{Mean: mean}, true
	}
	variance := sample.Variance()
	return model.DescriptiveStats{
		Mean:      mean,
		Std:       math.Sqrt(variance * float64(n-1) / float64(n)),
		SampleStd: sample.StdDev(),
	}, true
}

// GenerateHistogram bins data into numBins equal-width buckets between the
// sample min and max. The max value lands in the last bin.
func GenerateHistogram(data []float64, numBins int) model.Histogram {
	if len(data) == 0 {
		return model.Histogram{Bins: []model.Bin{}}
	}
	if numBins <= 0 {
		numBins = DefaultBins
	}
	minVal, maxVal := data[0], data[0]
	for _, v := range data[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	nb := float64(numBins)
	// A span wider than MaxFloat64 is scaled before subtracting.
	wide := math.IsInf(maxVal-minVal, 0)
	binWidth := (maxVal - minVal) / nb
	if wide {
		binWidth = maxVal/nb - minVal/nb
	}
	edge := func(i int) float64 {
		if wide {
			t := float64(i) / nb
			return minVal*(1-t) + maxVal*t
		}
		return minVal + float64(i)*binWidth
	}
	offset := func(v float64) float64 {
		if wide {
			return v/binWidth - minVal/binWidth
		}
		return (v - minVal) / binWidth
	}

	bins := make([]model.Bin, numBins)
	for i := range bins {
		bins[i].Start = edge(i)
		bins[i].End = edge(i + 1)
	}
	for _, v := range data {
		idx := 0
		if binWidth > 0 {
			idx = int(math.Floor(offset(v)))
		}
		if idx >= numBins {
			idx = numBins - 1
		}
		if idx < 0 {
			idx = 0
		}
		bins[idx].Count++
	}
	total := float64(len(data))
	for i := range bins {
		bins[i].Frequency = float64(bins[i].Count) / total
	}
	return model.Histogram{Bins: bins, Min: minVal, Max: maxVal}
}

// HistogramCounts returns the bin counts as floats, in bin order.
func HistogramCounts(h model.Histogram) []float64 {
	out := make([]float64, len(h.Bins))
	for i, b := range h.Bins {
		out[i] = float64(b.Count)
	}
	return out
}

const sparkChars = " .:-=+*#%@"

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}
