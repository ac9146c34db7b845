package stats

import (
	"math"
	"testing"
)

func TestComputeStatsCentered(t *testing.T) {
	res, ok := ComputeStats(0, 1, -3, 3)
	if !ok {
		t.Fatalf("expected valid result")
	}
	if math.Abs(res.Cp-1) > 1e-12 || math.Abs(res.Cpk-1) > 1e-12 {
		t.Fatalf("expected cp=cpk=1, got cp=%v cpk=%v", res.Cp, res.Cpk)
	}
	if math.Abs(res.PctOutside-0.26998) > 1e-4 {
		t.Fatalf("expected pctOutside ~ 0.26998, got %v", res.PctOutside)
	}
	if math.Abs(res.PctInside-99.73) > 1e-2 {
		t.Fatalf("expected pctInside ~ 99.73, got %v", res.PctInside)
	}
	if math.Abs(res.PctAbove-0.13499) > 1e-4 || math.Abs(res.PctBelow-0.13499) > 1e-4 {
		t.Fatalf("expected symmetric tails ~ 0.13499, got above=%v below=%v", res.PctAbove, res.PctBelow)
	}
}

func TestComputeStatsPercentagesSum(t *testing.T) {
	cases := [][4]float64{
		{0, 1, -3, 3},
		{1.2, 0.4, 0, 2},
		{-40, 7, -60, -5},
		{1000, 25, 900, 1200},
		{5, 3, 4.9, 5.1},
	}
	for _, c := range cases {
		res, ok := ComputeStats(c[0], c[1], c[2], c[3])
		if !ok {
			t.Fatalf("%v: expected valid result", c)
		}
		if sum := res.PctBelow + res.PctAbove + res.PctInside; math.Abs(sum-100) > 1e-6 {
			t.Fatalf("%v: expected tails and inside to sum to 100, got %v", c, sum)
		}
		if res.PctOutside+res.PctInside != 100 {
			t.Fatalf("%v: expected outside+inside == 100, got %v", c, res.PctOutside+res.PctInside)
		}
	}
}

func TestComputeStatsOffCenterUsesBottleneck(t *testing.T) {
	res, ok := ComputeStats(1, 1, -3, 3)
	if !ok {
		t.Fatalf("expected valid result")
	}
	if math.Abs(res.Cpk-2.0/3.0) > 1e-12 {
		t.Fatalf("expected cpk from upper side 0.6667, got %v", res.Cpk)
	}
	if res.PctAbove <= res.PctBelow {
		t.Fatalf("expected more mass above when shifted up, above=%v below=%v", res.PctAbove, res.PctBelow)
	}
}

func TestComputeStatsInvalid(t *testing.T) {
	cases := []struct {
		name                string
		mean, std, lsl, usl float64
	}{
		{"zero std", 0, 0, -3, 3},
		{"zero std shifted", 12, 0, 1, 100},
		{"negative std", 0, -1, -3, 3},
		{"inverted limits", 0, 1, 2, -2},
		{"equal limits", 0, 1, 2, 2},
		{"nan mean", math.NaN(), 1, -3, 3},
		{"inf usl", 0, 1, -3, math.Inf(1)},
	}
	for _, tc := range cases {
		if _, ok := ComputeStats(tc.mean, tc.std, tc.lsl, tc.usl); ok {
			t.Fatalf("%s: expected invalid result", tc.name)
		}
		if _, ok := ComputeAdvancedStats(tc.mean, tc.std, tc.lsl, tc.usl, 0, nil); ok {
			t.Fatalf("%s: expected invalid advanced result", tc.name)
		}
	}
}

func TestComputeAdvancedStatsUsesSampleStdForPp(t *testing.T) {
	res, ok := ComputeAdvancedStats(0, 1, -3, 3, 1.5, nil)
	if !ok {
		t.Fatalf("expected valid result")
	}
	if math.Abs(res.Pp-6.0/9.0) > 1e-12 || math.Abs(res.Ppk-6.0/9.0) > 1e-12 {
		t.Fatalf("expected pp=ppk=0.6667 from sample std, got pp=%v ppk=%v", res.Pp, res.Ppk)
	}
	// DPMO stays on the population std.
	if math.Abs(res.DPMO-2699.8) > 1 {
		t.Fatalf("expected dpmo ~ 2700, got %v", res.DPMO)
	}
	if res.Cpm != nil {
		t.Fatalf("expected no cpm without target")
	}
}

func TestComputeAdvancedStatsFallsBackToStd(t *testing.T) {
	for _, sample := range []float64{0, -2, math.NaN()} {
		res, ok := ComputeAdvancedStats(0, 1, -3, 3, sample, nil)
		if !ok {
			t.Fatalf("expected valid result")
		}
		if math.Abs(res.Pp-1) > 1e-12 {
			t.Fatalf("sample=%v: expected pp=1 from population std, got %v", sample, res.Pp)
		}
	}
}

func TestComputeAdvancedStatsSigmaLevel(t *testing.T) {
	res, ok := ComputeAdvancedStats(0, 1, -3, 3, 0, nil)
	if !ok {
		t.Fatalf("expected valid result")
	}
	if math.Abs(res.SigmaLevel-3) > 1e-3 {
		t.Fatalf("expected sigma level ~ 3, got %v", res.SigmaLevel)
	}
}

func TestComputeAdvancedStatsCpm(t *testing.T) {
	target := 1.0
	res, ok := ComputeAdvancedStats(0, 1, -3, 3, 0, &target)
	if !ok {
		t.Fatalf("expected valid result")
	}
	if res.Cpm == nil {
		t.Fatalf("expected cpm with target")
	}
	want := 6 / (6 * math.Sqrt2)
	if math.Abs(*res.Cpm-want) > 1e-12 {
		t.Fatalf("expected cpm %v, got %v", want, *res.Cpm)
	}
	bad := math.Inf(1)
	res, _ = ComputeAdvancedStats(0, 1, -3, 3, 0, &bad)
	if res.Cpm != nil {
		t.Fatalf("expected no cpm for non-finite target")
	}
}

func TestSigmaLevelBoundaries(t *testing.T) {
	if got := SigmaLevel(0); got != 6 {
		t.Fatalf("expected 6 at zero dpmo, got %v", got)
	}
	if got := SigmaLevel(-1); got != 6 {
		t.Fatalf("expected 6 at negative dpmo, got %v", got)
	}
	if got := SigmaLevel(1_000_000); got != 0 {
		t.Fatalf("expected 0 at full defect rate, got %v", got)
	}
	if got := SigmaLevel(999_999); got < 0 || got > 1e-5 {
		t.Fatalf("expected sigma level near 0, got %v", got)
	}
}

func TestCalculatorsAreDeterministic(t *testing.T) {
	target := 0.2
	a, _ := ComputeAdvancedStats(0.13, 0.91, -2.5, 3.1, 1.02, &target)
	b, _ := ComputeAdvancedStats(0.13, 0.91, -2.5, 3.1, 1.02, &target)
	if a.Pp != b.Pp || a.Ppk != b.Ppk || a.DPMO != b.DPMO || a.SigmaLevel != b.SigmaLevel || *a.Cpm != *b.Cpm {
		t.Fatalf("expected identical results, got %+v and %+v", a, b)
	}
	c, _ := ComputeStats(0.13, 0.91, -2.5, 3.1)
	d, _ := ComputeStats(0.13, 0.91, -2.5, 3.1)
	if c != d {
		t.Fatalf("expected identical capability results")
	}
}
