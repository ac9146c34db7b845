// Package goalseek solves for the mean or standard deviation that reaches a
// target Cpk.
package goalseek

import (
	"fmt"
	"math"
)

const (
	// cpkTolerance is the largest acceptable gap between target and achieved Cpk.
	cpkTolerance    = 0.01
	minPracticalStd = 0.0001
)

// Param names the distribution parameter a solver adjusts.
type Param string

// Solver parameters.
const (
	ParamMean Param = "mean"
	ParamStd  Param = "std"
)

// Result is the outcome of a solve: Success, Partial or Failure.
type Result interface {
	isResult()
}

// Success means Value reaches the target Cpk and may be applied directly.
type Success struct {
	Param       Param   `json:"param"`
	Value       float64 `json:"value"`
	AchievedCpk float64 `json:"achievedCpk"`
}

// Partial means Value is the best solution but misses the target by more
// than the tolerance. It may be applied alongside Warning.
type Partial struct {
	Param       Param   `json:"param"`
	Value       float64 `json:"value"`
	AchievedCpk float64 `json:"achievedCpk"`
	Warning     string  `json:"warning"`
}

// Failure means no value was found. Fallback, when set, is the best value
// available instead.
type Failure struct {
	Param    Param     `json:"param"`
	Err      string    `json:"error"`
	Fallback *Fallback `json:"fallback,omitempty"`
}

// Fallback is a suggested value and the Cpk it yields.
type Fallback struct {
	Value       float64 `json:"value"`
	AchievedCpk float64 `json:"achievedCpk"`
}

func (Success) isResult() {}
func (Partial) isResult() {}
func (Failure) isResult() {}

// Error implements error so a Failure can be returned up a call chain.
func (f Failure) Error() string {
	return f.Err
}

// CalculateCpk returns min(cpu, cpl), or 0 when std <= 0 or usl <= lsl.
func CalculateCpk(mean, std, lsl, usl float64) float64 {
	if std <= 0 || usl <= lsl {
		return 0
	}
	cpu := (usl - mean) / (3 * std)
	cpl := (mean - lsl) / (3 * std)
	return math.Min(cpu, cpl)
}

// SolveForMean finds the mean that reaches targetCpk with std held fixed.
// When currentMean is given the nearest feasible mean is chosen, otherwise the
// center of the feasible interval.
func SolveForMean(targetCpk, lsl, usl, std float64, currentMean *float64) Result {
	if !finite(targetCpk) || targetCpk <= 0 {
		return Failure{Param: ParamMean, Err: "target Cpk must be a positive number"}
	}
	if !finite(std) || std <= 0 {
		return Failure{Param: ParamMean, Err: "standard deviation must be a positive number"}
	}
	if !finite(lsl) || !finite(usl) || usl <= lsl {
		return Failure{Param: ParamMean, Err: "LSL and USL must be finite with USL greater than LSL"}
	}

	minMean := lsl + 3*targetCpk*std
	maxMean := usl - 3*targetCpk*std
	if minMean > maxMean {
		center := (lsl + usl) / 2
		best := CalculateCpk(center, std, lsl, usl)
		msg := fmt.Sprintf("target Cpk %.2f is not achievable with std %.4g: the maximum achievable Cpk is %.2f with a centered mean",
			targetCpk, std, best)
		return Failure{
			Param:    ParamMean,
			Err:      msg,
			Fallback: &Fallback{Value: center, AchievedCpk: best},
		}
	}

	mean := (minMean + maxMean) / 2
	if currentMean != nil && finite(*currentMean) {
		mean = math.Min(math.Max(*currentMean, minMean), maxMean)
	}
	return verify(ParamMean, mean, targetCpk, CalculateCpk(mean, std, lsl, usl))
}

// SolveForStd finds the largest std that reaches targetCpk with the mean held
// fixed. The mean must lie strictly inside the spec limits.
func SolveForStd(targetCpk, mean, lsl, usl float64) Result {
	if !finite(targetCpk) || targetCpk <= 0 {
		return Failure{Param: ParamStd, Err: "target Cpk must be a positive number"}
	}
	if !finite(mean) {
		return Failure{Param: ParamStd, Err: "mean must be a finite number"}
	}
	if !finite(lsl) || !finite(usl) || usl <= lsl {
		return Failure{Param: ParamStd, Err: "LSL and USL must be finite with USL greater than LSL"}
	}
	if mean <= lsl {
		return Failure{Param: ParamStd, Err: "mean must be greater than LSL"}
	}
	if mean >= usl {
		return Failure{Param: ParamStd, Err: "mean must be less than USL"}
	}

	fromUpper := (usl - mean) / (3 * targetCpk)
	fromLower := (mean - lsl) / (3 * targetCpk)
	std := math.Min(fromUpper, fromLower)

	if std < minPracticalStd {
		return Failure{
			Param: ParamStd,
			Err:   fmt.Sprintf("required standard deviation %.6g is too small to be practical", std),
		}
	}
	if std > (usl-lsl)/2 {
		return Failure{
			Param: ParamStd,
			Err:   fmt.Sprintf("required standard deviation %.4g is excessively large; consider adjusting the mean instead", std),
		}
	}
	return Success{Param: ParamStd, Value: std, AchievedCpk: CalculateCpk(mean, std, lsl, usl)}
}

// Describe returns a one-line summary of r for display.
func Describe(r Result) string {
	switch v := r.(type) {
	case Success:
		return fmt.Sprintf("%s = %.6g (Cpk %.4f)", v.Param, v.Value, v.AchievedCpk)
	case Partial:
		return fmt.Sprintf("%s = %.6g (Cpk %.4f), warning: %s", v.Param, v.Value, v.AchievedCpk, v.Warning)
	case Failure:
		if v.Fallback != nil {
			return fmt.Sprintf("%s: %s; best available %s = %.6g (Cpk %.4f)",
				v.Param, v.Err, v.Param, v.Fallback.Value, v.Fallback.AchievedCpk)
		}
		return fmt.Sprintf("%s: %s", v.Param, v.Err)
	}
	return ""
}

func verify(param Param, value, target, achieved float64) Result {
	if math.Abs(achieved-target) > cpkTolerance {
		return Partial{
			Param:       param,
			Value:       value,
			AchievedCpk: achieved,
			Warning:     fmt.Sprintf("achieved Cpk %.4f differs from target %.4f", achieved, target),
		}
	}
	return Success{Param: param, Value: value, AchievedCpk: achieved}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
