// Package normal implements the standard Normal distribution primitives.
package normal

import "math"

// Abramowitz-Stegun 7.1.26 coefficients.
const (
	erfA1 = 0.254829592
	erfA2 = -0.284496736
	erfA3 = 1.421413741
	erfA4 = -1.453152027
	erfA5 = 1.061405429
	erfP  = 0.3275911
)

// Beasley-Springer-Moro coefficients.
var (
	bsmA = [4]float64{2.50662823884, -18.61500062529, 41.39119773534, -25.44106049637}
	bsmB = [4]float64{-8.47351093090, 23.08336743743, -21.06224101826, 3.13082909833}
	bsmC = [9]float64{
		0.3374754822726147, 0.9761690190917186, 0.1607979714918209,
		0.0276438810333863, 0.0038405729373609, 0.0003951896511919,
		0.0000321767881768, 0.0000002888167364, 0.0000003960315187,
	}
)

// Erf approximates the error function to about 1.5e-7.
func Erf(x float64) float64 {
	sign := 1.0
	if x < 0 {
		sign = -1.0
	}
	x = math.Abs(x)
	t := 1.0 / (1.0 + erfP*x)
	y := 1.0 - (((((erfA5*t+erfA4)*t)+erfA3)*t+erfA2)*t+erfA1)*t*math.Exp(-x*x)
	return sign * y
}

// Phi is the standard Normal CDF.
func Phi(x float64) float64 {
	return 0.5 * (1 + Erf(x/math.Sqrt2))
}

// PDF is the Normal density with the given mean and standard deviation.
func PDF(x, mean, std float64) float64 {
	if std <= 0 {
		return 0
	}
	z := (x - mean) / std
	return math.Exp(-0.5*z*z) / (std * math.Sqrt(2*math.Pi))
}

// InverseNormal returns z such that Phi(z) is approximately p.
// It returns -Inf for p <= 0 and +Inf for p >= 1.
func InverseNormal(p float64) float64 {
	if p <= 0 {
		return math.Inf(-1)
	}
	if p >= 1 {
		return math.Inf(1)
	}
	y := p - 0.5
	if math.Abs(y) < 0.42 {
		r := y * y
		num := y * (((bsmA[3]*r+bsmA[2])*r+bsmA[1])*r + bsmA[0])
		den := (((bsmB[3]*r+bsmB[2])*r+bsmB[1])*r+bsmB[0])*r + 1
		return num / den
	}
	r := p
	if y > 0 {
		r = 1 - p
	}
	s := math.Log(-math.Log(r))
	x := bsmC[0]
	pow := 1.0
	for _, c := range bsmC[1:] {
		pow *= s
		x += c * pow
	}
	if y < 0 {
		x = -x
	}
	return x
}
