package stats

import (
	"math"
	"slices"
)

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// StdDev returns the sample standard deviation (n-1), 0 below two samples.
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := Mean(xs)
	ss := 0.0
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

// CoefficientOfVariation returns stddev/mean as a fraction. It is 0 when the
// mean is not positive or there are fewer than two samples.
func CoefficientOfVariation(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := Mean(xs)
	if m <= 0 {
		return 0
	}
	return finite(StdDev(xs) / m)
}

// CVFromMoments is CoefficientOfVariation computed from pooled sums.
func CVFromMoments(n int, sum, sumSq float64) float64 {
	if n < 2 {
		return 0
	}
	m := sum / float64(n)
	if m <= 0 {
		return 0
	}
	variance := (sumSq - sum*sum/float64(n)) / float64(n-1)
	if variance < 0 {
		variance = 0
	}
	return finite(math.Sqrt(variance) / m)
}

// Percentile returns the p-th percentile (0-100) using linear interpolation
// between order statistics. The input is not modified.
func Percentile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return 0
	}

	temp := make([]float64, len(xs))
	copy(temp, xs)
	slices.Sort(temp)

	p = Clamp(p, 0, 100)
	rank := p / 100 * float64(len(temp)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return temp[lo]
	}
	frac := rank - float64(lo)
	return temp[lo] + (temp[hi]-temp[lo])*frac
}

// Pearson returns the correlation coefficient of two equally long samples.
// ok is false with fewer than two pairs or when either sample is constant.
func Pearson(xs, ys []float64) (r float64, ok bool) {
	if len(xs) != len(ys) || len(xs) < 2 {
		return 0, false
	}
	mx, my := Mean(xs), Mean(ys)
	var sxy, sxx, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0, false
	}
	return Clamp(sxy/math.Sqrt(sxx*syy), -1, 1), true
}

// ClampedLinearScore maps value linearly from [lo,hi] onto [0,10]. Values
// outside the band are clamped. With invert, lo scores 10 and hi scores 0.
func ClampedLinearScore(value, lo, hi float64, invert bool) float64 {
	if hi <= lo || math.IsNaN(value) {
		return 0
	}
	score := (value - lo) / (hi - lo) * 10
	score = Clamp(score, 0, 10)
	if invert {
		return 10 - score
	}
	return score
}

// SafeDiv returns a/b, or 0 when b is zero or the quotient is not finite.
func SafeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return finite(a / b)
}

// Clamp bounds v into [lo,hi]. NaN becomes lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Round rounds to the given number of decimals.
func Round(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}

// WeightedMean returns sum(v*w)/sum(w), 0 when the weights sum to zero.
func WeightedMean(values, weights []float64) float64 {
	var num, den float64
	for i := range values {
		if i >= len(weights) {
			break
		}
		num += values[i] * weights[i]
		den += weights[i]
	}
	return SafeDiv(num, den)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
