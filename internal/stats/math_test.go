package stats

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestMean(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"Empty", nil, 0},
		{"Single", []float64{7}, 7},
		{"Several", []float64{1, 2, 3, 4}, 2.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Mean(tt.values); !approxEqual(got, tt.expected, epsilon) {
				t.Errorf("Mean() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCoefficientOfVariation(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"Empty", nil, 0},
		{"SingleSample", []float64{300}, 0},
		{"ZeroMean", []float64{0, 0, 0}, 0},
		{"NegativeMean", []float64{-5, -10}, 0},
		{"Constant", []float64{200, 200, 200}, 0},
		// mean 5, sample stddev sqrt(20/3)
		{"Spread", []float64{2, 4, 6, 8}, math.Sqrt(20.0/3.0) / 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CoefficientOfVariation(tt.values); !approxEqual(got, tt.expected, epsilon) {
				t.Errorf("CoefficientOfVariation() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCVFromMomentsMatchesDirect(t *testing.T) {
	values := []float64{320, 410, 385, 290, 505, 610, 275}
	var sum, sumSq float64
	for _, v := range values {
		sum += v
		sumSq += v * v
	}

	direct := CoefficientOfVariation(values)
	pooled := CVFromMoments(len(values), sum, sumSq)
	if !approxEqual(direct, pooled, 1e-9) {
		t.Errorf("expected pooled CV %v to equal direct CV %v", pooled, direct)
	}

	if got := CVFromMoments(1, 300, 90000); got != 0 {
		t.Errorf("expected 0 for a single sample, got %v", got)
	}
}

func TestPercentile(t *testing.T) {
	values := []float64{50, 10, 40, 20, 30}

	tests := []struct {
		name     string
		p        float64
		expected float64
	}{
		{"Min", 0, 10},
		{"Max", 100, 50},
		{"Median", 50, 30},
		{"Interpolated", 90, 46},
		{"Quarter", 25, 20},
		{"AboveRange", 150, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Percentile(values, tt.p); !approxEqual(got, tt.expected, epsilon) {
				t.Errorf("Percentile(%v) = %v, want %v", tt.p, got, tt.expected)
			}
		})
	}

	if values[0] != 50 {
		t.Errorf("expected input to stay unsorted, got %v", values)
	}
	if got := Percentile(nil, 50); got != 0 {
		t.Errorf("expected 0 for empty input, got %v", got)
	}
}

func TestClampedLinearScore(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		lo, hi   float64
		invert   bool
		expected float64
	}{
		{"BelowBand", 50, 100, 5000, false, 0},
		{"AboveBand", 6000, 100, 5000, false, 10},
		{"Midpoint", 2550, 100, 5000, false, 5},
		{"InvertedLow", 20, 30, 150, true, 10},
		{"InvertedHigh", 150, 30, 150, true, 0},
		{"InvertedMid", 90, 30, 150, true, 5},
		{"DegenerateBand", 10, 5, 5, false, 0},
		{"NaN", math.NaN(), 0, 10, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampedLinearScore(tt.value, tt.lo, tt.hi, tt.invert)
			if !approxEqual(got, tt.expected, epsilon) {
				t.Errorf("ClampedLinearScore() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSafeDiv(t *testing.T) {
	if got := SafeDiv(10, 0); got != 0 {
		t.Errorf("expected 0 on zero divisor, got %v", got)
	}
	if got := SafeDiv(math.Inf(1), 2); got != 0 {
		t.Errorf("expected 0 on infinite quotient, got %v", got)
	}
	if got := SafeDiv(9, 3); got != 3 {
		t.Errorf("expected 3, got %v", got)
	}
}

func TestWeightedMean(t *testing.T) {
	got := WeightedMean([]float64{100, 300}, []float64{1, 3})
	if !approxEqual(got, 250, epsilon) {
		t.Errorf("expected 250, got %v", got)
	}
	if got := WeightedMean([]float64{1, 2}, []float64{0, 0}); got != 0 {
		t.Errorf("expected 0 for zero weights, got %v", got)
	}
}

func TestPearson(t *testing.T) {
	tests := []struct {
		name       string
		xs, ys     []float64
		expected   float64
		expectedOK bool
	}{
		{"perfect positive", []float64{1, 2, 3}, []float64{2, 4, 6}, 1, true},
		{"perfect negative", []float64{1, 2, 3}, []float64{9, 6, 3}, -1, true},
		{"uncorrelated", []float64{1, 2, 3, 4}, []float64{1, 3, 3, 1}, 0, true},
		{"constant sample", []float64{1, 2, 3}, []float64{5, 5, 5}, 0, false},
		{"single pair", []float64{1}, []float64{1}, 0, false},
		{"length mismatch", []float64{1, 2}, []float64{1}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := Pearson(tt.xs, tt.ys)
			if ok != tt.expectedOK {
				t.Fatalf("expected ok=%v, got %v", tt.expectedOK, ok)
			}
			if !approxEqual(r, tt.expected, epsilon) {
				t.Errorf("expected %v, got %v", tt.expected, r)
			}
		})
	}
}
