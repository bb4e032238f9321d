package analysis

import (
	"math"
)

// Summary describes one series.
type Summary struct {
	N        int
	Mean     float64
	Std      float64
	Min, Max float64
	// Slope is the least-squares trend of y against t, in units per second.
	Slope float64
}

// Summarize computes a Summary of y sampled at times t. t and y must have
// the same length; an empty series yields a zero Summary.
func Summarize(t, y []float64) Summary {
	n := len(y)
	if n == 0 || len(t) != n {
		return Summary{}
	}

	s := Summary{N: n, Min: math.Inf(1), Max: math.Inf(-1)}
	var sumT, sumY float64
	for i, v := range y {
		sumT += t[i]
		sumY += v
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	meanT := sumT / float64(n)
	s.Mean = sumY / float64(n)

	var varY, covTY, varT float64
	for i, v := range y {
		dy := v - s.Mean
		dt := t[i] - meanT
		varY += dy * dy
		covTY += dt * dy
		varT += dt * dt
	}
	s.Std = math.Sqrt(varY / float64(n))
	if varT > 0 {
		s.Slope = covTY / varT
	}
	return s
}

// SettleIndex returns the first index i such that every y[j] with j >= i
// lies within tol of the mean of y[i:]. It returns -1 if the series never
// settles or is shorter than minTail.
func SettleIndex(y []float64, tol float64, minTail int) int {
	if len(y) < minTail || minTail < 1 {
		return -1
	}

	best := -1
	lo, hi := math.Inf(1), math.Inf(-1)
	sum := 0.0
	for i := len(y) - 1; i >= 0; i-- {
		lo = math.Min(lo, y[i])
		hi = math.Max(hi, y[i])
		sum += y[i]
		mean := sum / float64(len(y)-i)
		if hi-mean > tol || mean-lo > tol {
			break
		}
		if len(y)-i >= minTail {
			best = i
		}
	}
	return best
}
