package analysis

import (
	"math"
	"math/cmplx"
	"sort"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// Bin is one frequency of a power spectrum.
type Bin struct {
	Freq  float64
	Power float64
}

// PowerSpectrum holds the non-negative frequency half of a spectrum,
// ordered by frequency.
type PowerSpectrum []Bin

// Spectrum removes the mean of y, applies a Hann window and returns the
// one-sided power spectrum. sampleRate is in samples per second.
func Spectrum(y []float64, sampleRate float64) PowerSpectrum {
	n := len(y)
	if n < 2 || sampleRate <= 0 {
		return nil
	}

	mean := 0.0
	for _, v := range y {
		mean += v
	}
	mean /= float64(n)

	x := make([]float64, n)
	for i, v := range y {
		x[i] = v - mean
	}
	window.Apply(x, window.Hann)

	coeffs := fft.FFTReal(x)
	half := n/2 + 1
	out := make(PowerSpectrum, half)
	for k := 0; k < half; k++ {
		mag := cmplx.Abs(coeffs[k])
		out[k] = Bin{
			Freq:  float64(k) * sampleRate / float64(n),
			Power: mag * mag / float64(n),
		}
	}
	return out
}

// Peaks returns up to n local maxima, strongest first. The DC bin is never
// a peak.
func (s PowerSpectrum) Peaks(n int) []Bin {
	var peaks []Bin
	for k := 1; k < len(s); k++ {
		left := s[k-1].Power
		right := math.Inf(-1)
		if k+1 < len(s) {
			right = s[k+1].Power
		}
		if s[k].Power > left && s[k].Power >= right && s[k].Power > 0 {
			peaks = append(peaks, s[k])
		}
	}
	sort.SliceStable(peaks, func(i, j int) bool { return peaks[i].Power > peaks[j].Power })
	if len(peaks) > n {
		peaks = peaks[:n]
	}
	return peaks
}

// Dominant is the strongest peak, or false if the spectrum is flat.
func (s PowerSpectrum) Dominant() (Bin, bool) {
	p := s.Peaks(1)
	if len(p) == 0 {
		return Bin{}, false
	}
	return p[0], true
}
