// Package analysis characterizes a sampled run after the fact.
//
//   - [Summarize]: mean, spread, range and linear trend of a series
//   - [SettleIndex]: first sample after which a series stays within a band
//   - [Spectrum]: windowed power spectrum of a series
//
// The mixer drives the dough periodically, so its Lissajous frequencies
// show up as peaks in the modulus spectrum:
//
//	peaks := analysis.Spectrum(modulus, 1/sampleInterval).Peaks(3)
package analysis
