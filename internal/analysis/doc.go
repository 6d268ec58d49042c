// Package analysis turns per-frame metric series into summaries.
//
//   - [PowerSpectrum] and [DominantFrequency]: periodicity of a series,
//     e.g. vortex shedding behind an obstacle showing up in kinetic energy
//   - [Summarize]: mean, spread, extremes and linear trend of a series
//
// A plume that has settled into periodic shedding has a clear spectral
// peak:
//
//	freq, power := analysis.DominantFrequency(ke, dt)
package analysis
