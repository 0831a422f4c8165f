// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts audio between different sample rates
// Package resample provides audio sample rate conversion.
//
// Uses linear interpolation for converting between sample rates.
// Handles both upsampling and downsampling, either chunk by chunk with a
// Resampler or for a whole decoded asset with Buffer.
//
// Example:
//
//	deviceBuf := resample.Buffer(buf, 48000)
package resample
