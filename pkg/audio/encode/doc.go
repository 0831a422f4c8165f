// ABOUTME: Audio encoder package for preparing PCM for output devices
// ABOUTME: Provides the Encoder interface, a PCM encoder and channel remixing
// Package encode prepares decoded samples for an output device.
//
// Supports: PCM (16-bit and 24-bit little-endian)
//
// All encoders accept int32 samples in 24-bit range.
//
// Example:
//
//	encoder, err := encode.NewPCM(16)
//	stereo := encode.Remix(buf.Samples, buf.Format.Channels, 2)
//	data, err := encoder.Encode(stereo)
package encode
