// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Buffer types and sample conversion functions
// Package audio provides the decoded-asset types shared by the engine.
//
// This package defines core types used throughout audioengine:
//   - Format: Describes a decoded asset (codec, sample rate, channels, source bit depth)
//   - Buffer: A fully decoded asset with its playback duration
//
// Samples are always int32 left-justified in the 24-bit range, whatever the
// source depth. Helpers convert to and from 16-bit, packed 24-bit and float.
//
// Example:
//
//	buf := &audio.Buffer{
//	    Samples: samples,
//	    Format:  audio.Format{Codec: "wav", SampleRate: 44100, Channels: 2, BitDepth: 16},
//	}
//	fmt.Println(buf.Duration())
package audio
