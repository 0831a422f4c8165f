// ABOUTME: Audio type definitions
// ABOUTME: Defines audio formats, decoded asset buffers and sample conversions
package audio

import (
	"math"
	"time"
)

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// Format describes the format of a decoded asset
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int // Bit depth of the source before widening to 24-bit
}

// Buffer holds a fully decoded asset.
// Samples are interleaved and left-justified in the 24-bit range.
// A Buffer is immutable once a decoder has returned it.
type Buffer struct {
	Samples []int32
	Format  Format
}

// Frames returns the number of sample frames (samples per channel)
func (b *Buffer) Frames() int {
	if b == nil || b.Format.Channels <= 0 {
		return 0
	}
	return len(b.Samples) / b.Format.Channels
}

// Duration returns the playback length of the buffer
func (b *Buffer) Duration() time.Duration {
	if b == nil || b.Format.SampleRate <= 0 {
		return 0
	}
	frames := int64(b.Frames())
	return time.Duration(frames * int64(time.Second) / int64(b.Format.SampleRate))
}

// FrameAt converts an offset into a frame index clamped to the buffer
func (b *Buffer) FrameAt(offset time.Duration) int {
	if b == nil || offset <= 0 {
		return 0
	}
	frame := int(offset.Seconds() * float64(b.Format.SampleRate))
	if n := b.Frames(); frame > n {
		return n
	}
	return frame
}

// SampleToInt16 converts int32 sample to int16 (for 16-bit playback)
func SampleToInt16(sample int32) int16 {
	// Right-shift to convert 24-bit (or 16-bit) to 16-bit range
	return int16(sample >> 8)
}

// SampleFromInt16 converts int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	return int32(sample) << 8
}

// SampleFromBitDepth widens or narrows an integer sample of the given depth to 24-bit
func SampleFromBitDepth(sample int, bitDepth int) int32 {
	switch {
	case bitDepth == 24 || bitDepth <= 0:
		return Clamp24(int64(sample))
	case bitDepth < 24:
		return int32(sample) << (24 - bitDepth)
	default:
		return int32(sample >> (bitDepth - 24))
	}
}

// SampleFromFloat converts a [-1, 1] float sample to 24-bit
func SampleFromFloat(sample float32) int32 {
	return Clamp24(int64(math.Round(float64(sample) * Max24Bit)))
}

// SampleToFloat converts a 24-bit sample to the [-1, 1] range
func SampleToFloat(sample int32) float64 {
	return float64(sample) / float64(Max24Bit+1)
}

// Clamp24 clamps a wide sample into the 24-bit range
func Clamp24(v int64) int32 {
	if v > Max24Bit {
		return Max24Bit
	}
	if v < Min24Bit {
		return Min24Bit
	}
	return int32(v)
}

// SampleTo24Bit converts int32 to 24-bit packed bytes (little-endian)
func SampleTo24Bit(sample int32) [3]byte {
	return [3]byte{
		byte(sample),
		byte(sample >> 8),
		byte(sample >> 16),
	}
}

// SampleFrom24Bit converts 24-bit packed bytes to int32 (little-endian)
func SampleFrom24Bit(b [3]byte) int32 {
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	// Sign extend from 24-bit to 32-bit
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF
	}
	return val
}
