// ABOUTME: Device output configuration
// ABOUTME: Config structs and defaults shared by the oto and beep backends
package output

import "time"

const (
	DefaultSampleRate   = 48000
	DefaultChannels     = 2
	DefaultBufferSize   = 100 * time.Millisecond
	DefaultPreparedSize = 64
	DefaultResampleQual = 4
)

// OtoConfig configures the oto backend
type OtoConfig struct {
	// SampleRate of the device (default: 48000)
	SampleRate int

	// Channels of the device (default: 2)
	Channels int

	// BufferSize is the device buffer length (default: 100ms)
	BufferSize time.Duration

	// PreparedSize is how many device-ready PCM renderings are kept (default: 64)
	PreparedSize int
}

func (c OtoConfig) withDefaults() OtoConfig {
	if c.SampleRate == 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.Channels == 0 {
		c.Channels = DefaultChannels
	}
	if c.BufferSize == 0 {
		c.BufferSize = DefaultBufferSize
	}
	if c.PreparedSize == 0 {
		c.PreparedSize = DefaultPreparedSize
	}
	return c
}

// BeepConfig configures the beep backend
type BeepConfig struct {
	// SampleRate of the speaker (default: 48000)
	SampleRate int

	// BufferSize is the speaker buffer length (default: 100ms)
	BufferSize time.Duration

	// ResampleQuality passed to beep.Resample (default: 4)
	ResampleQuality int
}

func (c BeepConfig) withDefaults() BeepConfig {
	if c.SampleRate == 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.BufferSize == 0 {
		c.BufferSize = DefaultBufferSize
	}
	if c.ResampleQuality == 0 {
		c.ResampleQuality = DefaultResampleQual
	}
	return c
}
