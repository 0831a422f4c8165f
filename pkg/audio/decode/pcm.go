// ABOUTME: Raw PCM audio decoder
// ABOUTME: Decodes headerless 16-bit and 24-bit PCM assets with a fixed format
package decode

import (
	"encoding/binary"
	"fmt"

	"github.com/Resonate-Protocol/audioengine-go/pkg/audio"
)

// PCMDecoder decodes headerless PCM audio.
// The asset carries no header so the format is fixed at construction.
type PCMDecoder struct {
	format audio.Format
}

// NewPCM creates a new PCM decoder
func NewPCM(format audio.Format) (*PCMDecoder, error) {
	if format.Codec != "pcm" {
		return nil, fmt.Errorf("invalid codec for PCM decoder: %s", format.Codec)
	}

	if format.BitDepth != 16 && format.BitDepth != 24 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", format.BitDepth)
	}

	if format.SampleRate <= 0 || format.Channels <= 0 {
		return nil, fmt.Errorf("invalid PCM format: %dHz %dch", format.SampleRate, format.Channels)
	}

	return &PCMDecoder{
		format: format,
	}, nil
}

// Decode converts PCM bytes to a decoded buffer. A trailing partial frame is dropped.
func (d *PCMDecoder) Decode(data []byte) (*audio.Buffer, error) {
	bytesPerSample := d.format.BitDepth / 8
	frameBytes := bytesPerSample * d.format.Channels
	data = data[:len(data)-len(data)%frameBytes]

	numSamples := len(data) / bytesPerSample
	samples := make([]int32, numSamples)
	if d.format.BitDepth == 24 {
		for i := 0; i < numSamples; i++ {
			b := [3]byte{data[i*3], data[i*3+1], data[i*3+2]}
			samples[i] = audio.SampleFrom24Bit(b)
		}
	} else {
		for i := 0; i < numSamples; i++ {
			sample16 := int16(binary.LittleEndian.Uint16(data[i*2:]))
			samples[i] = audio.SampleFromInt16(sample16)
		}
	}

	return &audio.Buffer{
		Samples: samples,
		Format:  d.format,
	}, nil
}
