// ABOUTME: AIFF audio decoder
// ABOUTME: Decodes AIFF integer PCM assets using go-audio/aiff
package decode

import (
	"bytes"
	"fmt"

	"github.com/Resonate-Protocol/audioengine-go/pkg/audio"
	"github.com/go-audio/aiff"
)

// AIFFDecoder decodes AIFF audio
type AIFFDecoder struct{}

// NewAIFF creates a new AIFF decoder
func NewAIFF() *AIFFDecoder {
	return &AIFFDecoder{}
}

// Decode converts AIFF bytes to a decoded buffer
func (d *AIFFDecoder) Decode(data []byte) (*audio.Buffer, error) {
	dec := aiff.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not an aiff file", ErrInvalidData)
	}
	dec.ReadInfo()

	format := dec.Format()
	if format == nil {
		return nil, fmt.Errorf("%w: aiff missing COMM chunk", ErrInvalidData)
	}

	bitDepth := int(dec.BitDepth)
	samples, err := readAllPCM(dec, bitDepth, false)
	if err != nil {
		return nil, fmt.Errorf("aiff: %w", err)
	}

	return &audio.Buffer{
		Samples: samples,
		Format: audio.Format{
			Codec:      "aiff",
			SampleRate: format.SampleRate,
			Channels:   format.NumChannels,
			BitDepth:   bitDepth,
		},
	}, nil
}
