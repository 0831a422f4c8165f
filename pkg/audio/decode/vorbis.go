// ABOUTME: Ogg Vorbis audio decoder
// ABOUTME: Decodes complete Ogg Vorbis assets using jfreymuth/oggvorbis
package decode

import (
	"bytes"
	"fmt"

	"github.com/Resonate-Protocol/audioengine-go/pkg/audio"
	"github.com/jfreymuth/oggvorbis"
)

// VorbisDecoder decodes Ogg Vorbis audio
type VorbisDecoder struct{}

// NewVorbis creates a new Ogg Vorbis decoder
func NewVorbis() *VorbisDecoder {
	return &VorbisDecoder{}
}

// Decode converts Ogg Vorbis bytes to a decoded buffer.
// Vorbis decodes to float, so the reported bit depth is 24.
func (d *VorbisDecoder) Decode(data []byte) (*audio.Buffer, error) {
	floats, format, err := oggvorbis.ReadAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: vorbis: %w", ErrInvalidData, err)
	}

	samples := make([]int32, len(floats))
	for i, f := range floats {
		samples[i] = audio.SampleFromFloat(f)
	}

	return &audio.Buffer{
		Samples: samples,
		Format: audio.Format{
			Codec:      "vorbis",
			SampleRate: format.SampleRate,
			Channels:   format.Channels,
			BitDepth:   24,
		},
	}, nil
}
