// ABOUTME: WAV audio decoder
// ABOUTME: Decodes RIFF/WAVE integer PCM assets using go-audio/wav
package decode

import (
	"bytes"
	"fmt"

	"github.com/Resonate-Protocol/audioengine-go/pkg/audio"
	"github.com/go-audio/wav"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// WAVDecoder decodes WAV audio
type WAVDecoder struct{}

// NewWAV creates a new WAV decoder
func NewWAV() *WAVDecoder {
	return &WAVDecoder{}
}

// Decode converts WAV bytes to a decoded buffer
func (d *WAVDecoder) Decode(data []byte) (*audio.Buffer, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a wav file", ErrInvalidData)
	}

	if dec.WavAudioFormat != wavFormatPCM && dec.WavAudioFormat != wavFormatExtensible {
		return nil, fmt.Errorf("%w: wav format tag %d", ErrUnsupportedFormat, dec.WavAudioFormat)
	}

	bitDepth := int(dec.BitDepth)
	samples, err := readAllPCM(dec, bitDepth, true)
	if err != nil {
		return nil, fmt.Errorf("wav: %w", err)
	}

	return &audio.Buffer{
		Samples: samples,
		Format: audio.Format{
			Codec:      "wav",
			SampleRate: int(dec.SampleRate),
			Channels:   int(dec.NumChans),
			BitDepth:   bitDepth,
		},
	}, nil
}
