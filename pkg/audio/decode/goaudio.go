// ABOUTME: Shared PCM reading for go-audio based decoders
// ABOUTME: Drains a WAV or AIFF decoder into 24-bit int32 samples
package decode

import (
	"errors"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/audioengine-go/pkg/audio"
	goaudio "github.com/go-audio/audio"
)

const pcmChunkSamples = 4096

// pcmReader is the subset of the go-audio decoders used here
type pcmReader interface {
	Format() *goaudio.Format
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// readAllPCM drains dec. Unsigned 8-bit sources are recentred around zero.
func readAllPCM(dec pcmReader, bitDepth int, unsigned8 bool) ([]int32, error) {
	format := dec.Format()
	if format == nil || format.NumChannels <= 0 {
		return nil, fmt.Errorf("%w: missing format chunk", ErrInvalidData)
	}

	chunk := &goaudio.IntBuffer{
		Data:           make([]int, pcmChunkSamples),
		Format:         format,
		SourceBitDepth: bitDepth,
	}

	var samples []int32
	for {
		n, err := dec.PCMBuffer(chunk)
		for _, v := range chunk.Data[:n] {
			if unsigned8 && bitDepth == 8 {
				v -= 128
			}
			samples = append(samples, audio.SampleFromBitDepth(v, bitDepth))
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w: %w", ErrInvalidData, err)
		}
		if n == 0 {
			break
		}
	}

	return samples, nil
}
