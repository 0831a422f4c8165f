// ABOUTME: Audio output interface definition
// ABOUTME: Output creates per-session voices that play one decoded buffer each
package output

import (
	"errors"
	"fmt"
	"time"

	"github.com/Resonate-Protocol/audioengine-go/pkg/audio"
)

// ErrUnavailable is returned when a device backend is not built into the binary
var ErrUnavailable = errors.New("audio output unavailable")

// Output represents an audio device able to play many voices at once
type Output interface {
	// NewVoice prepares a voice for buf. The voice is silent until Start.
	NewVoice(buf *audio.Buffer, loop bool) (Voice, error)

	// Close stops every voice and releases the device
	Close() error
}

// Voice is one playing instance of a buffer
type Voice interface {
	// Start begins playback at offset into the buffer
	Start(offset time.Duration) error

	// SetGain sets linear volume, 0 is silent and 1 is unity
	SetGain(volume float64)

	// Stop silences the voice
	Stop()

	// Release frees the voice's device resources. The voice must not be reused.
	Release() error
}

// Open creates an output backend by name: "oto", "beep" or "null"
func Open(backend string) (Output, error) {
	switch backend {
	case "", "oto":
		return NewOto(OtoConfig{})
	case "beep":
		return NewBeep(BeepConfig{})
	case "null":
		return NewNull(), nil
	default:
		return nil, fmt.Errorf("unknown output backend: %s", backend)
	}
}

// clampGain limits volume to [0, 1]
func clampGain(volume float64) float64 {
	if volume < 0 {
		return 0
	}
	if volume > 1 {
		return 1
	}
	return volume
}
