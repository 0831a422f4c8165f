// ABOUTME: Engine identifiers, states and capability interfaces
// ABOUTME: Defines SessionID, State and the Storage and Decoder capabilities
package engine

import (
	"time"

	"github.com/Resonate-Protocol/audioengine-go/pkg/audio"
)

// SessionID identifies one playback session. Ids start at 1 and are never reused.
type SessionID int

// FinishCallback is notified once when a session plays to its natural end
type FinishCallback func(id SessionID, path string)

const (
	// InvalidSessionID is returned by Play when no session could be created
	InvalidSessionID SessionID = -1

	// DurationUnknown is returned by Duration for unknown sessions
	DurationUnknown = -1.0
)

// State is the lifecycle state of a playback session
type State int

const (
	StatePlaying State = iota
	StatePaused
	StateStopped
	StateFinished
)

func (s State) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are possible
func (s State) Terminal() bool {
	return s == StateStopped || s == StateFinished
}

// Storage supplies encoded asset bytes
type Storage interface {
	ReadAsset(path string) ([]byte, error)
}

// Decoder turns encoded asset bytes into a decoded buffer.
// path is passed so implementations can pick a codec by extension.
type Decoder interface {
	DecodeAsset(path string, data []byte) (*audio.Buffer, error)
}

// executor runs fn serialized with every other engine operation
type executor func(fn func())

func seconds(d time.Duration) float64 {
	return d.Seconds()
}

func fromSeconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second)).Round(time.Microsecond)
}
