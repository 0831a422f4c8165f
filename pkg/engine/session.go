// ABOUTME: Playback session state machine
// ABOUTME: Tracks timing, volume and output voice for one playing instance of a buffer
package engine

import (
	"fmt"
	"log"
	"time"

	"github.com/Resonate-Protocol/audioengine-go/pkg/audio"
	"github.com/Resonate-Protocol/audioengine-go/pkg/audio/output"
	"github.com/Resonate-Protocol/audioengine-go/pkg/clock"
)

// PlaybackSession is one instance of a buffer being played.
// Like DecodeCache it relies on the engine's serialization.
type PlaybackSession struct {
	id     SessionID
	path   string
	buffer *audio.Buffer
	loop   bool
	volume float64
	state  State

	// startClock is the clock reading at elapsed time zero of the current segment
	startClock time.Duration
	// pauseOffset is only meaningful while Paused
	pauseOffset time.Duration

	deps  sessionDeps
	voice output.Voice
	timer clock.Timer
	// generation invalidates completion timers armed before the last transition
	generation uint64
	// finishCallback is dropped on Stop and handed out once on completion
	finishCallback FinishCallback
}

// sessionDeps are the collaborators every session shares
type sessionDeps struct {
	clock    clock.Clock
	output   output.Output
	exec     executor
	onFinish func(s *PlaybackSession)
	debug    bool
}

// SessionInfo is a point-in-time description of a session
type SessionInfo struct {
	ID          SessionID
	Path        string
	State       State
	Loop        bool
	Volume      float64
	Duration    float64
	CurrentTime float64
}

func newPlaybackSession(id SessionID, path string, buf *audio.Buffer, loop bool, volume float64, deps sessionDeps) (*PlaybackSession, error) {
	if buf == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotCached, path)
	}

	s := &PlaybackSession{
		id:     id,
		path:   path,
		buffer: buf,
		loop:   loop,
		volume: volume,
		state:  StatePlaying,
		deps:   deps,
	}

	if err := s.startAt(0); err != nil {
		return nil, err
	}
	return s, nil
}

// ID returns the session id
func (s *PlaybackSession) ID() SessionID { return s.id }

// Path returns the asset path the session was created from
func (s *PlaybackSession) Path() string { return s.path }

// State returns the current lifecycle state
func (s *PlaybackSession) State() State { return s.state }

// Loop reports whether the session loops
func (s *PlaybackSession) Loop() bool { return s.loop }

// Volume returns the current volume
func (s *PlaybackSession) Volume() float64 { return s.volume }

// Duration returns the buffer length
func (s *PlaybackSession) Duration() time.Duration {
	return s.buffer.Duration()
}

// CurrentTime returns the elapsed playback position
func (s *PlaybackSession) CurrentTime() time.Duration {
	switch s.state {
	case StatePaused:
		return s.pauseOffset
	case StatePlaying:
		elapsed := s.deps.clock.Now() - s.startClock
		duration := s.Duration()
		if elapsed > duration {
			if s.loop {
				return loopOffset(elapsed, duration)
			}
			return duration
		}
		return elapsed
	default:
		return 0
	}
}

// Pause stops output and remembers the position. No-op unless Playing.
func (s *PlaybackSession) Pause() {
	if s.state != StatePlaying {
		return
	}

	s.cancelTimer()

	offset := s.deps.clock.Now() - s.startClock
	duration := s.Duration()
	switch {
	case s.loop:
		offset = loopOffset(offset, duration)
	case offset > duration:
		offset = duration
	}

	s.pauseOffset = offset
	s.releaseVoice()
	s.state = StatePaused

	if s.deps.debug {
		log.Printf("Session %d paused at %.3fs", s.id, offset.Seconds())
	}
}

// Resume restarts output at the paused position. No-op unless Paused.
// If output cannot be re-acquired the session stays Paused.
func (s *PlaybackSession) Resume() error {
	if s.state != StatePaused {
		return nil
	}

	if err := s.startAt(s.pauseOffset); err != nil {
		return fmt.Errorf("resume session %d: %w", s.id, err)
	}

	s.state = StatePlaying
	s.pauseOffset = 0
	return nil
}

// Stop ends the session without a finish event
func (s *PlaybackSession) Stop() {
	if s.state.Terminal() {
		return
	}

	s.cancelTimer()
	s.releaseVoice()
	s.finishCallback = nil
	s.state = StateStopped
}

// SetVolume updates the volume and applies it to a live voice
func (s *PlaybackSession) SetVolume(volume float64) {
	if s.state.Terminal() {
		return
	}

	s.volume = volume
	if s.voice != nil {
		s.voice.SetGain(volume)
	}
}

// SetLoop always fails, loop mode is fixed when the session is created
func (s *PlaybackSession) SetLoop(loop bool) error {
	return fmt.Errorf("%w: loop mode of session %d is fixed", ErrUnsupported, s.id)
}

// Seek moves the playback position. Looping sessions wrap the offset,
// others reject offsets past the end. A Paused session stays Paused.
func (s *PlaybackSession) Seek(offset time.Duration) error {
	if s.state.Terminal() {
		return nil
	}

	duration := s.Duration()
	switch {
	case offset < 0:
		return fmt.Errorf("%w: %v", ErrInvalidOffset, offset)
	case s.loop:
		offset = loopOffset(offset, duration)
	case offset > duration:
		return fmt.Errorf("%w: %v beyond %v", ErrInvalidOffset, offset, duration)
	}

	if s.state == StatePaused {
		s.pauseOffset = offset
		return nil
	}

	s.cancelTimer()
	s.releaseVoice()
	if err := s.startAt(offset); err != nil {
		s.state = StatePaused
		s.pauseOffset = offset
		return fmt.Errorf("seek session %d: %w", s.id, err)
	}
	return nil
}

// Info describes the session
func (s *PlaybackSession) Info() SessionInfo {
	return SessionInfo{
		ID:          s.id,
		Path:        s.path,
		State:       s.state,
		Loop:        s.loop,
		Volume:      s.volume,
		Duration:    seconds(s.Duration()),
		CurrentTime: seconds(s.CurrentTime()),
	}
}

// startAt acquires a voice, starts it at offset and arms the completion timer
func (s *PlaybackSession) startAt(offset time.Duration) error {
	voice, err := s.deps.output.NewVoice(s.buffer, s.loop)
	if err != nil {
		return fmt.Errorf("create voice: %w", err)
	}

	voice.SetGain(s.volume)
	if err := voice.Start(offset); err != nil {
		if relErr := voice.Release(); relErr != nil {
			log.Printf("Error releasing voice: %v", relErr)
		}
		return fmt.Errorf("start voice: %w", err)
	}

	s.voice = voice
	s.startClock = s.deps.clock.Now() - offset
	s.armTimer(s.Duration() - offset)
	return nil
}

func (s *PlaybackSession) armTimer(remaining time.Duration) {
	s.cancelTimer()
	if s.loop {
		return
	}

	gen := s.generation
	s.timer = s.deps.clock.AfterFunc(remaining, func() {
		s.deps.exec(func() { s.complete(gen) })
	})
}

func (s *PlaybackSession) cancelTimer() {
	s.generation++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// complete runs when a completion timer fires
func (s *PlaybackSession) complete(gen uint64) {
	if gen != s.generation || s.state != StatePlaying {
		return
	}

	s.timer = nil
	s.releaseVoice()
	s.state = StateFinished

	if s.deps.onFinish != nil {
		s.deps.onFinish(s)
	}
}

func (s *PlaybackSession) releaseVoice() {
	if s.voice == nil {
		return
	}
	s.voice.Stop()
	if err := s.voice.Release(); err != nil {
		log.Printf("Session %d: error releasing voice: %v", s.id, err)
	}
	s.voice = nil
}

// loopOffset reduces elapsed modulo duration after rounding both to milliseconds
func loopOffset(elapsed, duration time.Duration) time.Duration {
	d := duration.Round(time.Millisecond)
	if d <= 0 {
		return 0
	}
	return elapsed.Round(time.Millisecond) % d
}
