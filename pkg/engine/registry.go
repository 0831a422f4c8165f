// ABOUTME: Id-indexed collection of live playback sessions
// ABOUTME: Allocates monotonic session ids and routes commands, tolerating unknown ids
package engine

import (
	"log"
	"sort"
	"time"

	"github.com/Resonate-Protocol/audioengine-go/pkg/audio"
)

// SessionRegistry owns the live sessions and the id counter.
// The counter is never reset and never decremented, so failed creations leave gaps.
type SessionRegistry struct {
	sessions map[SessionID]*PlaybackSession
	lastID   SessionID
	deps     sessionDeps
	onFinish func(id SessionID, path string, cb FinishCallback)
}

func newSessionRegistry(deps sessionDeps, onFinish func(id SessionID, path string, cb FinishCallback)) *SessionRegistry {
	r := &SessionRegistry{
		sessions: make(map[SessionID]*PlaybackSession),
		onFinish: onFinish,
	}
	deps.onFinish = r.finished
	r.deps = deps
	return r
}

// Create allocates the next id and starts a session for buf.
// A nil buf fails with ErrNotCached.
func (r *SessionRegistry) Create(path string, buf *audio.Buffer, loop bool, volume float64) (SessionID, error) {
	r.lastID++
	id := r.lastID

	s, err := newPlaybackSession(id, path, buf, loop, volume, r.deps)
	if err != nil {
		return InvalidSessionID, err
	}

	r.sessions[id] = s
	if r.deps.debug {
		log.Printf("Session %d created for %s (loop=%v, volume=%.2f)", id, path, loop, volume)
	}
	return id, nil
}

// Get returns the session for id
func (r *SessionRegistry) Get(id SessionID) (*PlaybackSession, bool) {
	s, ok := r.sessions[id]
	return s, ok
}

func (r *SessionRegistry) lookup(id SessionID) *PlaybackSession {
	s, ok := r.sessions[id]
	if !ok && r.deps.debug {
		log.Printf("Session %d: %v", id, ErrInvalidSessionID)
	}
	return s
}

// Pause pauses id if present
func (r *SessionRegistry) Pause(id SessionID) {
	if s := r.lookup(id); s != nil {
		s.Pause()
	}
}

// Resume resumes id if present
func (r *SessionRegistry) Resume(id SessionID) error {
	if s := r.lookup(id); s != nil {
		return s.Resume()
	}
	return nil
}

// Stop stops id and removes it
func (r *SessionRegistry) Stop(id SessionID) {
	s := r.lookup(id)
	if s == nil {
		return
	}
	s.Stop()
	delete(r.sessions, id)
}

// SetFinishCallback attaches cb to a live session, replacing any earlier one
func (r *SessionRegistry) SetFinishCallback(id SessionID, cb FinishCallback) {
	if s := r.lookup(id); s != nil && !s.state.Terminal() {
		s.finishCallback = cb
	}
}

// SetVolume routes a volume change to id
func (r *SessionRegistry) SetVolume(id SessionID, volume float64) {
	if s := r.lookup(id); s != nil {
		s.SetVolume(volume)
	}
}

// SetLoop routes a loop change to id. Unknown ids are a no-op.
func (r *SessionRegistry) SetLoop(id SessionID, loop bool) error {
	if s := r.lookup(id); s != nil {
		return s.SetLoop(loop)
	}
	return nil
}

// Seek moves id to offset
func (r *SessionRegistry) Seek(id SessionID, offset time.Duration) error {
	if s := r.lookup(id); s != nil {
		return s.Seek(offset)
	}
	return nil
}

// Duration returns the buffer length of id in seconds, or DurationUnknown
func (r *SessionRegistry) Duration(id SessionID) float64 {
	if s := r.lookup(id); s != nil {
		return seconds(s.Duration())
	}
	return DurationUnknown
}

// CurrentTime returns the elapsed seconds of id, or 0
func (r *SessionRegistry) CurrentTime(id SessionID) float64 {
	if s := r.lookup(id); s != nil {
		return seconds(s.CurrentTime())
	}
	return 0
}

// StopAll stops and removes every session. No finish events are emitted.
func (r *SessionRegistry) StopAll() int {
	n := len(r.sessions)
	for id, s := range r.sessions {
		s.Stop()
		delete(r.sessions, id)
	}
	return n
}

// ResetAll drops every session without transitioning it.
// Only for teardown, when the output itself is about to go away.
func (r *SessionRegistry) ResetAll() {
	clear(r.sessions)
}

// IDs returns the live ids in ascending order
func (r *SessionRegistry) IDs() []SessionID {
	ids := make([]SessionID, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len returns the number of live sessions
func (r *SessionRegistry) Len() int {
	return len(r.sessions)
}

// LastID returns the most recently allocated id, 0 if none
func (r *SessionRegistry) LastID() SessionID {
	return r.lastID
}

// finished removes a naturally completed session, then reports it
func (r *SessionRegistry) finished(s *PlaybackSession) {
	delete(r.sessions, s.id)
	if r.deps.debug {
		log.Printf("Session %d finished (%s)", s.id, s.path)
	}
	cb := s.finishCallback
	s.finishCallback = nil
	if r.onFinish != nil {
		r.onFinish(s.id, s.path, cb)
	}
}
