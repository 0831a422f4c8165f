// ABOUTME: Audio engine facade
// ABOUTME: Composes the decode cache and session registry behind one serialized API
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/Resonate-Protocol/audioengine-go/pkg/audio/decode"
	"github.com/Resonate-Protocol/audioengine-go/pkg/audio/output"
	"github.com/Resonate-Protocol/audioengine-go/pkg/clock"
	"github.com/samber/lo"
)

// DefaultMaxConcurrentDecodes bounds decodes running at once when unset
const DefaultMaxConcurrentDecodes = 4

// Config configures an Engine
type Config struct {
	// Storage supplies encoded asset bytes (required)
	Storage Storage

	// Decoder decodes assets (default: decode.NewDefaultRegistry())
	Decoder Decoder

	// Output plays sessions (default: output.NewNull()). The engine closes it on Close.
	Output output.Output

	// Clock drives timing (default: clock.NewSystem())
	Clock clock.Clock

	// MaxConcurrentDecodes bounds parallel decodes (default: 4)
	MaxConcurrentDecodes int

	// StrictCodec disables decoding after any unsupported-format failure.
	// By default only decode.ErrCodecUnavailable disables it and an
	// unsupported or corrupt asset fails just its own preload.
	StrictCodec bool

	// Debug enables debug logging
	Debug bool

	// OnDecodeComplete is called once per preload with its outcome
	OnDecodeComplete func(path string, success bool)

	// OnPlaybackFinished is called when a non-looping session reaches its end
	OnPlaybackFinished func(id SessionID, path string)

	// OnError is called when Play cannot create a session
	OnError func(err error)
}

// Engine is the public surface of the audio engine.
// All methods are safe for concurrent use and never block on decoding.
// Callbacks run on a single goroutine in the order their events happened,
// and may call back into the Engine.
type Engine struct {
	config Config

	mu       sync.Mutex
	closed   bool
	cache    *DecodeCache
	registry *SessionRegistry
	events   *dispatcher

	ctx    context.Context
	cancel context.CancelFunc
}

// Snapshot is a point-in-time view of the engine
type Snapshot struct {
	Preloaded      []string
	Sessions       []SessionInfo
	Available      bool
	PendingDecodes int
}

// New creates an engine
func New(config Config) (*Engine, error) {
	if config.Storage == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if config.Decoder == nil {
		config.Decoder = decode.NewDefaultRegistry()
	}
	if config.Output == nil {
		config.Output = output.NewNull()
	}
	if config.Clock == nil {
		config.Clock = clock.NewSystem()
	}
	if config.MaxConcurrentDecodes <= 0 {
		config.MaxConcurrentDecodes = DefaultMaxConcurrentDecodes
	}

	ctx, cancel := context.WithCancel(context.Background())

	e := &Engine{
		config: config,
		events: newDispatcher(),
		ctx:    ctx,
		cancel: cancel,
	}

	e.cache = newDecodeCache(ctx, cacheConfig{
		storage:        config.Storage,
		decoder:        config.Decoder,
		exec:           e.exec,
		maxConcurrency: int64(config.MaxConcurrentDecodes),
		strictCodec:    config.StrictCodec,
		debug:          config.Debug,
	})

	e.registry = newSessionRegistry(sessionDeps{
		clock:  config.Clock,
		output: config.Output,
		exec:   e.exec,
		debug:  config.Debug,
	}, e.playbackFinished)

	return e, nil
}

// exec runs fn under the engine lock. Work arriving after Close is dropped.
func (e *Engine) exec(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	fn()
}

// Preload decodes path in the background and reports through OnDecodeComplete.
// Preloading a cached path reports success without decoding again.
func (e *Engine) Preload(path string) {
	e.exec(func() {
		e.cache.Preload(path, e.decodeComplete)
	})
}

// Uncache evicts path. Live sessions keep playing their buffer.
func (e *Engine) Uncache(path string) {
	e.exec(func() {
		e.cache.Uncache(path)
	})
}

// UncacheAll evicts every path. Decodes still in flight will repopulate the cache.
func (e *Engine) UncacheAll() {
	e.exec(func() {
		e.cache.UncacheAll()
	})
}

// Play starts a session for a preloaded path. It returns InvalidSessionID when
// the decoder is unavailable, the path is not cached or no voice could be created.
func (e *Engine) Play(path string, loop bool, volume float64) SessionID {
	id, _ := e.PlaySession(path, loop, volume)
	return id
}

// PlaySession is Play with the reason for a failure
func (e *Engine) PlaySession(path string, loop bool, volume float64) (SessionID, error) {
	id := InvalidSessionID
	var err error

	e.mu.Lock()
	switch {
	case e.closed:
		err = ErrClosed
	case !e.cache.Available():
		err = fmt.Errorf("play %s: %w", path, ErrDecodeUnavailable)
	default:
		buf, _ := e.cache.Get(path)
		id, err = e.registry.Create(path, buf, loop, volume)
		if err != nil {
			err = fmt.Errorf("play %s: %w", path, err)
		}
	}
	if err != nil {
		e.reportError(err)
	}
	e.mu.Unlock()

	if err != nil {
		return InvalidSessionID, err
	}
	return id, nil
}

// Pause pauses a session
func (e *Engine) Pause(id SessionID) {
	e.exec(func() {
		e.registry.Pause(id)
	})
}

// Resume resumes a paused session. A session whose voice cannot be
// re-acquired stays paused and the failure goes to OnError.
func (e *Engine) Resume(id SessionID) {
	e.exec(func() {
		if err := e.registry.Resume(id); err != nil {
			e.reportError(err)
		}
	})
}

// Stop stops a session without a finish event
func (e *Engine) Stop(id SessionID) {
	e.exec(func() {
		e.registry.Stop(id)
	})
}

// SetFinishCallback registers cb for one session. It runs once, after
// OnPlaybackFinished, when the session reaches its natural end. Stop, StopAll
// and Close discard it. Unknown ids are ignored.
func (e *Engine) SetFinishCallback(id SessionID, cb FinishCallback) {
	e.exec(func() {
		e.registry.SetFinishCallback(id, cb)
	})
}

// SetVolume changes the volume of a session
func (e *Engine) SetVolume(id SessionID, volume float64) {
	e.exec(func() {
		e.registry.SetVolume(id, volume)
	})
}

// SetLoop fails with ErrUnsupported for live sessions
func (e *Engine) SetLoop(id SessionID, loop bool) error {
	err := ErrClosed
	e.exec(func() {
		err = e.registry.SetLoop(id, loop)
	})
	return err
}

// SetCurrentTime moves a session to offset seconds
func (e *Engine) SetCurrentTime(id SessionID, offset float64) error {
	err := ErrClosed
	e.exec(func() {
		err = e.registry.Seek(id, fromSeconds(offset))
	})
	return err
}

// Duration returns the buffer length of a session in seconds, or DurationUnknown
func (e *Engine) Duration(id SessionID) float64 {
	d := DurationUnknown
	e.exec(func() {
		d = e.registry.Duration(id)
	})
	return d
}

// CurrentTime returns the elapsed seconds of a session, or 0
func (e *Engine) CurrentTime(id SessionID) float64 {
	var t float64
	e.exec(func() {
		t = e.registry.CurrentTime(id)
	})
	return t
}

// State returns the state of a live session
func (e *Engine) State(id SessionID) (State, bool) {
	var (
		state State
		ok    bool
	)
	e.exec(func() {
		var s *PlaybackSession
		if s, ok = e.registry.Get(id); ok {
			state = s.State()
		}
	})
	return state, ok
}

// StopAll stops every live session without finish events and returns how many were stopped
func (e *Engine) StopAll() int {
	var n int
	e.exec(func() {
		n = e.registry.StopAll()
	})
	if n > 0 {
		log.Printf("Stopped %d sessions", n)
	}
	return n
}

// IsCached reports whether path has a decoded buffer
func (e *Engine) IsCached(path string) bool {
	var ok bool
	e.exec(func() {
		_, ok = e.cache.Get(path)
	})
	return ok
}

// Available reports whether the decoder can still be used
func (e *Engine) Available() bool {
	var ok bool
	e.exec(func() {
		ok = e.cache.Available()
	})
	return ok
}

// Snapshot returns the cached paths and live sessions
func (e *Engine) Snapshot() Snapshot {
	var snap Snapshot
	e.exec(func() {
		snap = Snapshot{
			Preloaded: e.cache.Paths(),
			Sessions: lo.Map(e.registry.IDs(), func(id SessionID, _ int) SessionInfo {
				s, _ := e.registry.Get(id)
				return s.Info()
			}),
			Available:      e.cache.Available(),
			PendingDecodes: e.cache.Inflight(),
		}
	})
	return snap
}

// Flush waits until every event emitted so far has been delivered.
// It must not be called from a callback.
func (e *Engine) Flush() {
	e.events.flush()
}

// Close stops every session, clears the cache and releases the output.
// Decodes and timers that complete afterwards are dropped.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	stopped := e.registry.StopAll()
	e.registry.ResetAll()
	e.cache.UncacheAll()
	e.closed = true
	e.mu.Unlock()

	e.cancel()
	e.events.close()
	log.Printf("Audio engine closed (%d sessions stopped)", stopped)

	if err := e.config.Output.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	return nil
}

// decodeComplete runs under the lock once a preload has an outcome
func (e *Engine) decodeComplete(path string, err error) {
	success := err == nil
	if !success {
		switch {
		case errors.Is(err, ErrDecodeUnavailable):
			if e.config.Debug {
				log.Printf("Preload %s rejected: %v", path, err)
			}
		default:
			log.Printf("Preload %s failed: %v", path, err)
		}
	}

	if e.config.OnDecodeComplete != nil {
		cb := e.config.OnDecodeComplete
		e.events.post(func() { cb(path, success) })
	}
}

// playbackFinished runs under the lock after a session was removed
func (e *Engine) playbackFinished(id SessionID, path string, sessionCB FinishCallback) {
	if e.config.OnPlaybackFinished != nil {
		cb := e.config.OnPlaybackFinished
		e.events.post(func() { cb(id, path) })
	}
	if sessionCB != nil {
		e.events.post(func() { sessionCB(id, path) })
	}
}

func (e *Engine) reportError(err error) {
	if e.config.Debug {
		log.Printf("Engine error: %v", err)
	}
	if e.config.OnError != nil {
		cb := e.config.OnError
		e.events.post(func() { cb(err) })
	}
}
