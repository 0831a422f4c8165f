// ABOUTME: Tests for the engine facade
// ABOUTME: Covers preload events, session lifecycle, timing and teardown
package engine

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Resonate-Protocol/audioengine-go/pkg/audio/decode"
	"github.com/Resonate-Protocol/audioengine-go/pkg/clock"
	"github.com/Resonate-Protocol/audioengine-go/pkg/storage"
)

func TestNew_RequiresStorage(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error without storage")
	}
}

func TestPlayToCompletion(t *testing.T) {
	te := newTestEngine(t, map[string]time.Duration{"a.mp3": 2 * time.Second})

	te.preload(t, "a.mp3")

	id := te.Play("a.mp3", false, 1.0)
	if id != 1 {
		t.Fatalf("expected id 1, got %d", id)
	}
	if d := te.Duration(id); !approx(d, 2.0) {
		t.Errorf("expected duration 2.0, got %f", d)
	}

	te.clock.Advance(2 * time.Second)
	te.Flush()

	finished := te.rec.finishes()
	if len(finished) != 1 || finished[0] != (finishEvent{1, "a.mp3"}) {
		t.Fatalf("expected one finish for session 1, got %+v", finished)
	}
	if d := te.Duration(id); d != DurationUnknown {
		t.Errorf("expected unknown duration after finish, got %f", d)
	}
	if te.output.Active() != 0 {
		t.Errorf("expected no active voices, got %d", te.output.Active())
	}
}

func TestPlayUncached(t *testing.T) {
	te := newTestEngine(t, nil)

	if id := te.Play("b.mp3", false, 1.0); id != InvalidSessionID {
		t.Fatalf("expected InvalidSessionID, got %d", id)
	}
	te.Flush()

	if n := len(te.Snapshot().Sessions); n != 0 {
		t.Errorf("expected no sessions, got %d", n)
	}
	errs := te.rec.errors()
	if len(errs) != 1 || !errors.Is(errs[0], ErrNotCached) {
		t.Errorf("expected ErrNotCached, got %v", errs)
	}
}

func TestPauseResume(t *testing.T) {
	te := newTestEngine(t, map[string]time.Duration{"a.mp3": 2 * time.Second})
	te.preload(t, "a.mp3")

	id := te.Play("a.mp3", false, 1.0)
	te.clock.Advance(500 * time.Millisecond)
	te.Pause(id)

	if ct := te.CurrentTime(id); !approx(ct, 0.5) {
		t.Fatalf("expected 0.5 after pause, got %f", ct)
	}

	// time spent paused does not count
	te.clock.Advance(10 * time.Second)
	if ct := te.CurrentTime(id); !approx(ct, 0.5) {
		t.Fatalf("expected 0.5 while paused, got %f", ct)
	}
	te.Flush()
	if f := te.rec.finishes(); len(f) != 0 {
		t.Fatalf("paused session finished: %+v", f)
	}

	te.Resume(id)
	if ct := te.CurrentTime(id); !approx(ct, 0.5) {
		t.Errorf("expected 0.5 right after resume, got %f", ct)
	}
	voices := te.output.Voices()
	if last := voices[len(voices)-1]; last.Offset() != 500*time.Millisecond {
		t.Errorf("expected voice restarted at 500ms, got %v", last.Offset())
	}

	te.clock.Advance(250 * time.Millisecond)
	if ct := te.CurrentTime(id); !approx(ct, 0.75) {
		t.Errorf("expected 0.75, got %f", ct)
	}

	te.clock.Advance(1250 * time.Millisecond)
	te.Flush()
	if f := te.rec.finishes(); len(f) != 1 {
		t.Errorf("expected finish after remaining 1.5s, got %+v", f)
	}
}

func TestPauseIsIdempotent(t *testing.T) {
	te := newTestEngine(t, map[string]time.Duration{"a.mp3": 2 * time.Second})
	te.preload(t, "a.mp3")

	id := te.Play("a.mp3", false, 1.0)
	te.clock.Advance(300 * time.Millisecond)
	te.Pause(id)
	te.clock.Advance(300 * time.Millisecond)
	te.Pause(id)

	if ct := te.CurrentTime(id); !approx(ct, 0.3) {
		t.Errorf("expected second pause to keep 0.3, got %f", ct)
	}

	te.Resume(id)
	n := len(te.output.Voices())
	// resume on a playing session does nothing
	te.Resume(id)
	if len(te.output.Voices()) != n {
		t.Error("resume of a playing session created a voice")
	}
}

func TestDecoderUnavailable(t *testing.T) {
	te := newTestEngine(t, map[string]time.Duration{
		"a.mp3":   time.Second,
		"bad.mp3": time.Second,
		"c.mp3":   time.Second,
	})
	te.preload(t, "a.mp3")

	te.decoder.setErr("bad.mp3", fmt.Errorf("no codec: %w", decode.ErrCodecUnavailable))
	te.Preload("bad.mp3")
	if ev := te.rec.waitDecode(t); ev.success {
		t.Fatalf("expected failure, got %+v", ev)
	}
	calls := te.decoder.Calls()

	if te.Available() {
		t.Error("expected decoder to be unavailable")
	}

	for _, path := range []string{"c.mp3", "a.mp3", "bad.mp3"} {
		te.Preload(path)
		if ev := te.rec.waitDecode(t); ev.success || ev.path != path {
			t.Errorf("preload %s: expected failure, got %+v", path, ev)
		}
	}
	if te.decoder.Calls() != calls {
		t.Errorf("decoder called %d more times", te.decoder.Calls()-calls)
	}

	if id := te.Play("a.mp3", false, 1.0); id != InvalidSessionID {
		t.Errorf("expected play to fail, got %d", id)
	}
}

func TestUnsupportedFormat(t *testing.T) {
	tests := []struct {
		name      string
		strict    bool
		available bool
	}{
		{"lenient", false, true},
		{"strict", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			te := newTestEngine(t, map[string]time.Duration{"x.xyz": time.Second},
				func(c *Config) { c.StrictCodec = tt.strict })

			te.decoder.setErr("x.xyz", fmt.Errorf("%w: .xyz", decode.ErrUnsupportedFormat))
			te.Preload("x.xyz")
			if ev := te.rec.waitDecode(t); ev.success {
				t.Fatalf("expected failure, got %+v", ev)
			}
			if te.Available() != tt.available {
				t.Errorf("expected available=%v", tt.available)
			}
		})
	}
}

func TestPreloadStorageFailure(t *testing.T) {
	te := newTestEngine(t, nil)

	te.Preload("missing.mp3")
	ev := te.rec.waitDecode(t)
	if ev.success || ev.path != "missing.mp3" {
		t.Fatalf("expected failure, got %+v", ev)
	}
	if te.decoder.Calls() != 0 {
		t.Errorf("decoder invoked %d times for unreadable asset", te.decoder.Calls())
	}
	if te.IsCached("missing.mp3") {
		t.Error("failed preload left a cache entry")
	}
	if !te.Available() {
		t.Error("storage failure must not disable the decoder")
	}
}

func TestPreloadCachedFastPath(t *testing.T) {
	te := newTestEngine(t, map[string]time.Duration{"a.mp3": time.Second})
	te.preload(t, "a.mp3")
	te.preload(t, "a.mp3")

	if te.decoder.Calls() != 1 {
		t.Errorf("expected 1 decode, got %d", te.decoder.Calls())
	}
}

func TestUncacheIdempotent(t *testing.T) {
	te := newTestEngine(t, map[string]time.Duration{"a.mp3": time.Second, "b.mp3": time.Second})
	te.preload(t, "a.mp3")
	te.preload(t, "b.mp3")

	te.Uncache("a.mp3")
	once := te.Snapshot().Preloaded
	te.Uncache("a.mp3")
	twice := te.Snapshot().Preloaded

	if len(once) != 1 || len(twice) != 1 || once[0] != twice[0] {
		t.Errorf("expected [b.mp3] both times, got %v then %v", once, twice)
	}
	te.Uncache("never-loaded.mp3")
}

func TestUncacheKeepsPlayingSession(t *testing.T) {
	te := newTestEngine(t, map[string]time.Duration{"a.mp3": 2 * time.Second})
	te.preload(t, "a.mp3")

	id := te.Play("a.mp3", false, 1.0)
	te.Uncache("a.mp3")

	if te.IsCached("a.mp3") {
		t.Fatal("expected a.mp3 evicted")
	}
	if d := te.Duration(id); !approx(d, 2.0) {
		t.Errorf("expected session to keep its buffer, got duration %f", d)
	}
	if again := te.Play("a.mp3", false, 1.0); again != InvalidSessionID {
		t.Errorf("expected play after uncache to fail, got %d", again)
	}

	te.clock.Advance(2 * time.Second)
	te.Flush()
	if f := te.rec.finishes(); len(f) != 1 || f[0].id != id {
		t.Errorf("expected finish for %d, got %+v", id, f)
	}
}

func TestUncacheAllDuringDecode(t *testing.T) {
	te := newTestEngine(t, map[string]time.Duration{"a.mp3": time.Second, "b.mp3": time.Second})
	te.preload(t, "b.mp3")

	gate := make(chan struct{})
	te.decoder.setGate(gate)
	te.Preload("a.mp3")

	te.UncacheAll()
	snap := te.Snapshot()
	if len(snap.Preloaded) != 0 {
		t.Errorf("expected empty cache, got %v", snap.Preloaded)
	}
	if snap.PendingDecodes != 1 {
		t.Errorf("expected 1 pending decode, got %d", snap.PendingDecodes)
	}

	close(gate)
	if ev := te.rec.waitDecode(t); !ev.success || ev.path != "a.mp3" {
		t.Fatalf("expected in-flight decode to complete, got %+v", ev)
	}
	if !te.IsCached("a.mp3") {
		t.Error("expected late completion to repopulate the cache")
	}
	if te.IsCached("b.mp3") {
		t.Error("expected b.mp3 to stay evicted")
	}
}

func TestDuplicatePreloadsBothDecode(t *testing.T) {
	te := newTestEngine(t, map[string]time.Duration{"a.mp3": time.Second})

	gate := make(chan struct{})
	te.decoder.setGate(gate)
	te.Preload("a.mp3")
	te.Preload("a.mp3")
	close(gate)

	for i := 0; i < 2; i++ {
		if ev := te.rec.waitDecode(t); !ev.success {
			t.Fatalf("decode %d failed", i)
		}
	}
	if te.decoder.Calls() != 2 {
		t.Errorf("expected 2 decodes, got %d", te.decoder.Calls())
	}
}

func TestSessionIDsMonotonic(t *testing.T) {
	te := newTestEngine(t, map[string]time.Duration{"a.mp3": time.Second})
	te.preload(t, "a.mp3")

	var last SessionID
	paths := []string{"a.mp3", "nope.mp3", "a.mp3", "nope.mp3", "nope.mp3", "a.mp3"}
	var ids []SessionID
	for _, p := range paths {
		id := te.Play(p, false, 1.0)
		if id == InvalidSessionID {
			continue
		}
		if id <= last {
			t.Fatalf("id %d not greater than %d", id, last)
		}
		last = id
		ids = append(ids, id)
	}

	// failed creations still consume ids
	want := []SessionID{1, 3, 6}
	if fmt.Sprint(ids) != fmt.Sprint(want) {
		t.Errorf("expected ids %v, got %v", want, ids)
	}
}

func TestFinishEmittedOnce(t *testing.T) {
	te := newTestEngine(t, map[string]time.Duration{"a.mp3": time.Second})
	te.preload(t, "a.mp3")

	id := te.Play("a.mp3", false, 1.0)
	te.clock.Advance(time.Second)
	te.clock.Advance(5 * time.Second)
	te.Pause(id)
	te.Resume(id)
	te.clock.Advance(5 * time.Second)
	te.Flush()

	if f := te.rec.finishes(); len(f) != 1 {
		t.Errorf("expected exactly one finish, got %+v", f)
	}
	if _, ok := te.State(id); ok {
		t.Error("finished session still registered")
	}
}

func TestStopSuppressesFinish(t *testing.T) {
	te := newTestEngine(t, map[string]time.Duration{"a.mp3": 2 * time.Second})
	te.preload(t, "a.mp3")

	id := te.Play("a.mp3", false, 1.0)
	te.clock.Advance(time.Second)
	te.Stop(id)
	te.clock.Advance(5 * time.Second)
	te.Flush()

	if f := te.rec.finishes(); len(f) != 0 {
		t.Errorf("expected no finish after stop, got %+v", f)
	}
	if te.clock.Pending() != 0 {
		t.Errorf("expected completion timer cancelled, %d pending", te.clock.Pending())
	}
	if d := te.Duration(id); d != DurationUnknown {
		t.Errorf("expected stopped session removed, got duration %f", d)
	}
}

func TestLoopingSession(t *testing.T) {
	te := newTestEngine(t, map[string]time.Duration{"loop.ogg": 2 * time.Second})
	te.preload(t, "loop.ogg")

	id := te.Play("loop.ogg", true, 0.5)
	if te.clock.Pending() != 0 {
		t.Error("looping session armed a completion timer")
	}

	te.clock.Advance(5300 * time.Millisecond)
	if ct := te.CurrentTime(id); !approx(ct, 1.3) {
		t.Errorf("expected 1.3, got %f", ct)
	}

	te.Pause(id)
	if ct := te.CurrentTime(id); !approx(ct, 1.3) {
		t.Errorf("expected pause offset 1.3, got %f", ct)
	}
	te.Resume(id)
	te.clock.Advance(10 * time.Second)
	te.Flush()

	if f := te.rec.finishes(); len(f) != 0 {
		t.Errorf("looping session finished: %+v", f)
	}
	if state, _ := te.State(id); state != StatePlaying {
		t.Errorf("expected playing, got %s", state)
	}
}

func TestSetLoop(t *testing.T) {
	te := newTestEngine(t, map[string]time.Duration{"a.mp3": time.Second})
	te.preload(t, "a.mp3")
	id := te.Play("a.mp3", false, 1.0)

	if err := te.SetLoop(id, true); !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
	if err := te.SetLoop(999, true); err != nil {
		t.Errorf("expected no-op for unknown id, got %v", err)
	}
}

func TestSetVolume(t *testing.T) {
	te := newTestEngine(t, map[string]time.Duration{"a.mp3": time.Second})
	te.preload(t, "a.mp3")

	id := te.Play("a.mp3", false, 0.8)
	voice := te.output.Voices()[0]
	if voice.Gain() != 0.8 {
		t.Errorf("expected initial gain 0.8, got %f", voice.Gain())
	}

	te.SetVolume(id, 0.3)
	if voice.Gain() != 0.3 {
		t.Errorf("expected gain 0.3, got %f", voice.Gain())
	}

	// volume set while paused applies on resume
	te.Pause(id)
	te.SetVolume(id, 0.6)
	te.Resume(id)
	voices := te.output.Voices()
	if g := voices[len(voices)-1].Gain(); g != 0.6 {
		t.Errorf("expected resumed gain 0.6, got %f", g)
	}
}

func TestUnknownSessionIDs(t *testing.T) {
	te := newTestEngine(t, nil)

	te.Pause(42)
	te.Resume(42)
	te.Stop(42)
	te.SetVolume(42, 0.5)

	if d := te.Duration(42); d != DurationUnknown {
		t.Errorf("expected DurationUnknown, got %f", d)
	}
	if ct := te.CurrentTime(42); ct != 0 {
		t.Errorf("expected 0, got %f", ct)
	}
	if err := te.SetCurrentTime(42, 1); err != nil {
		t.Errorf("expected no-op seek, got %v", err)
	}
	te.Flush()
	if errs := te.rec.errors(); len(errs) != 0 {
		t.Errorf("unknown ids reported errors: %v", errs)
	}
}

func TestStopAll(t *testing.T) {
	te := newTestEngine(t, map[string]time.Duration{"a.mp3": time.Second, "b.mp3": time.Second})
	te.preload(t, "a.mp3")
	te.preload(t, "b.mp3")

	te.Play("a.mp3", false, 1.0)
	paused := te.Play("b.mp3", false, 1.0)
	te.Play("b.mp3", true, 1.0)
	te.Pause(paused)

	if n := te.StopAll(); n != 3 {
		t.Errorf("expected 3 stopped, got %d", n)
	}
	te.clock.Advance(5 * time.Second)
	te.Flush()

	if f := te.rec.finishes(); len(f) != 0 {
		t.Errorf("expected no finish events, got %+v", f)
	}
	if te.output.Active() != 0 {
		t.Errorf("expected no active voices, got %d", te.output.Active())
	}
	if n := te.StopAll(); n != 0 {
		t.Errorf("expected nothing left to stop, got %d", n)
	}

	// ids keep counting after StopAll
	if id := te.Play("a.mp3", false, 1.0); id != 4 {
		t.Errorf("expected id 4, got %d", id)
	}
}

func TestSetCurrentTime(t *testing.T) {
	te := newTestEngine(t, map[string]time.Duration{"a.mp3": 2 * time.Second})
	te.preload(t, "a.mp3")
	id := te.Play("a.mp3", false, 1.0)

	if err := te.SetCurrentTime(id, 1.5); err != nil {
		t.Fatalf("seek: %v", err)
	}
	if ct := te.CurrentTime(id); !approx(ct, 1.5) {
		t.Errorf("expected 1.5, got %f", ct)
	}
	voices := te.output.Voices()
	if off := voices[len(voices)-1].Offset(); off != 1500*time.Millisecond {
		t.Errorf("expected voice at 1.5s, got %v", off)
	}
	if voices[0].Playing() {
		t.Error("expected original voice released")
	}

	for _, bad := range []float64{-1, 2.5} {
		if err := te.SetCurrentTime(id, bad); !errors.Is(err, ErrInvalidOffset) {
			t.Errorf("seek %f: expected ErrInvalidOffset, got %v", bad, err)
		}
	}

	te.clock.Advance(500 * time.Millisecond)
	te.Flush()
	if f := te.rec.finishes(); len(f) != 1 {
		t.Errorf("expected finish 0.5s after seeking to 1.5s, got %+v", f)
	}
}

func TestSetCurrentTimePaused(t *testing.T) {
	te := newTestEngine(t, map[string]time.Duration{"a.mp3": 2 * time.Second, "l.wav": time.Second})
	te.preload(t, "a.mp3")
	te.preload(t, "l.wav")

	id := te.Play("a.mp3", false, 1.0)
	te.Pause(id)
	if err := te.SetCurrentTime(id, 0.25); err != nil {
		t.Fatalf("seek: %v", err)
	}
	if state, _ := te.State(id); state != StatePaused {
		t.Errorf("expected paused, got %s", state)
	}
	if ct := te.CurrentTime(id); !approx(ct, 0.25) {
		t.Errorf("expected 0.25, got %f", ct)
	}

	loop := te.Play("l.wav", true, 1.0)
	if err := te.SetCurrentTime(loop, 2.4); err != nil {
		t.Fatalf("loop seek: %v", err)
	}
	if ct := te.CurrentTime(loop); !approx(ct, 0.4) {
		t.Errorf("expected loop seek to wrap to 0.4, got %f", ct)
	}
}

func TestPlayOutputFailure(t *testing.T) {
	te := newTestEngine(t, map[string]time.Duration{"a.mp3": time.Second})
	te.preload(t, "a.mp3")

	te.output.SetFailure(errors.New("device busy"))
	if id := te.Play("a.mp3", false, 1.0); id != InvalidSessionID {
		t.Fatalf("expected failure, got %d", id)
	}
	te.Flush()
	if errs := te.rec.errors(); len(errs) != 1 {
		t.Errorf("expected one error, got %v", errs)
	}

	te.output.SetFailure(nil)
	if id := te.Play("a.mp3", false, 1.0); id != 2 {
		t.Errorf("expected id 2 after failed creation, got %d", id)
	}
}

func TestResumeOutputFailure(t *testing.T) {
	te := newTestEngine(t, map[string]time.Duration{"a.mp3": 2 * time.Second})
	te.preload(t, "a.mp3")

	id := te.Play("a.mp3", false, 1.0)
	te.clock.Advance(time.Second)
	te.Pause(id)

	te.output.SetFailure(errors.New("device lost"))
	te.Resume(id)
	te.Flush()

	if state, _ := te.State(id); state != StatePaused {
		t.Errorf("expected session to stay paused, got %s", state)
	}
	if errs := te.rec.errors(); len(errs) != 1 {
		t.Errorf("expected resume error, got %v", errs)
	}

	te.output.SetFailure(nil)
	te.Resume(id)
	if state, _ := te.State(id); state != StatePlaying {
		t.Errorf("expected playing, got %s", state)
	}
	if ct := te.CurrentTime(id); !approx(ct, 1.0) {
		t.Errorf("expected 1.0, got %f", ct)
	}
}

func TestClose(t *testing.T) {
	te := newTestEngine(t, map[string]time.Duration{"a.mp3": 2 * time.Second})
	te.preload(t, "a.mp3")
	id := te.Play("a.mp3", false, 1.0)

	if err := te.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := te.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}

	if !te.output.Voices()[0].Released() {
		t.Error("expected voice released on close")
	}
	if d := te.Duration(id); d != DurationUnknown {
		t.Errorf("expected no sessions after close, got duration %f", d)
	}
	if te.Play("a.mp3", false, 1.0) != InvalidSessionID {
		t.Error("expected play to fail after close")
	}
	if err := te.SetLoop(id, true); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	te.clock.Advance(5 * time.Second)
	te.Preload("a.mp3")
	select {
	case ev := <-te.rec.finished:
		t.Errorf("unexpected finish after close: %+v", ev)
	case ev := <-te.rec.decoded:
		t.Errorf("unexpected decode after close: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCallbacksMayReenter(t *testing.T) {
	store := storage.NewMemory()
	if err := store.Put("a.mp3", []byte("a")); err != nil {
		t.Fatal(err)
	}
	dec := newFakeDecoder()
	dec.durations["a.mp3"] = time.Second
	clk := clock.NewManual()

	type result struct {
		duration float64
		next     SessionID
	}
	results := make(chan result, 1)
	decoded := make(chan bool, 1)

	var e *Engine
	var err error
	e, err = New(Config{
		Storage: store,
		Decoder: dec,
		Clock:   clk,
		OnDecodeComplete: func(path string, success bool) {
			decoded <- success
		},
		OnPlaybackFinished: func(id SessionID, path string) {
			results <- result{duration: e.Duration(id), next: e.Play(path, false, 1.0)}
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	e.Preload("a.mp3")
	if !<-decoded {
		t.Fatal("decode failed")
	}

	e.Play("a.mp3", false, 1.0)
	clk.Advance(time.Second)

	select {
	case r := <-results:
		if r.duration != DurationUnknown {
			t.Errorf("expected finished session gone, got %f", r.duration)
		}
		if r.next != 2 {
			t.Errorf("expected replay to get id 2, got %d", r.next)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("finish callback not delivered")
	}
}

func TestSnapshot(t *testing.T) {
	te := newTestEngine(t, map[string]time.Duration{"b.mp3": time.Second, "a.mp3": 2 * time.Second})
	te.preload(t, "b.mp3")
	te.preload(t, "a.mp3")

	first := te.Play("a.mp3", false, 0.5)
	second := te.Play("b.mp3", true, 1.0)
	te.clock.Advance(250 * time.Millisecond)
	te.Pause(first)

	snap := te.Snapshot()
	if fmt.Sprint(snap.Preloaded) != "[a.mp3 b.mp3]" {
		t.Errorf("expected sorted paths, got %v", snap.Preloaded)
	}
	if !snap.Available || snap.PendingDecodes != 0 {
		t.Errorf("unexpected snapshot status %+v", snap)
	}
	if len(snap.Sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(snap.Sessions))
	}

	want := []SessionInfo{
		{ID: first, Path: "a.mp3", State: StatePaused, Volume: 0.5, Duration: 2, CurrentTime: 0.25},
		{ID: second, Path: "b.mp3", State: StatePlaying, Loop: true, Volume: 1, Duration: 1, CurrentTime: 0.25},
	}
	for i, w := range want {
		if snap.Sessions[i] != w {
			t.Errorf("session %d: expected %+v, got %+v", i, w, snap.Sessions[i])
		}
	}
}

func TestSetFinishCallback(t *testing.T) {
	te := newTestEngine(t, map[string]time.Duration{"a.mp3": time.Second})
	te.preload(t, "a.mp3")

	var fired []finishEvent
	record := func(id SessionID, path string) { fired = append(fired, finishEvent{id, path}) }

	finishing := te.Play("a.mp3", false, 1)
	stopped := te.Play("a.mp3", false, 1)
	te.SetFinishCallback(finishing, record)
	te.SetFinishCallback(stopped, record)
	te.SetFinishCallback(99, record)

	te.Stop(stopped)
	te.clock.Advance(time.Second)
	te.clock.Advance(time.Second)
	te.Flush()

	if len(fired) != 1 || fired[0] != (finishEvent{finishing, "a.mp3"}) {
		t.Fatalf("expected one callback for session %d, got %+v", finishing, fired)
	}
	if n := len(te.rec.finishes()); n != 1 {
		t.Errorf("expected one global finish event, got %d", n)
	}
}

func TestSetFinishCallback_DroppedByStopAll(t *testing.T) {
	te := newTestEngine(t, map[string]time.Duration{"a.mp3": time.Second})
	te.preload(t, "a.mp3")

	calls := 0
	id := te.Play("a.mp3", false, 1)
	te.SetFinishCallback(id, func(SessionID, string) { calls++ })

	te.StopAll()
	te.clock.Advance(2 * time.Second)
	te.Flush()

	if calls != 0 {
		t.Errorf("expected no callback after StopAll, got %d", calls)
	}
}

func TestSetFinishCallback_RunsAfterGlobalEvent(t *testing.T) {
	var order []string
	te := newTestEngine(t, map[string]time.Duration{"a.mp3": time.Second}, func(c *Config) {
		c.OnPlaybackFinished = func(SessionID, string) { order = append(order, "global") }
	})
	te.preload(t, "a.mp3")

	id := te.Play("a.mp3", false, 1)
	te.SetFinishCallback(id, func(SessionID, string) { order = append(order, "session") })

	te.clock.Advance(time.Second)
	te.Flush()

	if len(order) != 2 || order[0] != "global" || order[1] != "session" {
		t.Errorf("expected [global session], got %v", order)
	}
}
