// ABOUTME: Shared fixtures for engine tests
// ABOUTME: Fake decoder, event recorder and a manual-clock engine constructor
package engine

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/Resonate-Protocol/audioengine-go/pkg/audio"
	"github.com/Resonate-Protocol/audioengine-go/pkg/audio/output"
	"github.com/Resonate-Protocol/audioengine-go/pkg/clock"
	"github.com/Resonate-Protocol/audioengine-go/pkg/storage"
)

const testRate = 1000

// fakeDecoder produces silent mono buffers of a configured length per path
type fakeDecoder struct {
	mu        sync.Mutex
	durations map[string]time.Duration
	errs      map[string]error
	calls     int
	gate      chan struct{}
}

func newFakeDecoder() *fakeDecoder {
	return &fakeDecoder{
		durations: make(map[string]time.Duration),
		errs:      make(map[string]error),
	}
}

func (f *fakeDecoder) DecodeAsset(path string, data []byte) (*audio.Buffer, error) {
	f.mu.Lock()
	f.calls++
	err := f.errs[path]
	d := f.durations[path]
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}

	frames := int(d / (time.Second / testRate))
	return &audio.Buffer{
		Samples: make([]int32, frames),
		Format:  audio.Format{Codec: "test", SampleRate: testRate, Channels: 1, BitDepth: 16},
	}, nil
}

func (f *fakeDecoder) setErr(path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[path] = err
}

func (f *fakeDecoder) setGate(gate chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = gate
}

func (f *fakeDecoder) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type decodeEvent struct {
	path    string
	success bool
}

type finishEvent struct {
	id   SessionID
	path string
}

// recorder captures engine callbacks on buffered channels
type recorder struct {
	decoded  chan decodeEvent
	finished chan finishEvent
	errs     chan error
}

func newRecorder() *recorder {
	return &recorder{
		decoded:  make(chan decodeEvent, 64),
		finished: make(chan finishEvent, 64),
		errs:     make(chan error, 64),
	}
}

func (r *recorder) install(config *Config) {
	config.OnDecodeComplete = func(path string, success bool) {
		r.decoded <- decodeEvent{path, success}
	}
	config.OnPlaybackFinished = func(id SessionID, path string) {
		r.finished <- finishEvent{id, path}
	}
	config.OnError = func(err error) {
		r.errs <- err
	}
}

func (r *recorder) waitDecode(t *testing.T) decodeEvent {
	t.Helper()
	select {
	case ev := <-r.decoded:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for decode event")
		return decodeEvent{}
	}
}

// finishes drains the finish events delivered so far
func (r *recorder) finishes() []finishEvent {
	var events []finishEvent
	for {
		select {
		case ev := <-r.finished:
			events = append(events, ev)
		default:
			return events
		}
	}
}

func (r *recorder) errors() []error {
	var errs []error
	for {
		select {
		case err := <-r.errs:
			errs = append(errs, err)
		default:
			return errs
		}
	}
}

type testEngine struct {
	*Engine
	clock   *clock.Manual
	output  *output.Null
	decoder *fakeDecoder
	rec     *recorder
}

// newTestEngine builds an engine whose storage holds every path in durations
func newTestEngine(t *testing.T, durations map[string]time.Duration, configure ...func(*Config)) *testEngine {
	t.Helper()

	dec := newFakeDecoder()
	store := storage.NewMemory()
	for path, d := range durations {
		dec.durations[path] = d
		if err := store.Put(path, []byte("encoded:"+path)); err != nil {
			t.Fatalf("put %s: %v", path, err)
		}
	}

	te := &testEngine{
		clock:   clock.NewManual(),
		output:  output.NewNull(),
		decoder: dec,
		rec:     newRecorder(),
	}

	config := Config{
		Storage: store,
		Decoder: dec,
		Output:  te.output,
		Clock:   te.clock,
	}
	te.rec.install(&config)
	for _, fn := range configure {
		fn(&config)
	}

	e, err := New(config)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	te.Engine = e
	t.Cleanup(func() { e.Close() })
	return te
}

// preload loads path and fails the test unless it decodes
func (te *testEngine) preload(t *testing.T, path string) {
	t.Helper()
	te.Preload(path)
	ev := te.rec.waitDecode(t)
	if ev.path != path || !ev.success {
		t.Fatalf("preload %s: got %+v", path, ev)
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}
