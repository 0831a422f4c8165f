// ABOUTME: Silent audio output
// ABOUTME: Records voice lifecycle without a device, for headless hosts and tests
package output

import (
	"fmt"
	"sync"
	"time"

	"github.com/Resonate-Protocol/audioengine-go/pkg/audio"
)

// Null is an Output that plays nothing but remembers every voice it created
type Null struct {
	mu     sync.Mutex
	voices []*NullVoice
	fail   error
	closed bool
}

// NullVoice is the voice type created by Null
type NullVoice struct {
	mu       sync.Mutex
	buffer   *audio.Buffer
	loop     bool
	started  bool
	offset   time.Duration
	gain     float64
	stopped  bool
	released bool
}

// NewNull creates a silent output
func NewNull() *Null {
	return &Null{}
}

// SetFailure makes every later NewVoice call fail with err. nil clears it.
func (n *Null) SetFailure(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.fail = err
}

// NewVoice records a new voice
func (n *Null) NewVoice(buf *audio.Buffer, loop bool) (Voice, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil, fmt.Errorf("null output closed")
	}
	if n.fail != nil {
		return nil, n.fail
	}

	v := &NullVoice{buffer: buf, loop: loop, gain: 1}
	n.voices = append(n.voices, v)
	return v, nil
}

// Voices returns every voice created so far, in creation order
func (n *Null) Voices() []*NullVoice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*NullVoice(nil), n.voices...)
}

// Active counts voices that are started and not yet stopped or released
func (n *Null) Active() int {
	count := 0
	for _, v := range n.Voices() {
		if v.Playing() {
			count++
		}
	}
	return count
}

// Close stops every voice
func (n *Null) Close() error {
	n.mu.Lock()
	n.closed = true
	voices := append([]*NullVoice(nil), n.voices...)
	n.mu.Unlock()

	for _, v := range voices {
		v.Stop()
	}
	return nil
}

// Start marks the voice as playing from offset
func (v *NullVoice) Start(offset time.Duration) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.released {
		return fmt.Errorf("voice released")
	}
	v.started = true
	v.stopped = false
	v.offset = offset
	return nil
}

// SetGain records the volume
func (v *NullVoice) SetGain(volume float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.gain = clampGain(volume)
}

// Stop marks the voice as stopped
func (v *NullVoice) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stopped = true
}

// Release marks the voice as released
func (v *NullVoice) Release() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stopped = true
	v.released = true
	return nil
}

// Playing reports whether the voice is started and neither stopped nor released
func (v *NullVoice) Playing() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.started && !v.stopped && !v.released
}

// Released reports whether Release was called
func (v *NullVoice) Released() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.released
}

// Offset returns the offset passed to the last Start
func (v *NullVoice) Offset() time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.offset
}

// Gain returns the last gain applied
func (v *NullVoice) Gain() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.gain
}

// Loop reports whether the voice was created looping
func (v *NullVoice) Loop() bool {
	return v.loop
}

// Buffer returns the buffer the voice plays
func (v *NullVoice) Buffer() *audio.Buffer {
	return v.buffer
}
