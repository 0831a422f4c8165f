//go:build (linux && cgo) || windows || darwin

// ABOUTME: Beep speaker audio output implementation
// ABOUTME: Mixes voices through beep's speaker with an effects.Volume gain stage
package output

import (
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/Resonate-Protocol/audioengine-go/pkg/audio"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
)

// Beep output implementation using the beep speaker mixer
type Beep struct {
	config     BeepConfig
	sampleRate beep.SampleRate

	initOnce sync.Once
	initErr  error
}

type beepVoice struct {
	out    *Beep
	buffer *audio.Buffer
	loop   bool

	mu     sync.Mutex
	ctrl   *beep.Ctrl
	volume *effects.Volume
	gain   float64
}

// NewBeep creates a new beep output
func NewBeep(config BeepConfig) (Output, error) {
	config = config.withDefaults()
	return &Beep{
		config:     config,
		sampleRate: beep.SampleRate(config.SampleRate),
	}, nil
}

func (b *Beep) init() error {
	b.initOnce.Do(func() {
		if err := speaker.Init(b.sampleRate, b.sampleRate.N(b.config.BufferSize)); err != nil {
			b.initErr = fmt.Errorf("failed to init speaker: %w", err)
			return
		}
		log.Printf("Speaker initialized: %dHz", b.config.SampleRate)
	})
	return b.initErr
}

// NewVoice prepares a voice for buf
func (b *Beep) NewVoice(buf *audio.Buffer, loop bool) (Voice, error) {
	if err := b.init(); err != nil {
		return nil, err
	}
	return &beepVoice{out: b, buffer: buf, loop: loop, gain: 1}, nil
}

// Close removes every streamer from the speaker
func (b *Beep) Close() error {
	if b.initErr == nil {
		speaker.Clear()
	}
	return nil
}

// Start plays the buffer from offset through a fresh control chain
func (v *beepVoice) Start(offset time.Duration) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.detachLocked()

	var s beep.Streamer = newBufferStreamer(v.buffer, v.buffer.FrameAt(offset), v.loop)
	if sourceRate := beep.SampleRate(v.buffer.Format.SampleRate); sourceRate != v.out.sampleRate {
		s = beep.Resample(v.out.config.ResampleQuality, sourceRate, v.out.sampleRate, s)
	}

	v.ctrl = &beep.Ctrl{Streamer: s}
	v.volume = &effects.Volume{Streamer: v.ctrl, Base: 2}
	applyBeepGain(v.volume, v.gain)

	speaker.Play(v.volume)
	return nil
}

// SetGain updates the volume effect
func (v *beepVoice) SetGain(volume float64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.gain = clampGain(volume)
	if v.volume != nil {
		speaker.Lock()
		applyBeepGain(v.volume, v.gain)
		speaker.Unlock()
	}
}

// Stop detaches the voice from the speaker mixer
func (v *beepVoice) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.detachLocked()
}

// Release stops the voice
func (v *beepVoice) Release() error {
	v.Stop()
	return nil
}

// detachLocked empties the control so the mixer drops it on the next pass
func (v *beepVoice) detachLocked() {
	if v.ctrl == nil {
		return
	}
	speaker.Lock()
	v.ctrl.Paused = true
	v.ctrl.Streamer = nil
	speaker.Unlock()
	v.ctrl = nil
	v.volume = nil
}

// applyBeepGain converts linear gain to effects.Volume's base-2 exponent
func applyBeepGain(vol *effects.Volume, gain float64) {
	if gain <= 0 {
		vol.Silent = true
		return
	}
	vol.Silent = false
	vol.Volume = math.Log2(gain)
}
