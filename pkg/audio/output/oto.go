//go:build (linux && cgo) || windows || darwin

// ABOUTME: Oto-based audio output implementation
// ABOUTME: Plays each voice on its own oto player with device-ready PCM reuse
package output

import (
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/Resonate-Protocol/audioengine-go/pkg/audio"
	"github.com/Resonate-Protocol/audioengine-go/pkg/audio/encode"
	"github.com/Resonate-Protocol/audioengine-go/pkg/audio/resample"
	"github.com/ebitengine/oto/v3"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Oto output implementation using oto library
type Oto struct {
	config  OtoConfig
	encoder *encode.PCMEncoder

	// oto allows one context per process, created on first use
	initOnce sync.Once
	initErr  error
	otoCtx   *oto.Context

	// Device-ready PCM keyed by decoded buffer, shared by voices of the same asset
	prepared *lru.Cache[*audio.Buffer, []byte]

	mu     sync.Mutex
	voices map[*otoVoice]struct{}
}

type otoVoice struct {
	out    *Oto
	buffer *audio.Buffer
	pcm    []byte
	loop   bool

	mu     sync.Mutex
	player *oto.Player
	gain   float64
}

// NewOto creates a new Oto output
func NewOto(config OtoConfig) (Output, error) {
	config = config.withDefaults()

	encoder, err := encode.NewPCM(16)
	if err != nil {
		return nil, err
	}

	prepared, err := lru.New[*audio.Buffer, []byte](config.PreparedSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create PCM cache: %w", err)
	}

	return &Oto{
		config:   config,
		encoder:  encoder,
		prepared: prepared,
		voices:   make(map[*otoVoice]struct{}),
	}, nil
}

func (o *Oto) init() error {
	o.initOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   o.config.SampleRate,
			ChannelCount: o.config.Channels,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   o.config.BufferSize,
		}

		ctx, readyChan, err := oto.NewContext(op)
		if err != nil {
			o.initErr = fmt.Errorf("failed to create oto context: %w", err)
			return
		}
		<-readyChan

		o.otoCtx = ctx
		log.Printf("Audio output initialized: %dHz, %d channels", o.config.SampleRate, o.config.Channels)
	})
	return o.initErr
}

// prepare renders buf at the device rate and channel count as 16-bit PCM
func (o *Oto) prepare(buf *audio.Buffer) ([]byte, error) {
	if pcm, ok := o.prepared.Get(buf); ok {
		return pcm, nil
	}

	converted := resample.Buffer(buf, o.config.SampleRate)
	samples := encode.Remix(converted.Samples, converted.Format.Channels, o.config.Channels)

	pcm, err := o.encoder.Encode(samples)
	if err != nil {
		return nil, fmt.Errorf("encode PCM: %w", err)
	}

	o.prepared.Add(buf, pcm)
	return pcm, nil
}

// NewVoice prepares a voice for buf
func (o *Oto) NewVoice(buf *audio.Buffer, loop bool) (Voice, error) {
	if err := o.init(); err != nil {
		return nil, err
	}

	pcm, err := o.prepare(buf)
	if err != nil {
		return nil, err
	}

	v := &otoVoice{out: o, buffer: buf, pcm: pcm, loop: loop, gain: 1}

	o.mu.Lock()
	o.voices[v] = struct{}{}
	o.mu.Unlock()

	return v, nil
}

// Close releases every voice and suspends the device
func (o *Oto) Close() error {
	o.mu.Lock()
	voices := make([]*otoVoice, 0, len(o.voices))
	for v := range o.voices {
		voices = append(voices, v)
	}
	o.mu.Unlock()

	for _, v := range voices {
		if err := v.Release(); err != nil {
			log.Printf("Error releasing voice: %v", err)
		}
	}

	o.prepared.Purge()

	if o.otoCtx != nil {
		return o.otoCtx.Suspend()
	}
	return nil
}

// Start creates the oto player positioned at offset and plays it
func (v *otoVoice) Start(offset time.Duration) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.player != nil {
		v.player.Pause()
		if err := v.player.Close(); err != nil {
			log.Printf("Error closing previous player: %v", err)
		}
	}

	frameBytes := v.out.config.Channels * v.out.encoder.BytesPerSample()
	reader := newPCMReader(v.pcm, frameBytes, v.loop)
	frame := int64(offset.Seconds() * float64(v.out.config.SampleRate))
	if _, err := reader.Seek(frame*int64(frameBytes), io.SeekStart); err != nil {
		return fmt.Errorf("seek voice: %w", err)
	}

	v.player = v.out.otoCtx.NewPlayer(reader)
	v.player.SetVolume(v.gain)
	v.player.Play()
	return nil
}

// SetGain applies volume on the oto player
func (v *otoVoice) SetGain(volume float64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.gain = clampGain(volume)
	if v.player != nil {
		v.player.SetVolume(v.gain)
	}
}

// Stop pauses the oto player
func (v *otoVoice) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.player != nil {
		v.player.Pause()
	}
}

// Release closes the oto player
func (v *otoVoice) Release() error {
	v.mu.Lock()
	var err error
	if v.player != nil {
		v.player.Pause()
		err = v.player.Close()
		v.player = nil
	}
	v.mu.Unlock()

	v.out.mu.Lock()
	delete(v.out.voices, v)
	v.out.mu.Unlock()

	return err
}
