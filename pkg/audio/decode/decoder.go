// ABOUTME: Decoder interface and extension registry
// ABOUTME: Routes whole-asset decodes to the codec registered for a file extension
package decode

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/Resonate-Protocol/audioengine-go/pkg/audio"
)

var (
	// ErrUnsupportedFormat is returned when no decoder handles the asset's extension
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrInvalidData is returned when a decoder rejects the asset bytes
	ErrInvalidData = errors.New("invalid audio data")

	// ErrCodecUnavailable is returned when the decode backend itself cannot run
	ErrCodecUnavailable = errors.New("codec unavailable")
)

// DefaultRawFormat is the format assumed for headerless ".pcm" assets
var DefaultRawFormat = audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 16}

// Decoder decodes a complete encoded asset into PCM
type Decoder interface {
	// Decode converts encoded audio data to a decoded buffer
	Decode(data []byte) (*audio.Buffer, error)
}

// Registry maps file extensions to decoders
type Registry struct {
	mu       sync.RWMutex
	decoders map[string]Decoder
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		decoders: make(map[string]Decoder),
	}
}

// NewDefaultRegistry creates a registry with every built-in decoder
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(".mp3", NewMP3())
	r.Register(".flac", NewFLAC())
	r.Register(".wav", NewWAV())
	r.Register(".wave", NewWAV())
	r.Register(".aif", NewAIFF())
	r.Register(".aiff", NewAIFF())
	r.Register(".ogg", NewVorbis())
	r.Register(".oga", NewVorbis())
	if d, err := NewPCM(DefaultRawFormat); err == nil {
		r.Register(".pcm", d)
	}
	return r
}

// Register binds a decoder to an extension such as ".wav"
func (r *Registry) Register(ext string, d Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decoders[normalizeExt(ext)] = d
}

// RegisterRaw binds a headerless PCM decoder with a fixed format to an extension
func (r *Registry) RegisterRaw(ext string, format audio.Format) error {
	d, err := NewPCM(format)
	if err != nil {
		return fmt.Errorf("register %s: %w", ext, err)
	}
	r.Register(ext, d)
	return nil
}

// Lookup returns the decoder for an asset path
func (r *Registry) Lookup(assetPath string) (Decoder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.decoders[normalizeExt(path.Ext(assetPath))]
	return d, ok
}

// Extensions lists the registered extensions in sorted order
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.decoders))
	for ext := range r.decoders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// DecodeAsset decodes data using the decoder registered for assetPath's extension
func (r *Registry) DecodeAsset(assetPath string, data []byte) (*audio.Buffer, error) {
	r.mu.RLock()
	empty := len(r.decoders) == 0
	r.mu.RUnlock()
	if empty {
		return nil, fmt.Errorf("%w: no decoders registered", ErrCodecUnavailable)
	}

	d, ok := r.Lookup(assetPath)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, path.Ext(assetPath))
	}

	buf, err := d.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", assetPath, err)
	}
	if buf == nil {
		return nil, fmt.Errorf("decode %s: %w: no buffer", assetPath, ErrInvalidData)
	}
	if buf.Format.Channels <= 0 || buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("decode %s: %w: missing format", assetPath, ErrInvalidData)
	}
	return buf, nil
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
