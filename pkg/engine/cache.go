// ABOUTME: Path-keyed cache of decoded buffers
// ABOUTME: Owns decode requests, codec degradation and last-writer-wins completion
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/Resonate-Protocol/audioengine-go/pkg/audio"
	"github.com/Resonate-Protocol/audioengine-go/pkg/audio/decode"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/sync/semaphore"
)

// DecodeCache maps asset paths to decoded buffers.
// A path is present only after a successful decode that has not been evicted.
// In-flight decodes are not cache rows, and repeated preloads of the same path
// each decode, the last one to finish deciding the cached buffer.
//
// DecodeCache has no lock of its own. Every method runs under the engine's
// serialization, including decode completions, which come back through exec.
type DecodeCache struct {
	ctx     context.Context
	storage Storage
	decoder Decoder
	exec    executor
	sem     *semaphore.Weighted
	strict  bool
	debug   bool

	entries     map[string]*audio.Buffer
	unavailable error
	inflight    int
}

type cacheConfig struct {
	storage        Storage
	decoder        Decoder
	exec           executor
	maxConcurrency int64
	strictCodec    bool
	debug          bool
}

func newDecodeCache(ctx context.Context, config cacheConfig) *DecodeCache {
	return &DecodeCache{
		ctx:     ctx,
		storage: config.storage,
		decoder: config.decoder,
		exec:    config.exec,
		sem:     semaphore.NewWeighted(config.maxConcurrency),
		strict:  config.strictCodec,
		debug:   config.debug,
		entries: make(map[string]*audio.Buffer),
	}
}

// Preload makes path available for playback and reports the outcome through done.
// done always runs under the engine's serialization; for the fast paths it runs
// before Preload returns.
func (c *DecodeCache) Preload(path string, done func(path string, err error)) {
	if c.unavailable != nil {
		done(path, fmt.Errorf("%w: %w", ErrDecodeUnavailable, c.unavailable))
		return
	}

	if _, ok := c.entries[path]; ok {
		if c.debug {
			log.Printf("Preload %s: already cached", path)
		}
		done(path, nil)
		return
	}

	requestID := uuid.New().String()
	if c.debug {
		log.Printf("Preload %s: decode request %s", path, requestID)
	}

	c.inflight++
	go func() {
		buf, err := c.fetch(path)
		c.exec(func() {
			c.inflight--
			done(path, c.complete(requestID, path, buf, err))
		})
	}()
}

// fetch reads and decodes path. It runs outside the engine's serialization.
func (c *DecodeCache) fetch(path string) (*audio.Buffer, error) {
	if err := c.sem.Acquire(c.ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClosed, err)
	}
	defer c.sem.Release(1)

	data, err := c.storage.ReadAsset(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageRead, err)
	}

	buf, err := c.decoder.DecodeAsset(path, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeFailure, err)
	}
	if buf == nil {
		return nil, fmt.Errorf("%w: decoder returned no buffer", ErrDecodeFailure)
	}
	return buf, nil
}

// complete applies a finished decode. A failure evicts any earlier buffer for
// the path and may disable the decoder for good.
func (c *DecodeCache) complete(requestID, path string, buf *audio.Buffer, err error) error {
	if err == nil {
		c.entries[path] = buf
		if c.debug {
			log.Printf("Preload %s: cached %.3fs %s (request %s)", path, buf.Duration().Seconds(), buf.Format.Codec, requestID)
		}
		return nil
	}

	delete(c.entries, path)

	if c.codecLost(err) {
		if c.unavailable == nil {
			c.unavailable = err
			log.Printf("Decoder disabled after %s failed: %v", path, err)
		}
		return fmt.Errorf("%w: %w", ErrDecodeUnavailable, err)
	}

	return err
}

func (c *DecodeCache) codecLost(err error) bool {
	if errors.Is(err, decode.ErrCodecUnavailable) {
		return true
	}
	return c.strict && errors.Is(err, decode.ErrUnsupportedFormat)
}

// Get returns the cached buffer for path
func (c *DecodeCache) Get(path string) (*audio.Buffer, bool) {
	buf, ok := c.entries[path]
	return buf, ok
}

// Uncache evicts path. Sessions already playing it keep their buffer.
func (c *DecodeCache) Uncache(path string) {
	delete(c.entries, path)
}

// UncacheAll evicts every path. In-flight decodes are left running.
func (c *DecodeCache) UncacheAll() {
	clear(c.entries)
}

// Paths returns the cached paths in sorted order
func (c *DecodeCache) Paths() []string {
	paths := lo.Keys(c.entries)
	sort.Strings(paths)
	return paths
}

// Len returns the number of cached buffers
func (c *DecodeCache) Len() int {
	return len(c.entries)
}

// Inflight returns the number of decodes not yet completed
func (c *DecodeCache) Inflight() int {
	return c.inflight
}

// Available reports whether the decode capability is still usable
func (c *DecodeCache) Available() bool {
	return c.unavailable == nil
}
