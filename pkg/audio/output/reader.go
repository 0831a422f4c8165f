// ABOUTME: Seekable PCM byte reader for device players
// ABOUTME: Serves prepared PCM from an offset and wraps around for looping voices
package output

import (
	"fmt"
	"io"
	"sync"
)

// pcmReader feeds prepared PCM bytes to a device player
type pcmReader struct {
	mu         sync.Mutex
	data       []byte
	pos        int64
	loop       bool
	frameBytes int
}

func newPCMReader(data []byte, frameBytes int, loop bool) *pcmReader {
	return &pcmReader{data: data, frameBytes: frameBytes, loop: loop}
}

// Read copies PCM into p, wrapping to the start when looping
func (r *pcmReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := int64(len(r.data))
	if size == 0 {
		return 0, io.EOF
	}

	n := 0
	for n < len(p) {
		if r.pos >= size {
			if !r.loop {
				break
			}
			r.pos = 0
		}
		c := copy(p[n:], r.data[r.pos:])
		n += c
		r.pos += int64(c)
	}

	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Seek moves the read position. Offsets are aligned down to whole frames.
func (r *pcmReader) Seek(offset int64, whence int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = r.pos + offset
	case io.SeekEnd:
		pos = int64(len(r.data)) + offset
	default:
		return 0, fmt.Errorf("invalid whence: %d", whence)
	}

	if pos < 0 {
		return 0, fmt.Errorf("negative position")
	}
	if size := int64(len(r.data)); pos > size {
		pos = size
	}
	if r.frameBytes > 0 {
		pos -= pos % int64(r.frameBytes)
	}

	r.pos = pos
	return pos, nil
}
