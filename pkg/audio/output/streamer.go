// ABOUTME: beep.Streamer over a decoded buffer
// ABOUTME: Converts 24-bit interleaved samples to beep's float stereo frames
package output

import (
	"github.com/Resonate-Protocol/audioengine-go/pkg/audio"
	"github.com/gopxl/beep/v2"
)

// bufferStreamer streams a decoded buffer, optionally looping
type bufferStreamer struct {
	buf  *audio.Buffer
	pos  int
	loop bool
}

var _ beep.Streamer = (*bufferStreamer)(nil)

func newBufferStreamer(buf *audio.Buffer, startFrame int, loop bool) *bufferStreamer {
	return &bufferStreamer{buf: buf, pos: startFrame, loop: loop}
}

// Stream fills samples with stereo frames. Mono is duplicated, extra channels dropped.
func (s *bufferStreamer) Stream(samples [][2]float64) (int, bool) {
	frames := s.buf.Frames()
	channels := s.buf.Format.Channels
	if frames == 0 {
		return 0, false
	}

	n := 0
	for n < len(samples) {
		if s.pos >= frames {
			if !s.loop {
				break
			}
			s.pos = 0
		}

		base := s.pos * channels
		left := audio.SampleToFloat(s.buf.Samples[base])
		right := left
		if channels > 1 {
			right = audio.SampleToFloat(s.buf.Samples[base+1])
		}
		samples[n] = [2]float64{left, right}

		n++
		s.pos++
	}

	return n, n > 0
}

// Err always returns nil, an in-memory buffer cannot fail
func (s *bufferStreamer) Err() error {
	return nil
}
