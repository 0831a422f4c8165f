// ABOUTME: Linear resampler for converting audio sample rates
// ABOUTME: Converts streamed chunks or whole decoded buffers to a device rate
package resample

import "github.com/Resonate-Protocol/audioengine-go/pkg/audio"

// Resampler interpolates interleaved frames from one rate to another.
// The fractional read position carries over between chunks.
type Resampler struct {
	channels int
	step     float64
	offset   float64
}

// New creates a resampler from inputRate to outputRate
func New(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		channels: channels,
		step:     float64(inputRate) / float64(outputRate),
	}
}

// Resample fills output from input and returns the number of samples written.
// Output frames stop at the last input frame, which has no successor to
// interpolate towards.
func (r *Resampler) Resample(input []int32, output []int32) int {
	inFrames := len(input) / r.channels
	outFrames := len(output) / r.channels
	if inFrames < 2 {
		return 0
	}

	n := 0
	for ; n < outFrames; n++ {
		pos := r.offset + float64(n)*r.step
		i := int(pos)
		if i >= inFrames-1 {
			break
		}
		r.frame(output[n*r.channels:], input, i, pos-float64(i))
	}

	end := r.offset + float64(n)*r.step
	r.offset = end - float64(int(end))
	return n * r.channels
}

func (r *Resampler) frame(dst, src []int32, i int, frac float64) {
	a := src[i*r.channels : (i+1)*r.channels]
	b := src[(i+1)*r.channels : (i+2)*r.channels]
	for ch := range a {
		dst[ch] = int32(float64(a[ch])*(1-frac) + float64(b[ch])*frac)
	}
}

// Buffer converts a whole decoded buffer to outputRate.
// The result keeps the buffer's duration. buf is returned unchanged when no
// conversion is needed.
func Buffer(buf *audio.Buffer, outputRate int) *audio.Buffer {
	inputRate := buf.Format.SampleRate
	channels := buf.Format.Channels
	inputFrames := buf.Frames()
	if inputRate == outputRate || inputRate <= 0 || outputRate <= 0 || inputFrames == 0 {
		return buf
	}

	// Repeat the final frame so the tail interpolates towards itself
	padded := make([]int32, len(buf.Samples)+channels)
	copy(padded, buf.Samples)
	copy(padded[len(buf.Samples):], buf.Samples[(inputFrames-1)*channels:inputFrames*channels])

	outputFrames := int(int64(inputFrames) * int64(outputRate) / int64(inputRate))
	out := make([]int32, outputFrames*channels)
	n := New(inputRate, outputRate, channels).Resample(padded, out)

	format := buf.Format
	format.SampleRate = outputRate
	return &audio.Buffer{Samples: out[:n], Format: format}
}
