// ABOUTME: Channel layout conversion
// ABOUTME: Maps interleaved samples between channel counts before device output
package encode

// Remix converts interleaved samples from one channel count to another.
// Mono is duplicated into every output channel. Downmixing to mono averages
// the source channels. Other conversions copy the shared channels and
// silence the rest.
func Remix(samples []int32, from, to int) []int32 {
	if from == to || from <= 0 || to <= 0 {
		return samples
	}

	frames := len(samples) / from
	out := make([]int32, frames*to)

	for f := 0; f < frames; f++ {
		src := samples[f*from : f*from+from]
		dst := out[f*to : f*to+to]

		switch {
		case from == 1:
			for ch := range dst {
				dst[ch] = src[0]
			}
		case to == 1:
			var sum int64
			for _, s := range src {
				sum += int64(s)
			}
			dst[0] = int32(sum / int64(from))
		default:
			copy(dst, src)
		}
	}

	return out
}
