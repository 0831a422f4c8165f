// ABOUTME: Encoder interface definition
// ABOUTME: Common interface for turning decoded samples into device bytes
package encode

// Encoder encodes PCM int32 samples to a byte layout an output device accepts
type Encoder interface {
	// Encode converts PCM samples to encoded audio data
	Encode(samples []int32) ([]byte, error)

	// BytesPerSample reports the encoded width of a single sample
	BytesPerSample() int
}
