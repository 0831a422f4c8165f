// ABOUTME: Audio decoder package for multiple codec support
// ABOUTME: Provides the Decoder interface, an extension registry and built-in codecs
// Package decode turns complete encoded assets into decoded buffers.
//
// Supports: MP3, FLAC, WAV, AIFF, Ogg Vorbis and raw PCM
//
// All decoders output int32 samples in 24-bit range. A Registry picks the
// decoder from the asset's file extension, which is how the engine's decode
// capability is usually provided.
//
// Example:
//
//	reg := decode.NewDefaultRegistry()
//	buf, err := reg.DecodeAsset("sfx/jump.wav", data)
//	if errors.Is(err, decode.ErrUnsupportedFormat) {
//	    // no decoder for this extension
//	}
package decode
