// ABOUTME: Package engine documentation
// ABOUTME: Session-based audio playback over a decode cache
// Package engine manages decoded audio assets and their playback sessions.
//
// An Engine preloads assets through a Storage and a Decoder, keeps the decoded
// buffers in a path-keyed cache, and plays them as numbered sessions on an
// output.Output. Session ids start at 1 and are never reused.
//
// Example:
//
//	eng, err := engine.New(engine.Config{
//		Storage: storage.NewDir("assets"),
//		OnDecodeComplete: func(path string, ok bool) {
//			log.Printf("decoded %s: %v", path, ok)
//		},
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer eng.Close()
//
//	eng.Preload("music/theme.mp3")
//	// after OnDecodeComplete reports success:
//	id := eng.Play("music/theme.mp3", true, 0.8)
//
// Operations on unknown session ids are no-ops and queries return
// DurationUnknown or zero, since commands may race natural completion.
package engine
