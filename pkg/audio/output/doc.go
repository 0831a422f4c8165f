// ABOUTME: Audio output package for playing decoded buffers
// ABOUTME: Provides the Output and Voice interfaces with oto, beep and null backends
// Package output provides audio playback for the engine.
//
// An Output hands out one Voice per playing session. A voice can be started
// at any offset, re-gained while it plays, stopped and released.
//
// Backends:
//   - Oto: one oto player per voice, PCM prepared at the device rate
//   - Beep: voices mixed by beep's speaker with an effects.Volume gain stage
//   - Null: no device, records what would have played
//
// Device backends need cgo on Linux.
//
// Example:
//
//	out, err := output.Open("oto")
//	voice, err := out.NewVoice(buf, false)
//	err = voice.Start(0)
//	voice.SetGain(0.5)
package output
