// ABOUTME: Engine clock package
// ABOUTME: Provides monotonic time and timer scheduling for playback accounting
// Package clock provides the time source the audio engine measures playback against.
//
// System follows the process monotonic clock. Manual only moves when told to,
// which makes completion timers deterministic in tests.
//
// Example:
//
//	c := clock.NewManual()
//	c.AfterFunc(2*time.Second, func() { fmt.Println("done") })
//	c.Advance(2 * time.Second) // prints "done"
package clock
