// ABOUTME: Bridge package documentation
// ABOUTME: Remote control of an audio engine over WebSocket
// Package bridge serves an engine.Engine to remote controllers.
//
// Controllers speak the protocol package's JSON messages at /audioengine.
// Decode and finish events are broadcast to every connected controller.
//
// Example:
//
//	srv, err := bridge.NewServer(bridge.ServerConfig{
//		Name:       "Studio",
//		EnableMDNS: true,
//		Engine:     engine.Config{Storage: storage.NewDir("assets")},
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	go srv.Start()
//	defer srv.Stop()
package bridge
