// ABOUTME: Engine control protocol package
// ABOUTME: Defines protocol messages and WebSocket client
// Package protocol implements the audio engine control protocol.
//
// Clients open a WebSocket to /audioengine, exchange client/hello and
// server/hello, then send engine/* requests tagged with a request_id.
// Every request is answered by engine/result or engine/error carrying the
// same id. engine/decoded and engine/finished events are broadcast to all
// connected clients.
//
// Example:
//
//	client := protocol.NewClient(protocol.Config{ServerAddr: "localhost:8928", Name: "console"})
//	if err := client.Connect(); err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	snap, err := client.Snapshot(ctx)
package protocol
