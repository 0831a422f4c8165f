// ABOUTME: Engine control protocol message type definitions
// ABOUTME: Defines the JSON structs exchanged between bridge servers and clients
package protocol

import (
	"encoding/json"
	"fmt"
)

// ProtocolVersion is the version of the control protocol
const ProtocolVersion = 1

// Message types
const (
	TypeClientHello   = "client/hello"
	TypeServerHello   = "server/hello"
	TypeClientGoodbye = "client/goodbye"

	TypePreload    = "engine/preload"
	TypeUncache    = "engine/uncache"
	TypeUncacheAll = "engine/uncache_all"
	TypePlay       = "engine/play"
	TypePause      = "engine/pause"
	TypeResume     = "engine/resume"
	TypeStop       = "engine/stop"
	TypeStopAll    = "engine/stop_all"
	TypeSetVolume  = "engine/set_volume"
	TypeSetLoop    = "engine/set_loop"
	TypeSeek       = "engine/seek"
	TypeQuery      = "engine/query"
	TypeSnapshot   = "engine/snapshot"

	TypeResult = "engine/result"
	TypeError  = "engine/error"

	TypeDecoded  = "engine/decoded"
	TypeFinished = "engine/finished"
)

// Error codes carried by engine/error
const (
	CodeBadRequest        = "bad_request"
	CodeUnknownType       = "unknown_type"
	CodeNotCached         = "not_cached"
	CodeDecodeUnavailable = "decode_unavailable"
	CodeUnsupported       = "unsupported"
	CodeInvalidOffset     = "invalid_offset"
	CodePlayFailed        = "play_failed"
	CodeClosed            = "closed"
)

// Message is the top-level wrapper for all protocol messages
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// DecodePayload converts a received message payload into v
func DecodePayload(msg Message, v interface{}) error {
	data, err := json.Marshal(msg.Payload)
	if err != nil {
		return fmt.Errorf("failed to re-encode %s payload: %w", msg.Type, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s payload: %w", msg.Type, err)
	}
	return nil
}

// ClientHello is sent by clients to initiate the handshake
type ClientHello struct {
	ClientID   string      `json:"client_id"`
	Name       string      `json:"name"`
	Version    int         `json:"version"`
	DeviceInfo *DeviceInfo `json:"device_info,omitempty"`
}

// DeviceInfo contains device identification
type DeviceInfo struct {
	ProductName     string `json:"product_name"`
	Manufacturer    string `json:"manufacturer"`
	SoftwareVersion string `json:"software_version"`
}

// ServerHello is the server's response to client/hello
type ServerHello struct {
	ServerID   string   `json:"server_id"`
	Name       string   `json:"name"`
	Version    int      `json:"version"`
	Extensions []string `json:"extensions"` // decodable file extensions
	Available  bool     `json:"available"`  // false once decoding has been disabled
}

// ClientGoodbye is sent before graceful disconnect
type ClientGoodbye struct {
	Reason string `json:"reason"` // "shutdown", "restart", "user_request"
}

// Request is the payload of every engine/* request.
// Fields not used by a given type are omitted.
type Request struct {
	RequestID string  `json:"request_id"`
	Path      string  `json:"path,omitempty"`
	SessionID int     `json:"session_id,omitempty"`
	Loop      bool    `json:"loop,omitempty"`
	Volume    float64 `json:"volume,omitempty"`
	Offset    float64 `json:"offset,omitempty"` // seconds
}

// Result answers a request that succeeded
type Result struct {
	RequestID   string    `json:"request_id"`
	SessionID   int       `json:"session_id,omitempty"`
	Duration    *float64  `json:"duration,omitempty"`     // seconds, -1 for unknown sessions
	CurrentTime *float64  `json:"current_time,omitempty"` // seconds
	State       string    `json:"state,omitempty"`
	Stopped     int       `json:"stopped,omitempty"`
	Snapshot    *Snapshot `json:"snapshot,omitempty"`
}

// ErrorReply answers a request that failed
type ErrorReply struct {
	RequestID string `json:"request_id"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// Snapshot describes the engine's cache and sessions
type Snapshot struct {
	Preloaded      []string      `json:"preloaded"`
	Sessions       []SessionInfo `json:"sessions"`
	Available      bool          `json:"available"`
	PendingDecodes int           `json:"pending_decodes"`
}

// SessionInfo describes one live session
type SessionInfo struct {
	SessionID   int     `json:"session_id"`
	Path        string  `json:"path"`
	State       string  `json:"state"`
	Loop        bool    `json:"loop"`
	Volume      float64 `json:"volume"`
	Duration    float64 `json:"duration"`
	CurrentTime float64 `json:"current_time"`
}

// DecodedEvent is broadcast as engine/decoded when a preload completes
type DecodedEvent struct {
	Path    string `json:"path"`
	Success bool   `json:"success"`
}

// FinishedEvent is broadcast as engine/finished when a session plays to its end
type FinishedEvent struct {
	SessionID int    `json:"session_id"`
	Path      string `json:"path"`
}
