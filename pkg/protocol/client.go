// ABOUTME: WebSocket client for the engine control protocol
// ABOUTME: Handles connection, handshake, request correlation and event routing
package protocol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Path is the HTTP path the bridge serves the protocol on
const Path = "/audioengine"

// ErrNotConnected is returned by requests on a closed client
var ErrNotConnected = errors.New("not connected")

// RemoteError is an engine/error reply
type RemoteError struct {
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Config holds client configuration
type Config struct {
	ServerAddr string
	ClientID   string
	Name       string
	DeviceInfo DeviceInfo
	Debug      bool
}

// Client represents a WebSocket client
type Client struct {
	config Config
	conn   *websocket.Conn
	mu     sync.RWMutex
	sendMu sync.Mutex

	// Server identity from server/hello
	Server ServerHello

	// Event channels
	Decoded  chan DecodedEvent
	Finished chan FinishedEvent

	pendingMu sync.Mutex
	pending   map[string]chan Message

	// State
	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewClient creates a new WebSocket client
func NewClient(config Config) *Client {
	if config.ClientID == "" {
		config.ClientID = uuid.New().String()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		config:   config,
		Decoded:  make(chan DecodedEvent, 64),
		Finished: make(chan FinishedEvent, 64),
		pending:  make(map[string]chan Message),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Connect establishes WebSocket connection and performs handshake
func (c *Client) Connect() error {
	u := url.URL{Scheme: "ws", Host: c.config.ServerAddr, Path: Path}
	log.Printf("Connecting to %s", u.String())

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if err := c.handshake(); err != nil {
		c.Close()
		return fmt.Errorf("handshake failed: %w", err)
	}

	go c.readMessages()

	return nil
}

// handshake performs the protocol handshake
func (c *Client) handshake() error {
	hello := ClientHello{
		ClientID:   c.config.ClientID,
		Name:       c.config.Name,
		Version:    ProtocolVersion,
		DeviceInfo: &c.config.DeviceInfo,
	}

	if err := c.sendJSON(Message{Type: TypeClientHello, Payload: hello}); err != nil {
		return fmt.Errorf("failed to send client/hello: %w", err)
	}

	c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read server/hello: %w", err)
	}
	c.conn.SetReadDeadline(time.Time{})

	var serverMsg Message
	if err := json.Unmarshal(data, &serverMsg); err != nil {
		return fmt.Errorf("failed to parse server/hello: %w", err)
	}
	if serverMsg.Type != TypeServerHello {
		return fmt.Errorf("expected server/hello, got %s", serverMsg.Type)
	}
	if err := DecodePayload(serverMsg, &c.Server); err != nil {
		return err
	}

	log.Printf("Handshake complete with server %s", c.Server.Name)
	return nil
}

// sendJSON sends a JSON message
func (c *Client) sendJSON(msg Message) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.connected {
		return ErrNotConnected
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	return c.conn.WriteJSON(msg)
}

// readMessages reads and routes incoming messages
func (c *Client) readMessages() {
	defer c.Close()

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if c.ctx.Err() == nil {
				log.Printf("Read error: %v", err)
			}
			return
		}

		if messageType != websocket.TextMessage {
			log.Printf("Unexpected WebSocket message type: %d", messageType)
			continue
		}
		c.handleJSONMessage(data)
	}
}

// handleJSONMessage routes replies to their callers and events to channels
func (c *Client) handleJSONMessage(data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Failed to parse JSON message: %v", err)
		return
	}

	if c.config.Debug {
		log.Printf("Received message type: %s", msg.Type)
	}

	switch msg.Type {
	case TypeResult, TypeError:
		var reply struct {
			RequestID string `json:"request_id"`
		}
		if err := DecodePayload(msg, &reply); err != nil {
			log.Printf("%v", err)
			return
		}
		c.pendingMu.Lock()
		ch, ok := c.pending[reply.RequestID]
		delete(c.pending, reply.RequestID)
		c.pendingMu.Unlock()
		if !ok {
			log.Printf("Reply for unknown request %s", reply.RequestID)
			return
		}
		ch <- msg

	case TypeDecoded:
		var ev DecodedEvent
		if err := DecodePayload(msg, &ev); err != nil {
			log.Printf("%v", err)
			return
		}
		select {
		case c.Decoded <- ev:
		case <-time.After(100 * time.Millisecond):
			log.Printf("Decoded channel full, dropping event for %s", ev.Path)
		}

	case TypeFinished:
		var ev FinishedEvent
		if err := DecodePayload(msg, &ev); err != nil {
			log.Printf("%v", err)
			return
		}
		select {
		case c.Finished <- ev:
		case <-time.After(100 * time.Millisecond):
			log.Printf("Finished channel full, dropping event for session %d", ev.SessionID)
		}

	default:
		log.Printf("Unknown message type: %s", msg.Type)
	}
}

// Call sends a request and waits for its reply
func (c *Client) Call(ctx context.Context, msgType string, req Request) (Result, error) {
	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}

	ch := make(chan Message, 1)
	c.pendingMu.Lock()
	c.pending[req.RequestID] = ch
	c.pendingMu.Unlock()

	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, req.RequestID)
		c.pendingMu.Unlock()
	}()

	if err := c.sendJSON(Message{Type: msgType, Payload: req}); err != nil {
		return Result{}, fmt.Errorf("failed to send %s: %w", msgType, err)
	}

	select {
	case msg := <-ch:
		if msg.Type == TypeError {
			var reply ErrorReply
			if err := DecodePayload(msg, &reply); err != nil {
				return Result{}, err
			}
			return Result{}, &RemoteError{Code: reply.Code, Message: reply.Message}
		}
		var result Result
		if err := DecodePayload(msg, &result); err != nil {
			return Result{}, err
		}
		return result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-c.ctx.Done():
		return Result{}, ErrNotConnected
	}
}

// Preload asks the server to decode path. Completion arrives on Decoded.
func (c *Client) Preload(ctx context.Context, path string) error {
	_, err := c.Call(ctx, TypePreload, Request{Path: path})
	return err
}

// Play starts a session and returns its id
func (c *Client) Play(ctx context.Context, path string, loop bool, volume float64) (int, error) {
	result, err := c.Call(ctx, TypePlay, Request{Path: path, Loop: loop, Volume: volume})
	if err != nil {
		return 0, err
	}
	return result.SessionID, nil
}

// Stop stops a session
func (c *Client) Stop(ctx context.Context, sessionID int) error {
	_, err := c.Call(ctx, TypeStop, Request{SessionID: sessionID})
	return err
}

// Snapshot fetches the server's cache and session listing
func (c *Client) Snapshot(ctx context.Context) (*Snapshot, error) {
	result, err := c.Call(ctx, TypeSnapshot, Request{})
	if err != nil {
		return nil, err
	}
	if result.Snapshot == nil {
		return nil, fmt.Errorf("engine/result without snapshot")
	}
	return result.Snapshot, nil
}

// SendGoodbye sends a client/goodbye message before disconnecting
func (c *Client) SendGoodbye(reason string) error {
	return c.sendJSON(Message{Type: TypeClientGoodbye, Payload: ClientGoodbye{Reason: reason}})
}

// Close closes the connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		c.connected = false
		c.cancel()
		c.conn.Close()
		log.Printf("Connection closed")
	}
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
