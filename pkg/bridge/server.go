// ABOUTME: WebSocket bridge exposing an audio engine to remote controllers
// ABOUTME: Translates engine/* requests into engine calls and broadcasts engine events
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/Resonate-Protocol/audioengine-go/internal/discovery"
	"github.com/Resonate-Protocol/audioengine-go/internal/version"
	"github.com/Resonate-Protocol/audioengine-go/pkg/audio/decode"
	"github.com/Resonate-Protocol/audioengine-go/pkg/engine"
	"github.com/Resonate-Protocol/audioengine-go/pkg/protocol"
	"github.com/Resonate-Protocol/audioengine-go/pkg/storage"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
)

const (
	// DefaultPort is the port the bridge listens on when unset
	DefaultPort = 8928

	sendBufferSize = 100
	writeDeadline  = 10 * time.Second
	pingInterval   = 30 * time.Second
)

// ServerConfig configures a bridge server
type ServerConfig struct {
	// Port to listen on (default: 8928)
	Port int

	// Name of the server for identification
	Name string

	// Engine configures the engine the bridge drives. Storage is required.
	// OnDecodeComplete and OnPlaybackFinished still run after the broadcast.
	Engine engine.Config

	// EnableMDNS enables mDNS service advertisement
	EnableMDNS bool

	// Debug enables debug logging
	Debug bool
}

// Server is a bridge between WebSocket controllers and one engine
type Server struct {
	config   ServerConfig
	serverID string
	engine   *engine.Engine
	exts     []string

	upgrader websocket.Upgrader

	httpServer *http.Server
	mux        *http.ServeMux

	clients   map[string]*client
	clientsMu sync.RWMutex

	mdnsManager *discovery.Manager

	stopChan   chan struct{}
	stopOnce   sync.Once
	shutdownMu sync.RWMutex
	isShutdown bool
	wg         sync.WaitGroup
}

// client represents a connected controller (internal)
type client struct {
	ID   string
	Name string
	Conn *websocket.Conn

	connectedAt time.Time
	requests    int

	sendChan chan interface{}

	mu sync.RWMutex
}

// ClientInfo represents information about a connected controller
type ClientInfo struct {
	ID          string
	Name        string
	ConnectedAt time.Time
	Requests    int
}

// NewServer creates a bridge and the engine behind it
func NewServer(config ServerConfig) (*Server, error) {
	if config.Port == 0 {
		config.Port = DefaultPort
	}
	if config.Name == "" {
		config.Name = "Audio Engine"
	}
	if config.Engine.Decoder == nil {
		config.Engine.Decoder = decode.NewDefaultRegistry()
	}

	s := &Server{
		config:   config,
		serverID: uuid.New().String(),
		mux:      http.NewServeMux(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Controllers run on the local network
				return true
			},
		},
		clients:  make(map[string]*client),
		stopChan: make(chan struct{}),
	}

	if registry, ok := config.Engine.Decoder.(*decode.Registry); ok {
		s.exts = registry.Extensions()
	}

	engineConfig := config.Engine
	onDecode := engineConfig.OnDecodeComplete
	engineConfig.OnDecodeComplete = func(path string, success bool) {
		s.broadcast(protocol.TypeDecoded, protocol.DecodedEvent{Path: path, Success: success})
		if onDecode != nil {
			onDecode(path, success)
		}
	}
	onFinish := engineConfig.OnPlaybackFinished
	engineConfig.OnPlaybackFinished = func(id engine.SessionID, path string) {
		s.broadcast(protocol.TypeFinished, protocol.FinishedEvent{SessionID: int(id), Path: path})
		if onFinish != nil {
			onFinish(id, path)
		}
	}

	eng, err := engine.New(engineConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	s.engine = eng

	s.mux.HandleFunc(protocol.Path, s.handleWebSocket)

	return s, nil
}

// Engine returns the engine the bridge drives
func (s *Server) Engine() *engine.Engine {
	return s.engine
}

// Handler returns the bridge's HTTP handler
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves until Stop is called, then closes the engine
func (s *Server) Start() error {
	log.Printf("Bridge starting: %s (ID: %s)", s.config.Name, s.serverID)

	if s.config.EnableMDNS {
		s.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        s.config.Port,
			Path:        protocol.Path,
			Version:     version.Version,
		})

		if err := s.mdnsManager.Advertise(); err != nil {
			log.Printf("Failed to start mDNS advertisement: %v", err)
		} else {
			log.Printf("mDNS advertisement started")
		}
	}

	addr := fmt.Sprintf(":%d", s.config.Port)
	log.Printf("WebSocket bridge listening on %s%s", addr, protocol.Path)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	var serveErr error
	select {
	case <-s.stopChan:
		log.Printf("Bridge shutting down...")
	case serveErr = <-errChan:
		log.Printf("HTTP server error: %v", serveErr)
	}

	s.shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	if err := s.engine.Close(); err != nil {
		log.Printf("Error closing engine: %v", err)
	}

	s.wg.Wait()
	log.Printf("Bridge stopped cleanly")

	return serveErr
}

// Stop stops the server
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

// Close rejects new connections and closes the engine without a listener.
// Used when the bridge is mounted through Handler.
func (s *Server) Close() error {
	s.shutdown()
	return s.engine.Close()
}

func (s *Server) shutdown() {
	s.shutdownMu.Lock()
	s.isShutdown = true
	s.shutdownMu.Unlock()

	if s.mdnsManager != nil {
		s.mdnsManager.Stop()
	}
}

// Clients returns information about all connected controllers
func (s *Server) Clients() []ClientInfo {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	return lo.MapToSlice(s.clients, func(_ string, c *client) ClientInfo {
		c.mu.RLock()
		defer c.mu.RUnlock()
		return ClientInfo{
			ID:          c.ID,
			Name:        c.Name,
			ConnectedAt: c.connectedAt,
			Requests:    c.requests,
		}
	})
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	log.Printf("New WebSocket connection from %s", r.RemoteAddr)
	s.handleConnection(conn)
}

// handleConnection manages a controller connection
func (s *Server) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	s.shutdownMu.RLock()
	if s.isShutdown {
		s.shutdownMu.RUnlock()
		log.Printf("Rejecting connection during shutdown")
		return
	}
	s.shutdownMu.RUnlock()

	_, data, err := conn.ReadMessage()
	if err != nil {
		log.Printf("Error reading hello: %v", err)
		return
	}

	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Error unmarshaling message: %v", err)
		return
	}

	if msg.Type != protocol.TypeClientHello {
		log.Printf("Expected client/hello, got %s", msg.Type)
		return
	}

	var hello protocol.ClientHello
	if err := protocol.DecodePayload(msg, &hello); err != nil {
		log.Printf("Error parsing client hello: %v", err)
		return
	}

	if hello.ClientID == "" || hello.Name == "" {
		log.Printf("Client hello missing required fields")
		return
	}

	log.Printf("Client hello: %s (ID: %s)", hello.Name, hello.ClientID)

	c := &client{
		ID:          hello.ClientID,
		Name:        hello.Name,
		Conn:        conn,
		connectedAt: time.Now(),
		sendChan:    make(chan interface{}, sendBufferSize),
	}

	s.clientsMu.Lock()
	if _, exists := s.clients[hello.ClientID]; exists {
		s.clientsMu.Unlock()
		log.Printf("Client ID %s already connected, rejecting duplicate", hello.ClientID)
		return
	}
	s.clients[c.ID] = c
	s.clientsMu.Unlock()

	defer func() {
		s.removeClient(c)
		log.Printf("Client disconnected: %s", c.Name)
	}()

	serverHello := protocol.ServerHello{
		ServerID:   s.serverID,
		Name:       s.config.Name,
		Version:    protocol.ProtocolVersion,
		Extensions: s.exts,
		Available:  s.engine.Available(),
	}

	if err := s.sendMessage(c, protocol.TypeServerHello, serverHello); err != nil {
		log.Printf("Error sending server hello: %v", err)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.clientWriter(c)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		s.handleClientMessage(c, data)
	}
}

// clientWriter sends queued messages and keeps the connection alive
func (s *Server) clientWriter(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.sendChan:
			if !ok {
				return
			}

			data, err := json.Marshal(msg)
			if err != nil {
				log.Printf("Error marshaling message for %s: %v", c.Name, err)
				continue
			}
			c.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				return
			}
		}
	}
}

// handleClientMessage processes messages from controllers
func (s *Server) handleClientMessage(c *client, data []byte) {
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Error unmarshaling message: %v", err)
		return
	}

	if msg.Type == protocol.TypeClientGoodbye {
		var goodbye protocol.ClientGoodbye
		if err := protocol.DecodePayload(msg, &goodbye); err == nil {
			log.Printf("Client %s goodbye: %s", c.Name, goodbye.Reason)
		}
		return
	}

	var req protocol.Request
	if err := protocol.DecodePayload(msg, &req); err != nil {
		s.sendError(c, "", protocol.CodeBadRequest, err)
		return
	}

	c.mu.Lock()
	c.requests++
	c.mu.Unlock()

	if s.config.Debug {
		log.Printf("Client %s: %s %+v", c.Name, msg.Type, req)
	}

	result, err := s.handleRequest(msg.Type, req)
	if err != nil {
		s.sendError(c, req.RequestID, errorCode(err), err)
		return
	}

	result.RequestID = req.RequestID
	if err := s.sendMessage(c, protocol.TypeResult, result); err != nil {
		log.Printf("Error replying to %s: %v", c.Name, err)
	}
}

// handleRequest applies one engine/* request
func (s *Server) handleRequest(msgType string, req protocol.Request) (protocol.Result, error) {
	id := engine.SessionID(req.SessionID)

	switch msgType {
	case protocol.TypePreload:
		p, err := assetPath(req)
		if err != nil {
			return protocol.Result{}, err
		}
		s.engine.Preload(p)

	case protocol.TypeUncache:
		p, err := assetPath(req)
		if err != nil {
			return protocol.Result{}, err
		}
		s.engine.Uncache(p)

	case protocol.TypeUncacheAll:
		s.engine.UncacheAll()

	case protocol.TypePlay:
		p, err := assetPath(req)
		if err != nil {
			return protocol.Result{}, err
		}
		sid, err := s.engine.PlaySession(p, req.Loop, req.Volume)
		if err != nil {
			return protocol.Result{}, err
		}
		return protocol.Result{SessionID: int(sid)}, nil

	case protocol.TypePause:
		s.engine.Pause(id)

	case protocol.TypeResume:
		s.engine.Resume(id)

	case protocol.TypeStop:
		s.engine.Stop(id)

	case protocol.TypeStopAll:
		return protocol.Result{Stopped: s.engine.StopAll()}, nil

	case protocol.TypeSetVolume:
		s.engine.SetVolume(id, req.Volume)

	case protocol.TypeSetLoop:
		if err := s.engine.SetLoop(id, req.Loop); err != nil {
			return protocol.Result{}, err
		}

	case protocol.TypeSeek:
		if err := s.engine.SetCurrentTime(id, req.Offset); err != nil {
			return protocol.Result{}, err
		}

	case protocol.TypeQuery:
		duration := s.engine.Duration(id)
		current := s.engine.CurrentTime(id)
		result := protocol.Result{SessionID: req.SessionID, Duration: &duration, CurrentTime: &current}
		if state, ok := s.engine.State(id); ok {
			result.State = state.String()
		}
		return result, nil

	case protocol.TypeSnapshot:
		return protocol.Result{Snapshot: toSnapshot(s.engine.Snapshot())}, nil

	default:
		return protocol.Result{}, fmt.Errorf("%w: %s", errUnknownType, msgType)
	}

	return protocol.Result{}, nil
}

var (
	errMissingPath = errors.New("path is required")
	errUnknownType = errors.New("unknown message type")
)

// errorCode maps an engine error to its wire code
// assetPath returns the request path in the cleaned form storage and the
// hot reload watcher use, so "./a.wav" and "a.wav" share one cache entry
func assetPath(req protocol.Request) (string, error) {
	if req.Path == "" {
		return "", errMissingPath
	}
	return storage.CleanPath(req.Path)
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, errUnknownType):
		return protocol.CodeUnknownType
	case errors.Is(err, errMissingPath), errors.Is(err, storage.ErrInvalidPath):
		return protocol.CodeBadRequest
	case errors.Is(err, engine.ErrDecodeUnavailable):
		return protocol.CodeDecodeUnavailable
	case errors.Is(err, engine.ErrNotCached):
		return protocol.CodeNotCached
	case errors.Is(err, engine.ErrUnsupported):
		return protocol.CodeUnsupported
	case errors.Is(err, engine.ErrInvalidOffset):
		return protocol.CodeInvalidOffset
	case errors.Is(err, engine.ErrClosed):
		return protocol.CodeClosed
	default:
		return protocol.CodePlayFailed
	}
}

func toSnapshot(snap engine.Snapshot) *protocol.Snapshot {
	return &protocol.Snapshot{
		Preloaded: snap.Preloaded,
		Sessions: lo.Map(snap.Sessions, func(info engine.SessionInfo, _ int) protocol.SessionInfo {
			return protocol.SessionInfo{
				SessionID:   int(info.ID),
				Path:        info.Path,
				State:       info.State.String(),
				Loop:        info.Loop,
				Volume:      info.Volume,
				Duration:    info.Duration,
				CurrentTime: info.CurrentTime,
			}
		}),
		Available:      snap.Available,
		PendingDecodes: snap.PendingDecodes,
	}
}

// removeClient removes a controller
func (s *Server) removeClient(c *client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	delete(s.clients, c.ID)
	close(c.sendChan)
}

// broadcast queues an event for every connected controller
func (s *Server) broadcast(msgType string, payload interface{}) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for _, c := range s.clients {
		if err := s.sendMessage(c, msgType, payload); err != nil && s.config.Debug {
			log.Printf("Dropping %s for %s: %v", msgType, c.Name, err)
		}
	}
}

func (s *Server) sendError(c *client, requestID, code string, err error) {
	reply := protocol.ErrorReply{RequestID: requestID, Code: code, Message: err.Error()}
	if sendErr := s.sendMessage(c, protocol.TypeError, reply); sendErr != nil {
		log.Printf("Error replying to %s: %v", c.Name, sendErr)
	}
}

// sendMessage queues a JSON message for a controller
func (s *Server) sendMessage(c *client, msgType string, payload interface{}) error {
	msg := protocol.Message{
		Type:    msgType,
		Payload: payload,
	}

	select {
	case c.sendChan <- msg:
		return nil
	default:
		return fmt.Errorf("client send buffer full")
	}
}
