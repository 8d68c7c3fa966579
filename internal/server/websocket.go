// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/pkg/types"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // Dev-friendly, secure via proxy in prod
}

// Event is one streamed message. Type is progress, message, result,
// error, or keepalive.
type Event struct {
	Type    string  `json:"type"`
	Step    float64 `json:"step,omitempty"`
	Message string  `json:"message,omitempty"`
	Report  string  `json:"report,omitempty"`
	Path    string  `json:"path,omitempty"`
}

// wireRequest is the request envelope. The model field accepts either
// a bare string or an object with id and source, so older clients keep
// working. Type distinguishes application-level pings from requests.
type wireRequest struct {
	Type  string    `json:"type"`
	Topic string    `json:"topic"`
	Model wireModel `json:"model"`
}

type wireModel struct {
	ID     string
	Source string
}

func (m *wireModel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		m.ID = s
		return nil
	}
	var obj struct {
		ID     string `json:"id"`
		Source string `json:"source"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("model must be a string or an object: %w", err)
	}
	m.ID = obj.ID
	m.Source = obj.Source
	return nil
}

func (r wireRequest) toRequest() types.ResearchRequest {
	return types.ResearchRequest{
		Topic: strings.TrimSpace(r.Topic),
		Model: types.ModelSpec{
			Name: r.Model.ID,
			Hint: types.ParseBackendHint(r.Model.Source),
		},
	}
}

// wsConn serializes writes to one WebSocket connection. The pipeline
// sink and the keepalive ticker write concurrently.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) send(ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(ev)
}

// Progress implements pipeline.Sink.
func (c *wsConn) Progress(step float64, message string) {
	c.send(Event{Type: "progress", Step: step, Message: message})
}

// Message implements pipeline.Sink.
func (c *wsConn) Message(message string) {
	c.send(Event{Type: "message", Message: message})
}

// handleWS upgrades the connection and serves research requests over
// it. Requests run sequentially; each produces progress and message
// events and exactly one terminal result or error event. A keepalive
// event goes out every KeepaliveInterval so proxies keep the
// connection open through long runs, and an idle connection gets a
// keepalive after ReceiveTimeout instead of being closed.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	raw, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer raw.Close()

	connID := uuid.NewString()
	logger := s.Logger.With(zap.String("conn_id", connID))
	logger.Info("websocket connected")
	defer logger.Info("websocket closed")

	conn := &wsConn{conn: raw}
	conn.send(Event{Type: "message", Message: "connected: send {\"topic\": ..., \"model\": ...} to start research"})

	stopKeepalive := make(chan struct{})
	defer close(stopKeepalive)
	go s.keepalive(conn, stopKeepalive)

	receiveTimeout := s.Config.ReceiveTimeout
	if receiveTimeout <= 0 {
		receiveTimeout = 5 * time.Minute
	}

	// Reads run on their own goroutine so an idle wait can be answered
	// with a keepalive instead of tearing the connection down.
	frames := make(chan wsFrame)
	done := make(chan struct{})
	defer close(done)
	go readFrames(raw, frames, done)

	for {
		var frame wsFrame
		select {
		case frame = <-frames:
		case <-time.After(receiveTimeout):
			if conn.send(Event{Type: "keepalive", Message: "connection active, awaiting research request"}) != nil {
				return
			}
			continue
		}
		if frame.err != nil {
			return
		}
		if frame.msgType != websocket.TextMessage {
			// Binary frames carry no requests.
			continue
		}

		var wire wireRequest
		if err := json.Unmarshal(frame.data, &wire); err != nil {
			conn.send(Event{Type: "error", Message: fmt.Sprintf("invalid request: %v", err)})
			continue
		}
		if wire.Type == "ping" {
			// Application-level pings get no reply.
			continue
		}
		req := wire.toRequest()
		if req.Topic == "" {
			conn.send(Event{Type: "error", Message: "topic is required"})
			continue
		}

		logger.Info("websocket research request", zap.String("topic", req.Topic))

		rep, path, err := s.Runner.Run(r.Context(), req, conn)
		if err != nil {
			conn.send(Event{Type: "error", Message: fmt.Sprintf("research failed: %v", err)})
			continue
		}
		conn.send(Event{Type: "result", Report: rep.Body, Path: path})
	}
}

// wsFrame is one frame read from the connection, or the read error
// that ended the pump.
type wsFrame struct {
	msgType int
	data    []byte
	err     error
}

// readFrames pumps frames from the connection until it errors or the
// handler finishes.
func readFrames(conn *websocket.Conn, frames chan<- wsFrame, done <-chan struct{}) {
	for {
		msgType, data, err := conn.ReadMessage()
		select {
		case frames <- wsFrame{msgType: msgType, data: data, err: err}:
		case <-done:
			return
		}
		if err != nil {
			return
		}
	}
}

// keepalive emits keepalive events until stopped.
func (s *Server) keepalive(conn *wsConn, stop <-chan struct{}) {
	interval := s.Config.KeepaliveInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := conn.send(Event{Type: "keepalive"}); err != nil {
				return
			}
		}
	}
}
