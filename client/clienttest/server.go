// Package clienttest provides an in-process remdit editing server for tests.
//
// The server speaks the wire protocol independently of package client: sessions are
// created by a multipart upload and edits are pushed over a gorilla websocket.
package clienttest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const waitTimeout = 5 * time.Second

// Upload is one received POST /api/session request.
type Upload struct {
	SessionID   string
	Filename    string
	ContentType string
	APIKey      string
	Content     []byte
}

// Result is a save_result frame sent by the client.
type Result struct {
	Type    string  `json:"type"`
	Success bool    `json:"success"`
	Reason  *string `json:"reason"`
}

// Closed describes the close frame the client sent.
type Closed struct {
	Code   int
	Reason string
}

type Server struct {
	*httptest.Server

	// APIKey, when set, must be presented in X-API-Key.
	APIKey string

	t        testing.TB
	upgrader websocket.Upgrader

	mu       sync.Mutex
	uploads  []Upload
	sessions map[string]bool
	conn     *websocket.Conn
	wsKey    string
	writeMu  sync.Mutex

	connected chan string
	frames    chan []byte
	closed    chan Closed
}

func NewServer(t testing.TB) *Server {
	s := &Server{
		t:         t,
		upgrader:  websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		sessions:  make(map[string]bool),
		connected: make(chan string, 1),
		frames:    make(chan []byte, 64),
		closed:    make(chan Closed, 1),
	}
	r := chi.NewRouter()
	r.Post("/api/session", s.handleCreateSession)
	r.Get("/api/session/{id}", s.handleSocket)
	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

func (s *Server) EditURL(id string) string {
	return s.URL + "/e/" + id
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if s.APIKey != "" && r.Header.Get("X-API-Key") != s.APIKey {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	file, header, err := r.FormFile("document")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = true
	s.uploads = append(s.uploads, Upload{
		SessionID:   id,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		APIKey:      r.Header.Get("X-API-Key"),
		Content:     content,
	})
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"sessionid": id,
		"editurl":   s.EditURL(id),
	})
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	known := s.sessions[id]
	s.mu.Unlock()
	if !known {
		http.NotFound(w, r)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.conn = conn
	s.wsKey = r.Header.Get("X-API-Key")
	s.mu.Unlock()
	s.connected <- id

	go s.readLoop(conn)
}

func (s *Server) readLoop(conn *websocket.Conn) {
	defer conn.Close()
	for {
		typ, data, err := conn.ReadMessage()
		if err != nil {
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				s.closed <- Closed{Code: ce.Code, Reason: ce.Text}
			}
			return
		}
		if typ == websocket.TextMessage {
			s.frames <- data
		}
	}
}

// Uploads returns every upload received so far.
func (s *Server) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Upload(nil), s.uploads...)
}

// SocketAPIKey is the X-API-Key presented on the websocket handshake.
func (s *Server) SocketAPIKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wsKey
}

// WaitConnected blocks until a client opened a session websocket and returns its id.
func (s *Server) WaitConnected() string {
	s.t.Helper()
	select {
	case id := <-s.connected:
		return id
	case <-time.After(waitTimeout):
		s.t.Fatal("client did not connect")
		return ""
	}
}

func (s *Server) write(typ int, data []byte) {
	s.t.Helper()
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		s.t.Fatal("no client connected")
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := conn.WriteMessage(typ, data); err != nil {
		s.t.Fatalf("write failed: %v", err)
	}
}

// SendText pushes a raw text frame.
func (s *Server) SendText(text string) {
	s.t.Helper()
	s.write(websocket.TextMessage, []byte(text))
}

// SendBinary pushes a binary frame.
func (s *Server) SendBinary(data []byte) {
	s.t.Helper()
	s.write(websocket.BinaryMessage, data)
}

// SendSave pushes a save message carrying content.
func (s *Server) SendSave(content string) {
	s.t.Helper()
	b, err := json.Marshal(map[string]string{"type": "save", "content": content})
	if err != nil {
		s.t.Fatal(err)
	}
	s.write(websocket.TextMessage, b)
}

// Ping sends a ping control frame.
func (s *Server) Ping() {
	s.t.Helper()
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if err := conn.WriteControl(websocket.PingMessage, []byte("hb"), time.Now().Add(time.Second)); err != nil {
		s.t.Fatalf("ping failed: %v", err)
	}
}

// CloseSession starts the closing handshake from the server side.
func (s *Server) CloseSession(code int, reason string) {
	s.t.Helper()
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	msg := websocket.FormatCloseMessage(code, reason)
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)); err != nil {
		s.t.Fatalf("close failed: %v", err)
	}
}

// NextResult waits for the next text frame from the client and decodes it.
func (s *Server) NextResult() Result {
	s.t.Helper()
	select {
	case data := <-s.frames:
		var res Result
		if err := json.Unmarshal(data, &res); err != nil {
			s.t.Fatalf("bad frame %q: %v", data, err)
		}
		return res
	case <-time.After(waitTimeout):
		s.t.Fatal("no frame from client")
		return Result{}
	}
}

// NextFrame waits for the next raw text frame from the client.
func (s *Server) NextFrame() []byte {
	s.t.Helper()
	select {
	case data := <-s.frames:
		return data
	case <-time.After(waitTimeout):
		s.t.Fatal("no frame from client")
		return nil
	}
}

// NoFrame asserts the client sends nothing within d.
func (s *Server) NoFrame(d time.Duration) {
	s.t.Helper()
	select {
	case data := <-s.frames:
		s.t.Fatalf("unexpected frame %q", data)
	case <-time.After(d):
	}
}

// WaitClosed returns the close frame sent by the client.
func (s *Server) WaitClosed() Closed {
	s.t.Helper()
	select {
	case c := <-s.closed:
		return c
	case <-time.After(waitTimeout):
		s.t.Fatal("client did not close the connection")
		return Closed{}
	}
}
