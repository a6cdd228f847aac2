// Package web exposes the parameter automation boundary over HTTP and
// websocket. Writes land on the same normalized Set path the editor uses,
// so the pipeline cannot tell the two apart.
package web

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/grieferpig/zippify/internal/meter"
	"github.com/grieferpig/zippify/internal/params"
)

//go:embed index.html
var indexPage []byte

// ParamStatus is one parameter as reported to clients.
type ParamStatus struct {
	Index int     `json:"index"`
	Name  string  `json:"name"`
	Value float32 `json:"value"` // normalized [0,1]
	Text  string  `json:"text"`
}

// Status is the snapshot pushed to websocket clients.
type Status struct {
	Params []ParamStatus `json:"params"`
	Levels meter.Levels  `json:"levels"`
}

// SetRequest sets one parameter to a normalized value.
type SetRequest struct {
	Index int     `json:"index"`
	Value float32 `json:"value"`
}

// Server serves the automation API and status stream.
type Server struct {
	store *params.Store
	meter *meter.Meter
	log   *log.Logger

	mu        sync.RWMutex
	clients   map[*websocketClient]bool
	broadcast chan []byte
	upgrader  websocket.Upgrader
}

type websocketClient struct {
	conn   *websocket.Conn
	send   chan []byte
	server *Server
}

// NewServer creates a Server reading levels from m (may be nil) and routing
// parameter writes through store.
func NewServer(store *params.Store, m *meter.Meter, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		store:     store,
		meter:     m,
		log:       logger,
		clients:   make(map[*websocketClient]bool),
		broadcast: make(chan []byte, 256),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Handler returns the HTTP handler tree.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/params", s.handleParams)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// Start serves on the given port and blocks.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.log.Printf("[web] automation server on http://0.0.0.0%s", addr)

	go s.broadcastLoop()
	go s.statusUpdateLoop()

	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexPage)
}

func (s *Server) paramStatus() []ParamStatus {
	out := make([]ParamStatus, s.store.Count())
	for i := range out {
		out[i] = ParamStatus{
			Index: i,
			Name:  s.store.Name(i),
			Value: s.store.Get(i),
			Text:  s.store.DisplayText(i),
		}
	}
	return out
}

func (s *Server) status() Status {
	st := Status{Params: s.paramStatus()}
	if s.meter != nil {
		st.Levels = s.meter.Levels()
	}
	return st
}

func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(s.paramStatus())
	case http.MethodPost:
		var req SetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		// Unknown indices are inert, matching the host-probing contract.
		s.store.Set(req.Index, req.Value)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.status())
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Printf("[web] websocket upgrade error: %v", err)
		return
	}

	client := &websocketClient{
		conn:   conn,
		send:   make(chan []byte, 256),
		server: s,
	}

	s.mu.Lock()
	s.clients[client] = true
	s.mu.Unlock()

	go client.writePump()
	go client.readPump()
}

func (s *Server) broadcastLoop() {
	for message := range s.broadcast {
		s.mu.Lock()
		for client := range s.clients {
			select {
			case client.send <- message:
			default:
				close(client.send)
				delete(s.clients, client)
			}
		}
		s.mu.Unlock()
	}
}

func (s *Server) statusUpdateLoop() {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		data, err := json.Marshal(s.status())
		if err != nil {
			continue
		}
		select {
		case s.broadcast <- data:
		default:
			// drop if channel full (non-blocking)
		}
	}
}

func (c *websocketClient) readPump() {
	defer func() {
		c.server.mu.Lock()
		delete(c.server.clients, c)
		c.server.mu.Unlock()
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		var req SetRequest
		if err := json.Unmarshal(data, &req); err != nil {
			continue
		}
		c.server.store.Set(req.Index, req.Value)
	}
}

func (c *websocketClient) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
