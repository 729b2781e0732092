// Package websocket pushes public snapshot updates to browsers.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fortuna/tigerstats/internal/store"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the feed carries only public data
	},
}

// MessageSnapshot is the type of messages carrying a snapshot.
const MessageSnapshot = "snapshot"

// Message is the JSON frame sent to clients.
type Message struct {
	Type string             `json:"type"`
	Data *store.PublicStats `json:"data"`
}

// SnapshotSource provides the snapshot sent when a client connects.
type SnapshotSource interface {
	GetPublicStats(ctx context.Context, programID string) (*store.PublicStats, error)
}

// Server represents the WebSocket server
type Server struct {
	server    *http.Server
	hub       *Hub
	snapshots SnapshotSource
	programID string
	logger    *logrus.Entry
}

// NewServer creates a new WebSocket server
func NewServer(snapshots SnapshotSource, programID string, logger *logrus.Entry) *Server {
	return &Server{
		hub:       NewHub(logger),
		snapshots: snapshots,
		programID: programID,
		logger:    logger,
	}
}

// Handler returns the routes served by the feed.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/stats", s.handleStats)
	mux.HandleFunc("/ws/health", s.handleHealth)
	return mux
}

// Start starts the hub and blocks serving on port
func (s *Server) Start(port string) error {
	go s.hub.Run()

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.WithField("port", port).Info("WebSocket server listening")
	return s.server.ListenAndServe()
}

// handleStats upgrades the connection, sends the current snapshot and subscribes the
// client to later ones.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to upgrade connection")
		return
	}

	client := &Client{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	programID := r.URL.Query().Get("programId")
	if programID == "" {
		programID = s.programID
	}
	if msg, err := s.currentSnapshot(r.Context(), programID); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.WithError(err).Warn("Failed to load snapshot for new client")
		}
	} else {
		client.send <- msg
	}

	select {
	case s.hub.register <- client:
	case <-s.hub.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func (s *Server) currentSnapshot(ctx context.Context, programID string) ([]byte, error) {
	snapshot, err := s.snapshots.GetPublicStats(ctx, programID)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: MessageSnapshot, Data: snapshot})
}

// handleHealth returns WebSocket server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status": "healthy", "clients": %d}`, s.hub.ClientCount())
}

// SnapshotPublished broadcasts a freshly written snapshot to every client.
func (s *Server) SnapshotPublished(ctx context.Context, snapshot *store.PublicStats) error {
	msg, err := json.Marshal(Message{Type: MessageSnapshot, Data: snapshot})
	if err != nil {
		return fmt.Errorf("encoding snapshot message: %w", err)
	}
	s.hub.Broadcast(msg)
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Stop()
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
