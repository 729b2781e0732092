// Package rest serves the stats API.
package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Server represents the REST API server
type Server struct {
	port    string
	server  *http.Server
	handler *Handler
}

// NewRouter wires every route and middleware onto a mux router
func NewRouter(handler *Handler, logger *logrus.Entry) *mux.Router {
	router := mux.NewRouter()

	// Apply middleware
	router.Use(RequestIDMiddleware(logger))
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggingMiddleware(logger))
	router.Use(CORSMiddleware)

	// Health check
	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// Players
	api.HandleFunc("/players/{playerID}/stats", handler.GetPlayerStats).Methods("GET")

	// Teams
	api.HandleFunc("/teams/{teamID}/stats", handler.GetTeamStats).Methods("GET")
	api.HandleFunc("/teams/{teamID}/players", handler.GetTeamPlayers).Methods("GET")
	api.HandleFunc("/teams/{teamID}/highlights", handler.GetTeamHighlights).Methods("GET")

	// Public snapshot
	api.HandleFunc("/public-stats", handler.GetPublicStats).Methods("GET")
	api.HandleFunc("/public-stats/publish", handler.PublishPublicStats).Methods("GET", "POST", "OPTIONS")

	// Scheduler
	api.HandleFunc("/scheduler/status", handler.GetSchedulerStatus).Methods("GET")

	return router
}

// NewServer creates a new REST API server
func NewServer(port string, handler *Handler, logger *logrus.Entry) *Server {
	return &Server{
		port:    port,
		handler: handler,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%s", port),
			Handler:           NewRouter(handler, logger),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start starts the REST API server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
