package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/statline/internal/cache"
	"github.com/fortuna/statline/internal/series"
)

// Server is the read-only REST surface over the series stores. The core
// pipeline does not depend on it; it exists for downstream consumers.
type Server struct {
	port    string
	server  *http.Server
	handler *Handler
}

// NewServer creates a new REST API server.
func NewServer(port string, playerStore series.PlayerStore, oddsStore series.OddsStore, redisCache *cache.RedisCache, log *logrus.Entry) *Server {
	handler := NewHandler(playerStore, oddsStore, redisCache, log)

	router := mux.NewRouter()
	router.Use(loggingMiddleware(log))

	// Health check
	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/players/{player}/series", handler.GetPlayerSeries).Methods("GET")
	api.HandleFunc("/players/{player}/odds", handler.GetPlayerOdds).Methods("GET")

	return &Server{
		port:    port,
		handler: handler,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%s", port),
			Handler: router,
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

// loggingMiddleware logs each request with method, path, and duration.
func loggingMiddleware(log *logrus.Entry) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			next.ServeHTTP(w, r)
			log.WithFields(logrus.Fields{
				"method":  r.Method,
				"path":    r.URL.Path,
				"elapsed": time.Since(started).String(),
			}).Debug("Handled request")
		})
	}
}
