package server

import (
	"net/http"

	"github.com/rs/cors"
	"github.com/yeonho/movie-suggester-go/internal/service"
	"go.uber.org/zap"
)

const (
	ServiceName = "movie-suggester-ai"
	Version     = "0.1.0"
)

// Server exposes the suggestion pipeline over HTTP.
type Server struct {
	orchestrator   *service.SuggestionOrchestrator
	allowedOrigins []string
	logger         *zap.Logger
}

func NewServer(orchestrator *service.SuggestionOrchestrator, allowedOrigins []string, logger *zap.Logger) *Server {
	return &Server{
		orchestrator:   orchestrator,
		allowedOrigins: allowedOrigins,
		logger:         logger,
	}
}

// Handler builds the route table wrapped with CORS.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /suggest", s.handleSuggest)
	mux.HandleFunc("POST /suggest/stream", s.handleSuggestStream)
	mux.HandleFunc("GET /suggest/ws", s.handleSuggestWS)

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return corsMiddleware.Handler(mux)
}
