package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/yeonho/movie-suggester-go/internal/domain"
	"github.com/yeonho/movie-suggester-go/internal/service"
	errs "github.com/yeonho/movie-suggester-go/pkg/errors"
	"go.uber.org/zap"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Welcome to Movie Suggester AI",
		"description": "AI-powered movie suggestion API",
		"version":     Version,
		"status":      "active",
		"endpoints": map[string]string{
			"health":         "/health",
			"suggest":        "/suggest",
			"suggest_stream": "/suggest/stream",
			"suggest_ws":     "/suggest/ws",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": ServiceName,
		"version": Version,
	})
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	resp, err := s.orchestrator.Suggest(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleSuggestStream streams the pipeline over server-sent events:
// {status} and {chunk} events while generating, then {final_result}
// followed by {complete: true}. A broken model stream ends with an
// {error} event instead of {complete}.
func (s *Server) handleSuggestStream(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	// Reject invalid prompts before committing to an event stream.
	if _, err := service.ValidateRequest(req); err != nil {
		s.writeError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, errs.NewAPIError("streaming unsupported by transport", http.StatusInternalServerError, nil))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	send := func(event any) {
		data, err := json.Marshal(event)
		if err != nil {
			return
		}
		_, _ = w.Write([]byte("data: "))
		_, _ = w.Write(data)
		_, _ = w.Write([]byte("\n\n"))
		flusher.Flush()
	}

	resp, err := s.orchestrator.SuggestStream(r.Context(), req,
		func(chunk string) {
			send(map[string]string{"chunk": chunk})
		},
		func(status string) {
			send(map[string]string{"status": status})
		},
	)
	if err != nil {
		if r.Context().Err() != nil {
			s.logger.Debug("Stream aborted by client")
			return
		}
		s.logger.Error("Stream terminated", zap.Error(err))
		send(map[string]string{
			"error": "generation stream was interrupted",
			"code":  errs.CodeIncompleteStream,
		})
		return
	}

	send(map[string]any{"final_result": resp})
	send(map[string]bool{"complete": true})
}

func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (domain.SuggestionRequest, bool) {
	var req domain.SuggestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errs.NewValidationError("request body must be JSON with a prompt field", "body", nil))
		return domain.SuggestionRequest{}, false
	}
	return req, true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	var validationErr *errs.ValidationError
	var suggestErr *errs.SuggestError

	switch {
	case stderrors.As(err, &validationErr):
		status = validationErr.StatusCode
		message = validationErr.Message
	case stderrors.As(err, &suggestErr):
		status = suggestErr.StatusCode
		message = suggestErr.Message
	default:
		s.logger.Error("Unhandled request error", zap.Error(err))
	}

	writeJSON(w, status, map[string]any{
		"error":       message,
		"status_code": status,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
