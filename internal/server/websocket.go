package server

import (
	stderrors "errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/yeonho/movie-suggester-go/internal/domain"
	errs "github.com/yeonho/movie-suggester-go/pkg/errors"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Origin policy is enforced by the CORS layer for HTTP; websocket
	// clients are trusted once they reached this handler.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleSuggestWS serves one suggestion request per connection: the
// client sends a {"prompt": ...} message and receives the same event
// payloads as the SSE endpoint, then the connection closes.
func (s *Server) handleSuggestWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	var req domain.SuggestionRequest
	if err := conn.ReadJSON(&req); err != nil {
		_ = conn.WriteJSON(map[string]string{
			"error": "message must be JSON with a prompt field",
			"code":  errs.CodeValidation,
		})
		return
	}

	resp, err := s.orchestrator.SuggestStream(r.Context(), req,
		func(chunk string) {
			_ = conn.WriteJSON(map[string]string{"chunk": chunk})
		},
		func(status string) {
			_ = conn.WriteJSON(map[string]string{"status": status})
		},
	)
	if err != nil {
		var validationErr *errs.ValidationError
		if stderrors.As(err, &validationErr) {
			_ = conn.WriteJSON(map[string]string{
				"error": validationErr.Message,
				"code":  errs.CodeValidation,
			})
			return
		}
		if r.Context().Err() != nil {
			return
		}
		s.logger.Error("Websocket stream terminated", zap.Error(err))
		_ = conn.WriteJSON(map[string]string{
			"error": "generation stream was interrupted",
			"code":  errs.CodeIncompleteStream,
		})
		return
	}

	_ = conn.WriteJSON(map[string]any{"final_result": resp})
	_ = conn.WriteJSON(map[string]bool{"complete": true})
}
