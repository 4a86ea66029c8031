package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/edgard/cityguide/internal/assistant"
	"github.com/edgard/cityguide/internal/logger"
)

const (
	invalidRequestMsg = "Invalid request: 'input' must be a string."
	internalErrorMsg  = "An error occurred while processing your request."

	maxRequestBytes = 64 << 10
)

// executeRequest is the body of POST /api/execute. Pointers tell a missing
// field apart from an empty string.
type executeRequest struct {
	Input  *string `json:"input"  validate:"required"`
	UserID *string `json:"userId" validate:"required"`
}

var validate = validator.New()

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req executeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		s.log.WarnContext(ctx, "Invalid request: body is not a valid execute request", "error", err)
		writeJSON(w, http.StatusBadRequest, errorResult(invalidRequestMsg))
		return
	}
	if err := validate.Struct(req); err != nil {
		s.log.WarnContext(ctx, "Invalid request: 'input' must be a string", "error", err)
		writeJSON(w, http.StatusBadRequest, errorResult(invalidRequestMsg))
		return
	}

	input, userID := *req.Input, *req.UserID
	s.log.InfoContext(ctx, "Executing command", "input", logger.Truncate(input, 200), "user_id", userID)

	res, err := s.execute(r, input, userID)
	if err != nil {
		s.log.ErrorContext(ctx, "Command execution error", "user_id", userID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResult(internalErrorMsg))
		return
	}

	s.log.InfoContext(ctx, "Command result", "type", res.Type, "user_id", userID)
	writeJSON(w, http.StatusOK, res)
}

// execute runs the assistant, turning a panic into an error.
func (s *Server) execute(r *http.Request, input, userID string) (res assistant.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic while executing command: %v", p)
		}
	}()
	return s.exec.Execute(r.Context(), input, userID)
}

func errorResult(msg string) assistant.Result {
	return assistant.Result{Type: assistant.TypeError, Lines: []string{msg}}
}
