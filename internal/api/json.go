package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/thywilljoshua/pdf-reader/internal/ai"
	"github.com/thywilljoshua/pdf-reader/internal/apperr"
	"github.com/thywilljoshua/pdf-reader/internal/document"
	"github.com/thywilljoshua/pdf-reader/internal/highlight"
	"github.com/thywilljoshua/pdf-reader/internal/outline"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errResponse struct {
	Error string `json:"error"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// validatable request bodies check themselves after decoding.
type validatable interface {
	Validate() error
}

// decodeJSON reads a JSON body into dst and validates it. Both decode and
// validation failures are reported as invalid input.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}
	if v, ok := dst.(validatable); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
		}
	}
	return nil
}

// statusOf maps domain errors to HTTP status codes.
func statusOf(err error) int {
	var parseErr *outline.ParseError
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrInvalidInput),
		errors.Is(err, document.ErrNotPDF),
		errors.Is(err, ai.ErrNoSelection),
		errors.Is(err, highlight.ErrEmptyText):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrUnsupported):
		return http.StatusNotImplemented
	case errors.As(err, &parseErr),
		errors.Is(err, outline.ErrNoToC),
		errors.Is(err, outline.ErrNoBookmarks):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, ai.ErrNoContent):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeError answers with the status for err. Server errors are logged and
// their detail is not sent to the client.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError && status != http.StatusGatewayTimeout && status != http.StatusBadGateway {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeJSON(w, status, errorBody("internal error"))
		return
	}
	writeJSON(w, status, errorBody(err.Error()))
}
