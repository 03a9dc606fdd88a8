package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/lecturehub/apiserver/internal/apperr"
)

// ErrorResponse is the error payload. Error carries the cause of server
// errors outside production.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// errorWriter renders service errors as JSON.
type errorWriter struct {
	exposeDetail bool
}

func (e errorWriter) write(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	resp := ErrorResponse{Message: apperr.Message(err)}
	if status == http.StatusInternalServerError && e.exposeDetail {
		resp.Error = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Message: message})
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, apperr.Validation("Failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, apperr.Validation("Video file must be 50MB or smaller")
	}
	return data, nil
}
