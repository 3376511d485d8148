package kit

import (
	"encoding/json"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type ErrorResponse struct {
	Error     string   `json:"error"`
	Errors    []string `json:"errors,omitempty"`
	Details   any      `json:"details,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, msg string, details any) {
	reqID := chimw.GetReqID(r.Context())
	WriteJSON(w, status, ErrorResponse{
		Error:     msg,
		Details:   details,
		RequestID: reqID,
	})
}

// WriteFieldErrors reports a set of per-field validation failures in one
// response. The first message doubles as the top-level error string.
func WriteFieldErrors(w http.ResponseWriter, r *http.Request, msgs []string) {
	reqID := chimw.GetReqID(r.Context())

	top := "validation failed"
	if len(msgs) > 0 {
		top = msgs[0]
	}

	WriteJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
		Error:     top,
		Errors:    msgs,
		RequestID: reqID,
	})
}
