package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/noisebridge/baron/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// StatusResponse describes the authoritative registry.
type StatusResponse struct {
	Loaded      bool   `json:"loaded"`
	Codes       int    `json:"codes"`
	Source      string `json:"source"`
	ReloadedAt  string `json:"reloaded_at,omitempty"`
	Promiscuous bool   `json:"promiscuous"`
}

// AttemptResponse is the JSON representation of one recorded attempt. The
// typed code itself is never served.
type AttemptResponse struct {
	ID        string `json:"id"`
	CodeHint  string `json:"code_hint,omitempty"`
	Decision  string `json:"decision"`
	Reason    string `json:"reason"`
	DecidedAt string `json:"decided_at"`
}

func toAttemptResponse(rec model.AttemptRecord) AttemptResponse {
	return AttemptResponse{
		ID:        rec.ID,
		CodeHint:  codeHint(rec),
		Decision:  string(rec.Decision),
		Reason:    rec.Reason,
		DecidedAt: rec.DecidedAt.UTC().Format(time.RFC3339Nano),
	}
}

// codeHint returns "*" plus the last digit of a denied code, enough to tell a
// mistyped code from a stale one. Codes that opened or would have opened the
// gate get no hint at all.
func codeHint(rec model.AttemptRecord) string {
	if rec.Decision != model.DecisionDenied || rec.Code == "" {
		return ""
	}
	return "*" + rec.Code[len(rec.Code)-1:]
}
