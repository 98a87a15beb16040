package httptransport

import (
	"encoding/json"
	"net/http"
	"time"

	dErrors "adminauth/pkg/domain-errors"
)

// envelope is the uniform response shape of the auth API. Every response,
// success or failure, carries it; failures never include a data payload.
type envelope struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func writeSuccess(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, envelope{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

// writeError converts a domain error into the failure envelope. Internal
// errors get a generic message so no store detail or stack ever reaches the
// client; all other codes surface their domain message.
func writeError(w http.ResponseWriter, err error) {
	code := dErrors.GetCode(err)
	message := dErrors.Message(err)
	if code == dErrors.CodeInternal || message == "" {
		message = "internal server error"
	}
	writeJSON(w, dErrors.ToHTTPStatus(code), envelope{
		Success:   false,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
