package core

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrymomot/chatbill/pkg/requestid"
)

// Response is the JSON envelope returned by every endpoint, success or failure.
type Response struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Message   string `json:"message,omitempty"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"requestId"`
}

// JSON writes a success envelope with the given status and payload.
func JSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	writeJSON(w, status, Response{
		Success:   true,
		Data:      data,
		RequestID: requestid.FromContext(r.Context()),
	})
}

// Error converts err into an error envelope. Known HTTPError values keep
// their status and key; anything else becomes a generic 500 so internal
// error text never reaches the caller.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	code := ErrInternalServerError.Key
	message := "internal server error"

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		status = httpErr.Status
		code = httpErr.Key
		message = http.StatusText(httpErr.Status)
	}

	writeJSON(w, status, Response{
		Success:   false,
		Message:   message,
		Code:      code,
		RequestID: requestid.FromContext(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
