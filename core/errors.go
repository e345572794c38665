package core

import "net/http"

// HTTPError carries an HTTP status code and a stable machine-readable key.
// The key is returned to clients in the response envelope's "code" field,
// so it must never contain internal detail.
type HTTPError struct {
	Status int
	Key    string
}

func (e HTTPError) Error() string {
	return e.Key
}

// NewHTTPError creates a custom HTTP error with the given status code and key.
func NewHTTPError(status int, key string) HTTPError {
	return HTTPError{Status: status, Key: key}
}

var (
	ErrBadRequest          = HTTPError{Status: http.StatusBadRequest, Key: "bad_request"}
	ErrUnauthorized        = HTTPError{Status: http.StatusUnauthorized, Key: "unauthorized"}
	ErrForbidden           = HTTPError{Status: http.StatusForbidden, Key: "forbidden"}
	ErrNotFound            = HTTPError{Status: http.StatusNotFound, Key: "not_found"}
	ErrConflict            = HTTPError{Status: http.StatusConflict, Key: "conflict"}
	ErrTooManyRequests     = HTTPError{Status: http.StatusTooManyRequests, Key: "too_many_requests"}
	ErrInternalServerError = HTTPError{Status: http.StatusInternalServerError, Key: "internal_error"}
)
