package remote

import (
	"errors"
	"fmt"
	"net/http"
)

// RequestError is a network or HTTP failure talking to a remote service.
// Status is zero when the request never got a response.
type RequestError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	switch {
	case e.Status != 0 && e.Message != "":
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": request failed"
	}
}

func (e *RequestError) Unwrap() error { return e.Err }

// AuthError is a 401 from a remote service. It is never retried; the
// surrounding app sends the user back to authentication.
type AuthError struct {
	Op      string
	Message string
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: unauthorized: %s", e.Op, e.Message)
	}
	return e.Op + ": unauthorized"
}

// IsAuth reports whether err is, or wraps, an AuthError.
func IsAuth(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsRequest reports whether err is, or wraps, a RequestError.
func IsRequest(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Status
	}
	if IsAuth(err) {
		return http.StatusUnauthorized
	}
	return 0
}
