package board

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError represents a non-2xx response from the board API. The body of the
// response, if any, is carried in Message.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("board API returned %d", e.StatusCode)
	}
	return fmt.Sprintf("board API returned %d: %s", e.StatusCode, e.Message)
}

// IsNotFound returns true if the error is a 404 from the board API,
// false otherwise (including nil).
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsUnauthorized returns true if the error is a 401 from the board API,
// which almost always means a bad or expired key/token pair.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}
