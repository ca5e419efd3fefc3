package remote

import (
	"errors"
	"fmt"
)

// AuthError is returned when the remote store rejects the credential.
// Callers should stop retrying and ask the user to sign in again.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return "authentication failed"
	}
	return fmt.Sprintf("authentication failed: %s", e.Message)
}

// IsAuthError reports whether err is, or wraps, an AuthError.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// APIError is any other non-success response from the remote store.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote store returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("remote store returned status %d: %s", e.StatusCode, e.Message)
}
