package adminclient

import "fmt"

// APIError represents an error response from ldapd's admin API.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("admin API error (%d): %s", e.StatusCode, e.Message)
}

// IsAuthError reports whether this is an authentication/authorization error.
func (e *APIError) IsAuthError() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}
