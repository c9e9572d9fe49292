package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error is returned for every non-2xx upstream response. Payload holds the parsed
// response body, or an empty map when the body was not a JSON object.
type Error struct {
	Method  string
	Path    string
	Status  int
	Payload map[string]interface{}
}

func newError(method, path string, status int, raw []byte) *Error {
	payload := map[string]interface{}{}
	if err := json.Unmarshal(raw, &payload); err != nil || payload == nil {
		payload = map[string]interface{}{}
	}
	return &Error{Method: method, Path: path, Status: status, Payload: payload}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message())
}

// Message returns the human readable message carried by the payload, if any.
func (e *Error) Message() string {
	for _, key := range []string{"message", "error"} {
		if v, ok := e.Payload[key].(string); ok && v != "" {
			return v
		}
	}
	if text := http.StatusText(e.Status); text != "" {
		return text
	}
	return "request failed"
}

// IsUnauthorized reports whether err is an upstream 401.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}
