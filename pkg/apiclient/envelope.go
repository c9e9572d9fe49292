package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedData is returned by Unwrap when data does not decode into the requested type.
var ErrMalformedData = errors.New("unexpected response shape")

// UnsuccessfulError is returned by Unwrap when a 2xx envelope reports success=false.
type UnsuccessfulError struct {
	Message string
}

func (e *UnsuccessfulError) Error() string {
	if e.Message == "" {
		return "upstream reported failure"
	}
	return e.Message
}

// Unwrap checks the envelope success flag and decodes Data into out.
func (e Envelope) Unwrap(out interface{}) error {
	if !e.Success {
		return &UnsuccessfulError{Message: e.Message}
	}
	if out == nil || len(e.Data) == 0 || string(e.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(e.Data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedData, err)
	}
	return nil
}

// Empty reports whether the 2xx response carried no body at all, as with 204.
func (e Envelope) Empty() bool {
	return e.empty
}

func (e *Envelope) markEmpty() {
	e.empty = true
}

// emptyBodyReceiver is implemented by decode targets that need to tell an absent body
// from a zero-valued one.
type emptyBodyReceiver interface {
	markEmpty()
}
