package listing

import (
	"errors"
	"fmt"

	"github.com/noah-isme/wellness-admin/pkg/apiclient"
)

var (
	// ErrInvalidTransition is returned for a modal move the state machine forbids.
	ErrInvalidTransition = errors.New("invalid modal transition")
	// ErrRecordNotOnPage is returned when a record-bound modal targets a record that is not loaded.
	ErrRecordNotOnPage = errors.New("record is not on the current page")
	// ErrUnknownFilter is returned by SetFilter for names outside the schema.
	ErrUnknownFilter = errors.New("unknown filter")
	// ErrUnexpectedShape is returned when a payload does not decode into the expected
	// shape, including envelope data the client could not decode.
	ErrUnexpectedShape = apiclient.ErrMalformedData
)

// FieldError reports an invalid form field detected before any network call.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func required(field string) *FieldError {
	return &FieldError{Field: field, Message: field + " is required"}
}
