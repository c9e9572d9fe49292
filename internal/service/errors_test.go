package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/wellness-admin/internal/listing"
	"github.com/noah-isme/wellness-admin/pkg/apiclient"
	appErrors "github.com/noah-isme/wellness-admin/pkg/errors"
)

func TestTranslateError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "field", err: &listing.FieldError{Field: "email", Message: "email is required"}, status: http.StatusBadRequest, code: appErrors.ErrValidation.Code},
		{name: "transition", err: fmt.Errorf("open: %w", listing.ErrInvalidTransition), status: http.StatusConflict, code: appErrors.ErrConflict.Code},
		{name: "not on page", err: listing.ErrRecordNotOnPage, status: http.StatusNotFound, code: appErrors.ErrNotFound.Code},
		{name: "upstream 4xx", err: &apiclient.Error{Status: http.StatusConflict, Payload: map[string]interface{}{"message": "Email taken"}}, status: http.StatusConflict, code: appErrors.ErrUpstream.Code},
		{name: "upstream 401", err: &apiclient.Error{Status: http.StatusUnauthorized}, status: http.StatusUnauthorized, code: appErrors.ErrSessionExpired.Code},
		{name: "upstream 5xx", err: &apiclient.Error{Status: http.StatusInternalServerError}, status: http.StatusBadGateway, code: appErrors.ErrUpstream.Code},
		{name: "unsuccessful", err: &apiclient.UnsuccessfulError{Message: "nope"}, status: http.StatusUnprocessableEntity, code: appErrors.ErrUpstream.Code},
		{name: "timeout", err: context.DeadlineExceeded, status: http.StatusGatewayTimeout, code: appErrors.ErrUpstream.Code},
		{name: "transport", err: errors.New("dial tcp: refused"), status: http.StatusBadGateway, code: appErrors.ErrUpstream.Code},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var appErr *appErrors.Error
			require.True(t, errors.As(TranslateError(tc.err), &appErr))
			assert.Equal(t, tc.status, appErr.Status)
			assert.Equal(t, tc.code, appErr.Code)
		})
	}

	assert.Nil(t, TranslateError(nil))
	passthrough := appErrors.Clone(appErrors.ErrForbidden, "no")
	assert.Same(t, passthrough, TranslateError(passthrough))
}

func TestTranslateErrorKeepsUpstreamMessage(t *testing.T) {
	err := TranslateError(&apiclient.Error{Status: http.StatusConflict, Payload: map[string]interface{}{"message": "Email taken"}})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "Email taken", appErr.Message)
}
