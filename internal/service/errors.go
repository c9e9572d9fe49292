package service

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/wellness-admin/internal/listing"
	"github.com/noah-isme/wellness-admin/pkg/apiclient"
	appErrors "github.com/noah-isme/wellness-admin/pkg/errors"
)

// TranslateError maps transport, upstream and pre-call validation failures onto the
// console error taxonomy. The original error stays reachable through Unwrap.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *appErrors.Error
	var fieldErr *listing.FieldError
	var apiErr *apiclient.Error
	var unsuccessful *apiclient.UnsuccessfulError
	var validationErrs validator.ValidationErrors

	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.As(err, &fieldErr):
		out := appErrors.WithFields(fieldErr.Message, map[string]string{fieldErr.Field: fieldErr.Message})
		out.Err = err
		return out
	case errors.As(err, &validationErrs):
		fields := make(map[string]string, len(validationErrs))
		for _, fe := range validationErrs {
			fields[fe.Field()] = validationMessage(fe)
		}
		out := appErrors.WithFields("invalid payload", fields)
		out.Err = err
		return out
	case errors.Is(err, listing.ErrInvalidTransition):
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, http.StatusConflict, err.Error())
	case errors.Is(err, listing.ErrRecordNotOnPage):
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, http.StatusNotFound, err.Error())
	case errors.As(err, &apiErr):
		status := apiErr.Status
		if status >= http.StatusInternalServerError || status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		code := appErrors.ErrUpstream.Code
		if status == http.StatusUnauthorized {
			code = appErrors.ErrSessionExpired.Code
		}
		return appErrors.Wrap(err, code, status, apiErr.Message())
	case errors.As(err, &unsuccessful):
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, http.StatusUnprocessableEntity, unsuccessful.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, http.StatusGatewayTimeout, "admin API timed out")
	case errors.Is(err, listing.ErrUnexpectedShape):
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, http.StatusBadGateway, listing.ErrUnexpectedShape.Error())
	}
	return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, appErrors.ErrUpstream.Message)
}

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email address"
	case "min":
		return fe.Field() + " must be at least " + fe.Param() + " characters"
	case "oneof":
		return fe.Field() + " must be one of " + fe.Param()
	case "datetime":
		return fe.Field() + " must use the format " + fe.Param()
	}
	return fe.Field() + " is invalid"
}
