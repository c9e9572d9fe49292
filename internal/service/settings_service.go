package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/wellness-admin/internal/listing"
	"github.com/noah-isme/wellness-admin/internal/models"
	"github.com/noah-isme/wellness-admin/pkg/apiclient"
)

const (
	updateProfilePath  = "/api/admin/auth/profile"
	changePasswordPath = "/api/admin/auth/change-password"
)

// SettingsService backs the settings screen.
type SettingsService struct {
	api       listing.Requester
	auth      *AuthService
	audit     *AuditService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(api listing.Requester, auth *AuthService, audit *AuditService, validate *validator.Validate, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &SettingsService{api: api, auth: auth, audit: audit, validator: validate, logger: logger}
}

// Profile returns the operator profile.
func (s *SettingsService) Profile(ctx context.Context) (*models.AdminProfile, error) {
	return s.auth.Me(ctx)
}

// UpdateProfile saves name, email and phone.
func (s *SettingsService) UpdateProfile(ctx context.Context, req models.UpdateProfileRequest) (*models.AdminProfile, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, TranslateError(err)
	}

	var env apiclient.Envelope
	if err := s.api.Put(ctx, updateProfilePath, req, &env); err != nil {
		return nil, TranslateError(err)
	}
	profile, err := decodeProfile(env)
	if err != nil {
		return nil, TranslateError(err)
	}

	s.audit.Record(ctx, "update", "profile", profile.ID, map[string]interface{}{"fields": []string{"name", "email", "phone"}})
	return profile, nil
}

// ChangePassword validates locally, then forwards the change.
func (s *SettingsService) ChangePassword(ctx context.Context, req models.ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return TranslateError(err)
	}
	if req.NewPassword != req.ConfirmPassword {
		return TranslateError(&listing.FieldError{Field: "confirmPassword", Message: "passwords do not match"})
	}

	body := map[string]string{"currentPassword": req.CurrentPassword, "newPassword": req.NewPassword}
	var env apiclient.Envelope
	if err := s.api.Put(ctx, changePasswordPath, body, &env); err != nil {
		return TranslateError(err)
	}
	if err := env.Unwrap(nil); err != nil {
		return TranslateError(err)
	}

	s.audit.Record(ctx, "change_password", "profile", "", nil)
	return nil
}
