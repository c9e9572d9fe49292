package service

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/wellness-admin/internal/listing"
	"github.com/noah-isme/wellness-admin/internal/models"
	"github.com/noah-isme/wellness-admin/pkg/apiclient"
	appErrors "github.com/noah-isme/wellness-admin/pkg/errors"
)

const (
	loginPath   = "/api/admin/auth/login"
	profilePath = "/api/admin/auth/me"
)

// AuthService signs operators in against the admin API.
type AuthService struct {
	api       listing.Requester
	workspace *WorkspaceService
	audit     *AuditService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(api listing.Requester, workspace *WorkspaceService, audit *AuditService, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &AuthService{api: api, workspace: workspace, audit: audit, validator: validate, logger: logger}
}

// Login exchanges credentials for the upstream token and admin profile.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, TranslateError(err)
	}

	var env apiclient.Envelope
	if err := s.api.Post(ctx, loginPath, req, &env); err != nil {
		var apiErr *apiclient.Error
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusBadRequest) {
			return nil, appErrors.Wrap(err, appErrors.ErrInvalidCredentials.Code, appErrors.ErrInvalidCredentials.Status, apiErr.Message())
		}
		return nil, TranslateError(err)
	}

	var result models.LoginResult
	if err := env.Unwrap(&result); err != nil {
		var unsuccessful *apiclient.UnsuccessfulError
		if errors.As(err, &unsuccessful) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, unsuccessful.Error())
		}
		return nil, TranslateError(err)
	}
	if result.Token == "" {
		return nil, appErrors.Clone(appErrors.ErrUpstream, "login response carried no token")
	}

	s.audit.Record(WithActor(ctx, Actor{AdminID: result.Admin.ID, Email: result.Admin.Email, IPAddress: actorIP(ctx)}), models.AuditActionLogin, "auth", result.Admin.ID, nil)
	return &result, nil
}

// Logout discards every mounted screen of the session.
func (s *AuthService) Logout(ctx context.Context, sessionID string) {
	discarded := 0
	if s.workspace != nil && sessionID != "" {
		discarded = s.workspace.Discard(sessionID)
	}
	s.audit.Record(ctx, models.AuditActionLogout, "auth", "", nil)
	s.logger.Debug("session closed", zap.String("session_id", sessionID), zap.Int("screens", discarded))
}

// Me returns the signed-in operator's profile from the admin API.
func (s *AuthService) Me(ctx context.Context) (*models.AdminProfile, error) {
	var env apiclient.Envelope
	if err := s.api.Get(ctx, profilePath, &env); err != nil {
		return nil, TranslateError(err)
	}
	profile, err := decodeProfile(env)
	if err != nil {
		return nil, TranslateError(err)
	}
	return profile, nil
}

// decodeProfile accepts both {admin:{...}} and a bare profile as data.
func decodeProfile(env apiclient.Envelope) (*models.AdminProfile, error) {
	var wrapped struct {
		Admin *models.AdminProfile `json:"admin"`
	}
	if err := env.Unwrap(&wrapped); err != nil {
		return nil, err
	}
	if wrapped.Admin != nil {
		return wrapped.Admin, nil
	}
	var profile models.AdminProfile
	if err := env.Unwrap(&profile); err != nil {
		return nil, err
	}
	if profile.ID == "" && profile.Email == "" {
		return nil, listing.ErrUnexpectedShape
	}
	return &profile, nil
}

func actorIP(ctx context.Context) string {
	if actor, ok := ActorFromContext(ctx); ok {
		return actor.IPAddress
	}
	return ""
}
