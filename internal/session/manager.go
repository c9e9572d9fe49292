package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/wellness-admin/internal/models"
)

const issuer = "admin-console"

// ManagerConfig configures the session cookie.
type ManagerConfig struct {
	Secret       string
	TTL          time.Duration
	CookieName   string
	CookieSecure bool
}

// Manager is the single read/write surface for operator sessions.
type Manager struct {
	store  Store
	cfg    ManagerConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewManager constructs a Manager.
func NewManager(store Store, cfg ManagerConfig, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 12 * time.Hour
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "admin_session"
	}
	return &Manager{store: store, cfg: cfg, logger: logger, now: time.Now}
}

// CookieName returns the name of the session cookie.
func (m *Manager) CookieName() string {
	return m.cfg.CookieName
}

// Load resolves the request's session. Missing, invalid or expired cookies yield an
// anonymous session; only store failures are returned as errors.
func (m *Manager) Load(c *gin.Context) (*Session, error) {
	anonymous := &Session{}

	raw, err := c.Cookie(m.cfg.CookieName)
	if err != nil || raw == "" {
		return anonymous, nil
	}

	id, err := m.parse(raw)
	if err != nil {
		m.logger.Debug("rejecting session cookie", zap.Error(err))
		return anonymous, nil
	}

	s, err := m.store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return anonymous, nil
		}
		return anonymous, err
	}
	if !s.ExpiresAt.IsZero() && !m.now().Before(s.ExpiresAt) {
		return anonymous, nil
	}
	return s, nil
}

// Login starts an authenticated session for admin holding the upstream token.
// Any session previously referenced by the cookie is discarded.
func (m *Manager) Login(c *gin.Context, token string, admin models.AdminProfile) (*Session, error) {
	if raw, err := c.Cookie(m.cfg.CookieName); err == nil && raw != "" {
		if oldID, err := m.parse(raw); err == nil {
			_ = m.store.Delete(c.Request.Context(), oldID)
		}
	}

	now := m.now().UTC()
	s := &Session{
		ID:            uuid.NewString(),
		Authenticated: true,
		Token:         token,
		Admin:         admin,
		CreatedAt:     now,
		ExpiresAt:     now.Add(m.cfg.TTL),
	}
	if err := m.store.Save(c.Request.Context(), s, m.cfg.TTL); err != nil {
		return nil, err
	}

	signed, err := m.sign(s)
	if err != nil {
		return nil, err
	}
	m.setCookie(c, signed, int(m.cfg.TTL.Seconds()))
	Set(c, s)
	return s, nil
}

// Logout clears the auth flag, token and cached admin and expires the cookie.
// It returns the ID of the session that was cleared, if any.
func (m *Manager) Logout(c *gin.Context) (string, error) {
	var id string
	if s := FromContext(c); s != nil && s.ID != "" {
		id = s.ID
	} else if raw, err := c.Cookie(m.cfg.CookieName); err == nil && raw != "" {
		id, _ = m.parse(raw)
	}

	m.setCookie(c, "", -1)
	Set(c, &Session{})

	if id == "" {
		return "", nil
	}
	if err := m.store.Delete(c.Request.Context(), id); err != nil {
		return id, err
	}
	return id, nil
}

// UpdateAdmin replaces the cached admin profile of s.
func (m *Manager) UpdateAdmin(c *gin.Context, s *Session, admin models.AdminProfile) error {
	if !s.IsAuthenticated() {
		return ErrNotFound
	}
	s.Admin = admin
	ttl := s.ExpiresAt.Sub(m.now())
	if ttl <= 0 {
		return ErrNotFound
	}
	return m.store.Save(c.Request.Context(), s, ttl)
}

func (m *Manager) sign(s *Session) (string, error) {
	claims := models.SessionClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   s.ID,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(s.CreatedAt),
		ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
	}}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign session cookie: %w", err)
	}
	return signed, nil
}

func (m *Manager) parse(raw string) (string, error) {
	claims := &models.SessionClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.cfg.Secret), nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(m.now))
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.Subject == "" {
		return "", errors.New("invalid session claims")
	}
	return claims.Subject, nil
}

func (m *Manager) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cfg.CookieName, value, maxAge, "/", "", m.cfg.CookieSecure, true)
}
