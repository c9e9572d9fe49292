package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/wellness-admin/internal/service"
	"github.com/noah-isme/wellness-admin/internal/session"
	"github.com/noah-isme/wellness-admin/pkg/apiclient"
	appErrors "github.com/noah-isme/wellness-admin/pkg/errors"
	"github.com/noah-isme/wellness-admin/pkg/logger"
	"github.com/noah-isme/wellness-admin/pkg/response"
)

// LoadSession resolves the operator session of every request. For authenticated
// sessions the upstream token and the operator travel on the request context.
func LoadSession(mgr *session.Manager, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		s, err := mgr.Load(c)
		if err != nil {
			log.Error("session store unavailable", zap.Error(err))
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusServiceUnavailable, "session store unavailable"))
			c.Abort()
			return
		}
		session.Set(c, s)

		if s.IsAuthenticated() {
			ctx := apiclient.WithToken(c.Request.Context(), s.Token)
			ctx = service.WithActor(ctx, service.Actor{AdminID: s.Admin.ID, Email: s.Admin.Email, IPAddress: c.ClientIP()})
			c.Request = c.Request.WithContext(ctx)
			c.Set(logger.OperatorKey, s.Admin.Email)
		}
		c.Next()
	}
}

// Protected lets only authenticated sessions through. Browsers are redirected to
// loginPath; API callers get a 401 envelope carrying the redirect.
func Protected(loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if session.FromContext(c).IsAuthenticated() {
			c.Next()
			return
		}
		if wantsJSON(c) {
			response.Error(c, appErrors.ErrUnauthorized, map[string]interface{}{"redirect": loginPath})
			c.Abort()
			return
		}
		c.Redirect(http.StatusFound, loginPath)
		c.Abort()
	}
}

// Public lets only anonymous sessions through and sends signed-in operators to
// dashboardPath.
func Public(dashboardPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !session.FromContext(c).IsAuthenticated() {
			c.Next()
			return
		}
		if wantsJSON(c) {
			response.JSON(c, http.StatusOK, gin.H{"authenticated": true}, nil, map[string]interface{}{"redirect": dashboardPath})
			c.Abort()
			return
		}
		c.Redirect(http.StatusFound, dashboardPath)
		c.Abort()
	}
}

func wantsJSON(c *gin.Context) bool {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		return true
	}
	accept := c.GetHeader("Accept")
	return strings.Contains(accept, "application/json") || c.GetHeader("X-Requested-With") == "XMLHttpRequest"
}
