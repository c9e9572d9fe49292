package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/wellness-admin/internal/service"
	"github.com/noah-isme/wellness-admin/internal/session"
	"github.com/noah-isme/wellness-admin/pkg/apiclient"
	"github.com/noah-isme/wellness-admin/pkg/response"
)

const authFailureKey = "upstream_auth_failure"

type authFailure struct {
	mgr       *session.Manager
	workspace *service.WorkspaceService
	loginPath string
	logger    *zap.Logger
}

// UpstreamAuthFailure arms forced logout for the request: when the admin API answers
// 401, Fail ends the session before responding. Disabled, a 401 is reported like any
// other upstream error.
func UpstreamAuthFailure(mgr *session.Manager, workspace *service.WorkspaceService, enabled bool, loginPath string, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	failure := &authFailure{mgr: mgr, workspace: workspace, loginPath: loginPath, logger: log}
	return func(c *gin.Context) {
		if enabled {
			c.Set(authFailureKey, failure)
		}
		c.Next()
	}
}

// Fail writes err as the error response, with any collected response metadata.
func Fail(c *gin.Context, err error) {
	if apiclient.IsUnauthorized(err) {
		if value, ok := c.Get(authFailureKey); ok {
			if failure, ok := value.(*authFailure); ok {
				failure.endSession(c)
			}
		}
	}
	response.Error(c, err, ExtractMeta(c))
}

func (f *authFailure) endSession(c *gin.Context) {
	id, err := f.mgr.Logout(c)
	if err != nil {
		f.logger.Warn("forced logout could not delete session", zap.String("session_id", id), zap.Error(err))
	}
	if id != "" && f.workspace != nil {
		f.workspace.Discard(id)
	}
	f.logger.Info("session ended after upstream 401", zap.String("session_id", id))
	SetRedirect(c, f.loginPath)
}
