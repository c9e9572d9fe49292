package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/wellness-admin/internal/session"
	appErrors "github.com/noah-isme/wellness-admin/pkg/errors"
	"github.com/noah-isme/wellness-admin/pkg/response"
)

// RequirePermission enforces a sidebar permission on a route. Super admins hold all.
func RequirePermission(perm string) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := session.FromContext(c)
		if !s.IsAuthenticated() {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !s.Admin.HasPermission(perm) {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "missing permission "+perm))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireEntityPermission reads the entity from the named path parameter and
// enforces the permission of the same name.
func RequireEntityPermission(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		RequirePermission(c.Param(param))(c)
	}
}
