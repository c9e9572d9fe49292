package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/wellness-admin/internal/middleware"
	"github.com/noah-isme/wellness-admin/internal/models"
	"github.com/noah-isme/wellness-admin/internal/service"
	"github.com/noah-isme/wellness-admin/internal/session"
	appErrors "github.com/noah-isme/wellness-admin/pkg/errors"
	"github.com/noah-isme/wellness-admin/pkg/response"
)

func currentSession(c *gin.Context) *session.Session {
	s := session.FromContext(c)
	if s == nil {
		return &session.Session{}
	}
	return s
}

func currentAdmin(c *gin.Context) models.AdminProfile {
	return currentSession(c).Admin
}

func respond(c *gin.Context, status int, data interface{}, pagination *models.Pagination) {
	response.JSON(c, status, data, pagination, middleware.ExtractMeta(c))
}

func fail(c *gin.Context, err error) {
	if errors.Is(err, session.ErrNotFound) {
		err = appErrors.Wrap(err, appErrors.ErrSessionExpired.Code, appErrors.ErrSessionExpired.Status, appErrors.ErrSessionExpired.Message)
	}
	middleware.Fail(c, service.TranslateError(err))
}

func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		middleware.Fail(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}
