package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/homeride/backend/internal/api/dto"
	apperrors "github.com/homeride/backend/pkg/errors"
	"github.com/homeride/backend/pkg/logger"
)

// AdminChecker reports whether the caller holds the admin role.
type AdminChecker interface {
	IsAdmin(ctx context.Context, email string) (bool, error)
}

// RequireAdmin must run after Auth. Callers without the admin role get 403.
func RequireAdmin(checker AdminChecker, log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.NewNop()
	}
	return func(c *gin.Context) {
		email := CallerEmail(c)
		ok, err := checker.IsAdmin(c.Request.Context(), email)
		if err != nil {
			appErr := apperrors.GetAppError(err)
			if appErr.Status >= http.StatusInternalServerError {
				log.Error("Admin check failed", logger.Email(email), logger.Err(err))
			}
			c.AbortWithStatusJSON(appErr.Status, dto.ErrorResponse{Code: appErr.Code, Message: appErr.Message})
			return
		}
		if !ok {
			log.Warn("Admin route refused", logger.Email(email), logger.String("path", c.FullPath()))
			c.AbortWithStatusJSON(http.StatusForbidden, dto.ErrorResponse{
				Code:    apperrors.ErrAdminOnly.Code,
				Message: apperrors.ErrAdminOnly.Message,
			})
			return
		}
		c.Next()
	}
}
