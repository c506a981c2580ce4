package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/khoahotran/internmatch-client/pkg/apperror"
	"github.com/khoahotran/internmatch-client/pkg/auth"
	"github.com/khoahotran/internmatch-client/pkg/logger"
)

const (
	GinContextKeySubject = "subject"
	GinContextKeyRoles   = "roles"
)

// AuthMiddleware rejects requests without a valid bearer token with 403, the
// way the production backend does.
func AuthMiddleware(jwtSvc *auth.JWTService, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Authorization header is required"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid token format"})
			return
		}

		claims, err := jwtSvc.ValidateToken(tokenString)
		if err != nil {
			log.Debug("Rejected token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(GinContextKeySubject, claims.Subject)
		c.Set(GinContextKeyRoles, claims.Roles)

		c.Next()
	}
}

func GetSubjectFromGinContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(GinContextKeySubject)
	if !ok {
		return "", false
	}
	subject, ok := v.(string)
	return subject, ok && subject != ""
}

// ErrorMiddleware renders the last error a handler attached with c.Error.
func ErrorMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		status := apperror.ToHTTPStatus(err)
		var appErr *apperror.AppError
		if !errors.As(err, &appErr) {
			appErr = apperror.NewInternal("unhandled error", err)
		}
		if status >= http.StatusInternalServerError {
			log.Error("Request failed", err, zap.String("path", c.FullPath()), zap.Int("status", status))
		}
		c.JSON(status, appErr.ToJSON())
	}
}
