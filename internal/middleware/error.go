// Package middleware provides Gin middleware for logging, error rendering
// and rate limiting.
package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/mohammedbabelly/zakah-calculator/internal/errors"
	"github.com/mohammedbabelly/zakah-calculator/internal/logger"
)

// ErrorHandler renders the last error attached to the context unless the
// handler already wrote a response.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		WriteError(c, c.Errors.Last().Err)
	}
}

// WriteError aborts the request with {"error":{"code","message"}}. Errors
// that are not AppErrors become INTERNAL_ERROR; their text is logged and
// never sent to the client.
func WriteError(c *gin.Context, err error) {
	appErr := toAppError(err)
	logFailure(c, appErr)
	c.AbortWithStatusJSON(appErr.StatusCode, gin.H{
		"error": gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	})
}

func toAppError(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}

// logFailure logs 5xx responses at error level and client errors carrying
// an internal cause at warn level. Plain client errors are left to the
// request log.
func logFailure(c *gin.Context, appErr *apperrors.AppError) {
	serverSide := appErr.StatusCode >= http.StatusInternalServerError
	if !serverSide && appErr.Internal == nil {
		return
	}

	fields := []interface{}{
		"code", appErr.Code,
		"status", appErr.StatusCode,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"request_id", RequestID(c),
	}
	if appErr.Internal != nil {
		fields = append(fields, "internal", appErr.Internal.Error())
	}

	if serverSide {
		logger.Get().Errorw("request failed", fields...)
		return
	}
	logger.Get().Warnw("request rejected", fields...)
}
