package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Derecoder4/Freelance-Fi/internal/logger"
	"github.com/Derecoder4/Freelance-Fi/internal/pkg/apperror"
)

// ErrorHandler обрабатывает ошибки централизованно.
// Ошибки приложения отдаются со своим кодом и HTTP статусом,
// всё остальное маскируется как внутренняя ошибка.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Проверяем, не был ли уже отправлен ответ
		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status, body := errorResponse(err)

		if logger.Log != nil {
			entry := logger.Log.WithFields(logrus.Fields{
				"error":  err.Error(),
				"code":   body.Code,
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			})
			if status >= http.StatusInternalServerError {
				entry.Error("Request error")
			} else {
				entry.Info("Request rejected")
			}
		}

		c.JSON(status, body)
	}
}

// ErrorBody - формат ошибки во всех ответах API.
type ErrorBody struct {
	Error string             `json:"error"`
	Code  apperror.ErrorCode `json:"code"`
}

func errorResponse(err error) (int, ErrorBody) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		message := appErr.Message
		if appErr.HTTPStatus >= http.StatusInternalServerError && appErr.Code != apperror.ErrCodeTransientWrite {
			message = "внутренняя ошибка сервера"
		}
		return appErr.HTTPStatus, ErrorBody{Error: message, Code: appErr.Code}
	}
	return http.StatusInternalServerError, ErrorBody{Error: "внутренняя ошибка сервера", Code: apperror.ErrCodeInternal}
}

// abortWithError прерывает цепочку и сразу пишет ответ, минуя ErrorHandler.
func abortWithError(c *gin.Context, err error) {
	status, body := errorResponse(err)
	c.AbortWithStatusJSON(status, body)
}
