package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Derecoder4/Freelance-Fi/internal/pkg/apperror"
)

// GigIDValidator проверяет, что параметр - положительный номер сделки.
// Использование: router.GET("/gigs/:id", GigIDValidator("id"), handler.GetGig)
func GigIDValidator(paramName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		idStr := c.Param(paramName)
		if idStr == "" {
			abortWithError(c, apperror.New(apperror.ErrCodeInvalidInput, "параметр "+paramName+" обязателен"))
			return
		}

		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil || id <= 0 {
			abortWithError(c, apperror.New(apperror.ErrCodeInvalidInput, "параметр "+paramName+" должен быть положительным числом"))
			return
		}

		c.Next()
	}
}
