package common

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Derecoder4/Freelance-Fi/internal/domain/valueobject"
	"github.com/Derecoder4/Freelance-Fi/internal/http/middleware"
	"github.com/Derecoder4/Freelance-Fi/internal/pkg/apperror"
)

// CurrentAddress извлекает адрес актора, положенный AuthMiddleware.
func CurrentAddress(c *gin.Context) (valueobject.Address, error) {
	raw, exists := c.Get(middleware.ContextAddressKey)
	if !exists {
		return "", apperror.ErrUnauthorized
	}

	addr, ok := raw.(valueobject.Address)
	if !ok || addr.IsZero() {
		return "", apperror.ErrUnauthorized
	}

	return addr, nil
}

// ParseGigID читает номер сделки из параметра :id.
func ParseGigID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.New(apperror.ErrCodeInvalidInput, "неверный номер сделки")
	}
	return id, nil
}

// BindJSON разбирает тело запроса; ошибка разбора - INVALID_INPUT.
func BindJSON(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInvalidInput, "ошибка валидации запроса")
	}
	return nil
}

// RespondError передаёт ошибку в middleware.ErrorHandler, который формирует ответ.
func RespondError(c *gin.Context, err error) {
	_ = c.Error(err)
}

// RespondJSON sends a JSON response with the given status code and data
func RespondJSON(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// RespondOK - 200 с телом.
func RespondOK(c *gin.Context, data interface{}) {
	RespondJSON(c, http.StatusOK, data)
}

// ParseIntQuery safely reads an integer query parameter with a fallback value
func ParseIntQuery(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

// GetPagination extracts limit and offset from query parameters with defaults
func GetPagination(c *gin.Context) (limit, offset int) {
	limit = ParseIntQuery(c, "limit", 20)
	offset = ParseIntQuery(c, "offset", 0)
	if limit > 100 {
		limit = 100
	}
	if limit < 1 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return
}
