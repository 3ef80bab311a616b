package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Derecoder4/Freelance-Fi/internal/pkg/apperror"
	"github.com/Derecoder4/Freelance-Fi/internal/service"
)

// ContextAddressKey - ключ адреса кошелька в gin.Context.
const ContextAddressKey = "address"

// AuthMiddleware проверяет JWT access токен и кладёт адрес актора в контекст.
func AuthMiddleware(tokens *service.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			abortWithError(c, apperror.ErrUnauthorized)
			return
		}

		raw := strings.TrimPrefix(auth, "Bearer ")
		addr, err := tokens.ParseAccess(raw)
		if err != nil || addr.IsZero() {
			abortWithError(c, apperror.New(apperror.ErrCodeUnauthorized, "токен невалиден"))
			return
		}

		c.Set(ContextAddressKey, addr)
		c.Next()
	}
}
