package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/Derecoder4/Freelance-Fi/internal/domain/valueobject"
	"github.com/Derecoder4/Freelance-Fi/internal/pkg/apperror"
)

// RateLimitMiddleware ограничивает частоту запросов.
// После AuthMiddleware ключом служит адрес актора, иначе IP клиента.
// По умолчанию: 60 запросов в минуту.
func RateLimitMiddleware(limit int64, period time.Duration) gin.HandlerFunc {
	if limit <= 0 {
		limit = 60
	}
	if period <= 0 {
		period = 1 * time.Minute
	}

	rate := limiter.Rate{
		Period: period,
		Limit:  limit,
	}
	store := memory.NewStore()
	instance := limiter.New(store, rate)

	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if raw, ok := c.Get(ContextAddressKey); ok {
			if addr, ok := raw.(valueobject.Address); ok {
				key = "addr:" + addr.String()
			}
		}

		context, err := instance.Get(c, key)
		if err != nil {
			abortWithError(c, apperror.New(apperror.ErrCodeInternal, "rate limiter недоступен"))
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", context.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", context.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", context.Reset))

		if context.Reached {
			abortWithError(c, apperror.ErrRateLimited)
			return
		}

		c.Next()
	}
}
