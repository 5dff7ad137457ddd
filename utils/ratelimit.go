package utils

import (
	"fmt"
	"time"

	"staysync-server/storage"

	"github.com/kataras/iris/v12"
)

// RateLimit allows at most max requests per window per client IP, counted in
// Redis so every instance shares the window. When Redis is unreachable the
// limiter fails open.
func RateLimit(max int64, window time.Duration) iris.Handler {
	return func(ctx iris.Context) {
		if storage.Redis == nil {
			ctx.Next()
			return
		}

		key := fmt.Sprintf("ratelimit:%s", ClientIP(ctx))
		n, err := storage.Redis.Incr(bgContext, key).Result()
		if err != nil {
			ctx.Next()
			return
		}
		if n == 1 {
			storage.Redis.Expire(bgContext, key, window)
		}
		if n > max {
			JSONError(ctx, iris.StatusTooManyRequests, "rate_limited", "too many requests, slow down")
			return
		}
		ctx.Next()
	}
}
