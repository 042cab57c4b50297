package security

import (
	"ecole_backend/pkg/logger"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisLimiter counts attempts per IP in a fixed redis window. Without redis,
// or when redis fails, it falls back to an in-process limiter so the limit
// still holds on a single instance.
type RedisLimiter struct {
	rdb      *redis.Client
	prefix   string
	limit    int
	window   time.Duration
	fallback *IPLimiter
}

func NewRedisLimiter(rdb *redis.Client, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		rdb:      rdb,
		prefix:   prefix,
		limit:    limit,
		window:   window,
		fallback: NewIPLimiter(limit, window),
	}
}

func (l *RedisLimiter) key(ip string) string {
	return fmt.Sprintf("rate_limit:%s:%s", l.prefix, ip)
}

func (l *RedisLimiter) allow(c *gin.Context) bool {
	ip := c.ClientIP()
	if l.rdb == nil {
		return l.fallback.Allow(ip)
	}

	ctx := c.Request.Context()
	key := l.key(ip)
	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		logger.Log.Warn("redis rate limit unavailable, using local limiter", zap.Error(err))
		return l.fallback.Allow(ip)
	}
	if count == 1 {
		l.rdb.Expire(ctx, key, l.window)
	}
	return count <= int64(l.limit)
}

func (l *RedisLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.allow(c) {
			tooMany(c)
			return
		}
		c.Next()
	}
}
