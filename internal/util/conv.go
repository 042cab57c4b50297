package util

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// ParseIntDefault 将字符串转换为整数，解析失败时返回默认值
func ParseIntDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// ParsePagination reads page/limit query parameters, clamped to sane bounds.
func ParsePagination(c *gin.Context) (page, limit int) {
	page = ParseIntDefault(c.Query("page"), 1)
	limit = ParseIntDefault(c.Query("limit"), DefaultPageLimit)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}
