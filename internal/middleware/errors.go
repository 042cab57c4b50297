package middleware

import (
	"ecole_backend/internal/util"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Recovery turns a panic into the standard 500 envelope. The stack is logged
// and only echoed to the client in debug mode.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				fields := []zap.Field{
					zap.Any("panic", r),
					zap.String("route", c.FullPath()),
					zap.String("method", c.Request.Method),
					zap.String("stack", stack),
				}
				if uid, ok := util.GetUserID(c); ok {
					fields = append(fields, zap.String("user_id", uid))
				}
				log.Error("panic recovered", fields...)

				body := util.ErrorBody{Message: "Erreur interne du serveur", Code: util.CodeInternal}
				if util.IsDebug() {
					body.Details = fmt.Sprint(r)
					body.Stack = stack
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, util.ErrorResponse{
					Success:   false,
					Error:     body,
					Timestamp: time.Now().UTC().Format(time.RFC3339),
					Path:      c.Request.URL.Path,
				})
			}
		}()
		c.Next()
	}
}

// NoRoute answers unknown paths with the 404 envelope.
func NoRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "Route non trouvée")
	}
}
