package util

import (
	"ecole_backend/pkg/logger"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一成功响应结构
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
	Stack   string `json:"stack,omitempty"`
}

// ErrorResponse 统一错误响应结构
type ErrorResponse struct {
	Success   bool      `json:"success"`
	Error     ErrorBody `json:"error"`
	Timestamp string    `json:"timestamp"`
	Path      string    `json:"path"`
}

var debugMode atomic.Bool

// SetDebug toggles whether error responses expose internal details.
func SetDebug(on bool) {
	debugMode.Store(on)
}

func IsDebug() bool {
	return debugMode.Load()
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func SuccessWithMessage(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data, Message: message})
}

func Created(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data, Message: message})
}

// Error writes the failure envelope and aborts the chain.
func Error(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Success:   false,
		Error:     ErrorBody{Message: message, Code: code},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      c.Request.URL.Path,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, CodeValidation, message)
}

func Unauthorized(c *gin.Context, err error) {
	Error(c, http.StatusUnauthorized, CodeFor(err), PublicMessage(err))
}

func TooManyRequests(c *gin.Context) {
	Error(c, http.StatusTooManyRequests, CodeRateLimited, "Trop de requêtes, veuillez réessayer plus tard")
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, CodeInternal, "Erreur interne du serveur")
}

// RespondError renders err through the taxonomy. Server-side failures are
// logged with route, method and user id.
func RespondError(c *gin.Context, err error) {
	status := StatusFor(err)
	body := ErrorBody{Message: PublicMessage(err), Code: CodeFor(err)}

	if status >= http.StatusInternalServerError {
		fields := []zap.Field{
			zap.String("route", c.FullPath()),
			zap.String("method", c.Request.Method),
			zap.Error(err),
		}
		if uid, ok := GetUserID(c); ok {
			fields = append(fields, zap.String("user_id", uid))
		}
		logger.Log.Error("request failed", fields...)
	}

	if IsDebug() && err.Error() != body.Message {
		body.Details = err.Error()
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Success:   false,
		Error:     body,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      c.Request.URL.Path,
	})
}
