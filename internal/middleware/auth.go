package middleware

import (
	"context"
	"ecole_backend/internal/model"
	"ecole_backend/internal/util"
	"ecole_backend/pkg/monitoring"
	"errors"

	"github.com/gin-gonic/gin"
)

type TokenResolver interface {
	Resolve(token string) (string, error)
}

type UserLoader interface {
	LoadUser(ctx context.Context, id string) (*model.User, error)
}

type RoleResolver interface {
	IsAdmin(ctx context.Context, user *model.User) (bool, error)
}

func isAuthFailure(err error) bool {
	return errors.Is(err, util.ErrMissingToken) ||
		errors.Is(err, util.ErrInvalidToken) ||
		errors.Is(err, util.ErrTokenExpired) ||
		errors.Is(err, util.ErrUserNotFound) ||
		errors.Is(err, util.ErrAccountDisabled)
}

func rejectAuth(c *gin.Context, err error) {
	if isAuthFailure(err) {
		monitoring.AuthFailures.WithLabelValues(util.CodeFor(err)).Inc()
		util.Unauthorized(c, err)
		return
	}
	util.RespondError(c, err)
}

// AuthMiddleware resolves the bearer token, then loads the user. The token is
// fully verified before any database access.
func AuthMiddleware(tokens TokenResolver, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := util.ExtractBearer(c.GetHeader("Authorization"))

		userID, err := tokens.Resolve(tokenString)
		if err != nil {
			rejectAuth(c, err)
			return
		}

		user, err := users.LoadUser(c.Request.Context(), userID)
		if err != nil {
			rejectAuth(c, err)
			return
		}

		c.Set(util.ContextUserKey, user)
		c.Set(util.ContextUserIDKey, user.ID)
		c.Next()
	}
}

// AdminMiddleware must run after AuthMiddleware. Every failure, including a
// missing principal, answers 401 "Accès administrateur requis".
func AdminMiddleware(roles RoleResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := util.GetUser(c)
		if !ok {
			util.Unauthorized(c, util.ErrAdminRequired)
			return
		}

		isAdmin, err := roles.IsAdmin(c.Request.Context(), user)
		if err != nil {
			util.RespondError(c, err)
			return
		}
		if !isAdmin {
			monitoring.AuthFailures.WithLabelValues(util.CodeAdminRequired).Inc()
			util.Unauthorized(c, util.ErrAdminRequired)
			return
		}

		c.Set(util.ContextIsAdminKey, true)
		c.Next()
	}
}

// RequireOwnership lets the request through when the path parameter names the
// caller, or when the caller is an admin. Anything else is 403.
func RequireOwnership(param string, roles RoleResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := util.GetUser(c)
		if !ok {
			util.Unauthorized(c, util.ErrMissingToken)
			return
		}
		if c.Param(param) == user.ID {
			c.Next()
			return
		}

		isAdmin, err := roles.IsAdmin(c.Request.Context(), user)
		if err != nil {
			util.RespondError(c, err)
			return
		}
		if !isAdmin {
			util.RespondError(c, util.ErrInsufficientPermissions)
			return
		}

		c.Set(util.ContextIsAdminKey, true)
		c.Next()
	}
}
