package controller

import (
	"ecole_backend/internal/model"
	"ecole_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// currentUser returns the principal set by the auth middleware, answering 401 when absent.
func currentUser(ctx *gin.Context) (*model.User, bool) {
	user, ok := util.GetUser(ctx)
	if !ok {
		util.Unauthorized(ctx, util.ErrMissingToken)
		return nil, false
	}
	return user, true
}
