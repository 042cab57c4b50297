package controller

import (
	"ecole_backend/internal/service"
	"ecole_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	GamificationService *service.GamificationService
	ProgressService     *service.ProgressService
}

func NewUserController(gamificationService *service.GamificationService, progressService *service.ProgressService) *UserController {
	return &UserController{
		GamificationService: gamificationService,
		ProgressService:     progressService,
	}
}

// Stats godoc
// @Summary 用户统计
// @Description 仅本人或管理员可访问
// @Tags 用户
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "用户ID"
// @Success 200 {object} util.Response{data=object}
// @Failure 403 {object} util.ErrorResponse "权限不足"
// @Failure 404 {object} util.ErrorResponse "用户不存在"
// @Router /users/{id}/stats [get]
func (c *UserController) Stats(ctx *gin.Context) {
	userID := ctx.Param("id")

	gamification, err := c.GamificationService.GetStats(ctx.Request.Context(), userID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	progress, err := c.ProgressService.Stats(ctx.Request.Context(), userID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"userId":       userID,
		"gamification": gamification,
		"progress":     progress,
	})
}
