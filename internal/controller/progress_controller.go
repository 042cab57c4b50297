package controller

import (
	"ecole_backend/internal/service"
	"ecole_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	ProgressService *service.ProgressService
}

func NewProgressController(progressService *service.ProgressService) *ProgressController {
	return &ProgressController{ProgressService: progressService}
}

// @Summary 科目学习进度
// @Tags 学习进度
// @Produce json
// @Security ApiKeyAuth
// @Param subjectId path string true "科目ID"
// @Success 200 {object} util.Response{data=model.Progress}
// @Router /progress/subject/{subjectId} [get]
func (c *ProgressController) Subject(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	row, err := c.ProgressService.Subject(ctx.Request.Context(), user.ID, ctx.Param("subjectId"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, row)
}

// @Summary 学习进度汇总
// @Tags 学习进度
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.ProgressStats}
// @Router /progress/stats [get]
func (c *ProgressController) Stats(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	stats, err := c.ProgressService.Stats(ctx.Request.Context(), user.ID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, stats)
}
