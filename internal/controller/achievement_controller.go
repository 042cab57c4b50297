package controller

import (
	"ecole_backend/internal/model"
	"ecole_backend/internal/service"
	"ecole_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AchievementController struct {
	AchievementService *service.AchievementService
}

func NewAchievementController(achievementService *service.AchievementService) *AchievementController {
	return &AchievementController{AchievementService: achievementService}
}

// @Summary 成就列表
// @Description 分页获取成就，可按稀有度过滤
// @Tags 成就系统
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Param rarity query string false "稀有度" Enums(common, rare, epic, legendary)
// @Success 200 {object} util.Response{data=service.AchievementPage}
// @Failure 400 {object} util.ErrorResponse "稀有度无效"
// @Router /achievements [get]
func (c *AchievementController) List(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	page, limit := util.ParsePagination(ctx)
	res, err := c.AchievementService.Page(ctx.Request.Context(), user.ID, model.Rarity(ctx.Query("rarity")), page, limit)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, res)
}

// @Summary 成就详情
// @Tags 成就系统
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "成就ID"
// @Success 200 {object} util.Response{data=service.AchievementDetail}
// @Failure 404 {object} util.ErrorResponse "成就不存在"
// @Router /achievements/{id} [get]
func (c *AchievementController) Detail(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	res, err := c.AchievementService.Detail(ctx.Request.Context(), user.ID, ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, res)
}

// @Summary 已解锁的成就
// @Tags 成就系统
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.AchievementView}
// @Router /achievements/user/unlocked [get]
func (c *AchievementController) Unlocked(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	views, err := c.AchievementService.Unlocked(ctx.Request.Context(), user.ID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, views)
}

// @Summary 成就统计
// @Description 按稀有度统计总数和已解锁数
// @Tags 成就系统
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.UserAchievementStats}
// @Router /achievements/user/stats [get]
func (c *AchievementController) UserStats(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	stats, err := c.AchievementService.UserAchievementStats(ctx.Request.Context(), user.ID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, stats)
}
