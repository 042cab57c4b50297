package controller

import (
	"ecole_backend/internal/service"
	"ecole_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type GamificationController struct {
	GamificationService *service.GamificationService
	AchievementService  *service.AchievementService
}

func NewGamificationController(gamificationService *service.GamificationService, achievementService *service.AchievementService) *GamificationController {
	return &GamificationController{
		GamificationService: gamificationService,
		AchievementService:  achievementService,
	}
}

// Stats godoc
// @Summary 获取积分统计
// @Description 积分、等级、称号、排名以及带解锁标记的成就列表
// @Tags 游戏化
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.GamificationStats}
// @Failure 401 {object} util.ErrorResponse "未认证"
// @Router /gamification/stats [get]
func (c *GamificationController) Stats(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	stats, err := c.GamificationService.GetStats(ctx.Request.Context(), user.ID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, stats)
}

// Leaderboard godoc
// @Summary 获取排行榜
// @Tags 游戏化
// @Produce json
// @Security ApiKeyAuth
// @Param limit query int false "返回数量" default(10)
// @Success 200 {object} util.Response{data=[]service.LeaderboardEntry}
// @Router /gamification/leaderboard [get]
func (c *GamificationController) Leaderboard(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	limit := util.ParseIntDefault(ctx.Query("limit"), util.LeaderboardDefaultLimit)
	entries, err := c.GamificationService.Leaderboard(ctx.Request.Context(), user.ID, limit)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, entries)
}

// Achievements godoc
// @Summary 获取全部成就
// @Description 所有启用的成就，附带当前用户的解锁状态
// @Tags 游戏化
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.AchievementView}
// @Router /gamification/achievements [get]
func (c *GamificationController) Achievements(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	views, err := c.AchievementService.ListForUser(ctx.Request.Context(), user.ID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, views)
}

// AddPoints godoc
// @Summary 手动加分
// @Tags 游戏化
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.AddPointsRequest true "加分信息"
// @Success 200 {object} util.Response{data=service.ScoreResult}
// @Failure 400 {object} util.ErrorResponse "积分必须为正数"
// @Router /gamification/add-points [post]
func (c *GamificationController) AddPoints(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req service.AddPointsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	res, err := c.GamificationService.AddPoints(ctx.Request.Context(), user.ID, req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.SuccessWithMessage(ctx, res, "Points ajoutés")
}

// CompleteLesson godoc
// @Summary 完成课程
// @Description 每个课程只能完成一次，重复提交返回409
// @Tags 游戏化
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.CompleteLessonRequest true "课程信息"
// @Success 200 {object} util.Response{data=service.ScoreResult}
// @Failure 404 {object} util.ErrorResponse "课程不存在"
// @Failure 409 {object} util.ErrorResponse "课程已完成"
// @Router /gamification/complete-lesson [post]
func (c *GamificationController) CompleteLesson(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req service.CompleteLessonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	res, err := c.GamificationService.CompleteLesson(ctx.Request.Context(), user.ID, req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.SuccessWithMessage(ctx, res, "Leçon complétée")
}

// CheckLessonCompletion godoc
// @Summary 查询课程完成状态
// @Tags 游戏化
// @Produce json
// @Security ApiKeyAuth
// @Param lessonId path string true "课程ID"
// @Success 200 {object} util.Response{data=service.LessonCompletion}
// @Router /gamification/check-lesson-completion/{lessonId} [get]
func (c *GamificationController) CheckLessonCompletion(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	res, err := c.GamificationService.CheckLessonCompletion(ctx.Request.Context(), user.ID, ctx.Param("lessonId"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, res)
}

// RecordQuizAttempt godoc
// @Summary 记录测验结果
// @Description 每题 15/N 分，答错扣同样分数，总积分不低于0
// @Tags 游戏化
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.QuizAttemptRequest true "测验结果"
// @Success 200 {object} util.Response{data=service.ScoreResult}
// @Failure 400 {object} util.ErrorResponse "参数错误"
// @Failure 404 {object} util.ErrorResponse "测验不存在"
// @Router /gamification/record-quiz-attempt [post]
func (c *GamificationController) RecordQuizAttempt(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req service.QuizAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	res, err := c.GamificationService.RecordQuizAttempt(ctx.Request.Context(), user.ID, req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.SuccessWithMessage(ctx, res, "Tentative enregistrée")
}

type UnlockAchievementRequest struct {
	AchievementID string `json:"achievementId" binding:"required"`
}

// UnlockAchievement godoc
// @Summary 手动解锁成就
// @Tags 游戏化
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body UnlockAchievementRequest true "成就ID"
// @Success 200 {object} util.Response{data=service.UnlockedAchievement}
// @Failure 404 {object} util.ErrorResponse "成就不存在"
// @Failure 409 {object} util.ErrorResponse "成就已解锁"
// @Router /gamification/unlock-achievement [post]
func (c *GamificationController) UnlockAchievement(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req UnlockAchievementRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	res, err := c.AchievementService.Unlock(ctx.Request.Context(), user.ID, req.AchievementID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.SuccessWithMessage(ctx, res, "Succès débloqué")
}
