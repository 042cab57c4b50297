package controller

import (
	"ecole_backend/internal/service"
	"ecole_backend/internal/util"
	"ecole_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthController struct {
	AuthService  *service.AuthService
	AdminService *service.AdminService
}

func NewAuthController(authService *service.AuthService, adminService *service.AdminService) *AuthController {
	return &AuthController{
		AuthService:  authService,
		AdminService: adminService,
	}
}

// Register godoc
// @Summary 注册新用户
// @Description 使用邮箱和密码注册，返回JWT令牌，下一步为选择班级
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body service.RegisterRequest true "用户注册信息"
// @Success 201 {object} util.Response{data=service.AuthResult} "创建成功"
// @Failure 400 {object} util.ErrorResponse "请求参数错误"
// @Failure 409 {object} util.ErrorResponse "邮箱已被注册"
// @Router /auth/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req service.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	res, err := c.AuthService.Register(ctx.Request.Context(), req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Created(ctx, res, "Inscription réussie")
}

// Login godoc
// @Summary 用户登录
// @Description 验证用户身份并返回JWT令牌及登录后跳转路径
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body service.LoginRequest true "用户登录凭据"
// @Success 200 {object} util.Response{data=service.AuthResult} "登录成功"
// @Failure 400 {object} util.ErrorResponse "请求参数错误"
// @Failure 401 {object} util.ErrorResponse "邮箱或密码错误"
// @Failure 429 {object} util.ErrorResponse "请求过于频繁"
// @Router /login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req service.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	res, err := c.AuthService.Login(ctx.Request.Context(), req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.SuccessWithMessage(ctx, res, "Connexion réussie")
}

// Refresh godoc
// @Summary 刷新令牌
// @Tags 认证
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=object} "新令牌"
// @Failure 401 {object} util.ErrorResponse "未认证"
// @Router /auth/refresh [post]
func (c *AuthController) Refresh(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	token, err := c.AuthService.Refresh(user)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"token": token})
}

// Verify godoc
// @Summary 校验令牌
// @Description 返回当前令牌对应的用户
// @Tags 认证
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=object}
// @Failure 401 {object} util.ErrorResponse "未认证"
// @Router /auth/verify [get]
func (c *AuthController) Verify(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	util.Success(ctx, gin.H{"valid": true, "user": user})
}

// Logout godoc
// @Summary 退出登录
// @Description 令牌无状态，服务端只记录事件
// @Tags 认证
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /auth/logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	if uid, ok := util.GetUserID(ctx); ok {
		logger.Event(logger.Log, "user_logout", zap.String("user_id", uid))
	}
	util.SuccessWithMessage(ctx, nil, "Déconnexion réussie")
}

// Profile godoc
// @Summary 获取个人资料
// @Tags 用户
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=object}
// @Router /profile [get]
func (c *AuthController) Profile(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	isAdmin, err := c.AdminService.IsAdmin(ctx.Request.Context(), user)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"user":         user,
		"isAdmin":      isAdmin,
		"redirectPath": service.RedirectPathFor(user, isAdmin),
	})
}

type SelectClassRequest struct {
	Classe string `json:"classe" binding:"required"`
}

// SelectClass godoc
// @Summary 选择班级
// @Tags 用户
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body SelectClassRequest true "班级"
// @Success 200 {object} util.Response{data=model.User}
// @Failure 400 {object} util.ErrorResponse "请求参数错误"
// @Router /profile/class [put]
func (c *AuthController) SelectClass(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req SelectClassRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.AuthService.SelectClass(ctx.Request.Context(), user, req.Classe); err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.SuccessWithMessage(ctx, user, "Classe enregistrée")
}

type SelectSubjectsRequest struct {
	Matieres []string `json:"matieres" binding:"required"`
}

// SelectSubjects godoc
// @Summary 选择科目
// @Tags 用户
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body SelectSubjectsRequest true "科目列表"
// @Success 200 {object} util.Response{data=model.User}
// @Failure 400 {object} util.ErrorResponse "请求参数错误"
// @Router /profile/subjects [put]
func (c *AuthController) SelectSubjects(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req SelectSubjectsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.AuthService.SelectSubjects(ctx.Request.Context(), user, req.Matieres); err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.SuccessWithMessage(ctx, user, "Matières enregistrées")
}
