package controller

import (
	"ecole_backend/internal/repository"
	"ecole_backend/internal/service"
	"ecole_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AdminController struct {
	AdminService *service.AdminService
}

func NewAdminController(adminService *service.AdminService) *AdminController {
	return &AdminController{AdminService: adminService}
}

// AddAdmin godoc
// @Summary 添加管理员
// @Description 通过用户ID或邮箱授予管理员权限
// @Tags 管理员
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.AddAdminRequest true "用户ID或邮箱"
// @Success 201 {object} util.Response{data=model.Admin}
// @Failure 400 {object} util.ErrorResponse "参数错误"
// @Failure 401 {object} util.ErrorResponse "需要管理员权限"
// @Failure 409 {object} util.ErrorResponse "已经是管理员"
// @Router /admin/add-admin [post]
func (c *AdminController) AddAdmin(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req service.AddAdminRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	admin, err := c.AdminService.AddAdmin(ctx.Request.Context(), user, req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Created(ctx, admin, "Administrateur ajouté")
}

// RemoveAdmin godoc
// @Summary 移除管理员
// @Tags 管理员
// @Produce json
// @Security ApiKeyAuth
// @Param adminId path string true "管理员记录ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.ErrorResponse "管理员不存在"
// @Router /admin/remove-admin/{adminId} [delete]
func (c *AdminController) RemoveAdmin(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	if err := c.AdminService.RemoveAdmin(ctx.Request.Context(), user, ctx.Param("adminId")); err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.SuccessWithMessage(ctx, nil, "Administrateur retiré")
}

// ListAdmins godoc
// @Summary 管理员列表
// @Tags 管理员
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]repository.AdminView}
// @Router /admin/list-admins [get]
func (c *AdminController) ListAdmins(ctx *gin.Context) {
	admins, err := c.AdminService.ListAdmins(ctx.Request.Context())
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, admins)
}

// ListStudents godoc
// @Summary 学生列表
// @Tags 管理员
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Param search query string false "按姓名或邮箱搜索"
// @Param classe query string false "班级"
// @Success 200 {object} util.Response{data=service.StudentList}
// @Router /admin/students [get]
func (c *AdminController) ListStudents(ctx *gin.Context) {
	page, limit := util.ParsePagination(ctx)
	filter := repository.UserFilter{
		Search: ctx.Query("search"),
		Classe: ctx.Query("classe"),
	}

	res, err := c.AdminService.ListStudents(ctx.Request.Context(), filter, page, limit)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, res)
}

// DeleteStudent godoc
// @Summary 停用学生账号
// @Description 软删除，之后该账号的令牌会被拒绝
// @Tags 管理员
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "用户ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.ErrorResponse "用户不存在"
// @Router /admin/students/{id} [delete]
func (c *AdminController) DeleteStudent(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	if err := c.AdminService.DeleteStudent(ctx.Request.Context(), user, ctx.Param("id")); err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.SuccessWithMessage(ctx, nil, "Compte désactivé")
}

// Stats godoc
// @Summary 管理统计
// @Tags 管理员
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.AdminStats}
// @Router /admin/stats [get]
func (c *AdminController) Stats(ctx *gin.Context) {
	stats, err := c.AdminService.Stats(ctx.Request.Context())
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, stats)
}
