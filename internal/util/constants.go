package util

// 登录后的前端跳转路径
const (
	RedirectAdminDashboard = "/admin/dashboard"
	RedirectChooseClass    = "/choose-class"
	RedirectDashboard      = "/dashboard"
)

const LeaderboardDefaultLimit = 10
