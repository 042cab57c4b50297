package app

import (
	"ecole_backend/docs"
	"ecole_backend/internal/config"
	"ecole_backend/internal/middleware"
	"ecole_backend/pkg/logger"
	"ecole_backend/pkg/monitoring"
	"ecole_backend/pkg/security"
	"ecole_backend/pkg/tracing"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(middleware.Recovery(logger.Log))
	router.Use(logger.GinLogger())
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if cfg.RateLimit.MaxRequests > 0 && window > 0 {
		router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, window))
	}

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
	router.NoRoute(middleware.NoRoute())
}

func (a *App) loginLimiter(cfg *config.Config) gin.HandlerFunc {
	window := time.Duration(cfg.RateLimit.LoginWindowMinutes) * time.Minute
	if cfg.RateLimit.LoginMaxAttempts <= 0 || window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return security.NewRedisLimiter(a.Redis, "login", cfg.RateLimit.LoginMaxAttempts, window).Limit()
}

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/health", c.health.HealthCheck)

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/auth/register", c.auth.Register)
		public.POST("/login", a.loginLimiter(a.Config), c.auth.Login)
	}

	// 2. 需要登录的路由
	auth := middleware.AuthMiddleware(a.tokens, a.services.auth)
	authGroup := router.Group("/api")
	authGroup.Use(auth)
	{
		a.registerStudentRoutes(authGroup, c)
	}

	// 3. 管理员相关接口
	admin := router.Group("/api/admin")
	admin.Use(auth, middleware.AdminMiddleware(a.services.admin))
	{
		admin.POST("/add-admin", c.admin.AddAdmin)
		admin.DELETE("/remove-admin/:adminId", c.admin.RemoveAdmin)
		admin.GET("/list-admins", c.admin.ListAdmins)
		admin.GET("/students", c.admin.ListStudents)
		admin.DELETE("/students/:id", c.admin.DeleteStudent)
		admin.GET("/stats", c.admin.Stats)
	}
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	authRoutes := rg.Group("/auth")
	{
		authRoutes.POST("/refresh", c.auth.Refresh)
		authRoutes.GET("/verify", c.auth.Verify)
		authRoutes.POST("/logout", c.auth.Logout)
	}

	profile := rg.Group("/profile")
	{
		profile.GET("", c.auth.Profile)
		profile.PUT("/class", c.auth.SelectClass)
		profile.PUT("/subjects", c.auth.SelectSubjects)
	}

	gamification := rg.Group("/gamification")
	{
		gamification.GET("/stats", c.gamification.Stats)
		gamification.GET("/leaderboard", c.gamification.Leaderboard)
		gamification.GET("/achievements", c.gamification.Achievements)
		gamification.POST("/add-points", c.gamification.AddPoints)
		gamification.POST("/complete-lesson", c.gamification.CompleteLesson)
		gamification.GET("/check-lesson-completion/:lessonId", c.gamification.CheckLessonCompletion)
		gamification.POST("/record-quiz-attempt", c.gamification.RecordQuizAttempt)
		gamification.POST("/unlock-achievement", c.gamification.UnlockAchievement)
	}

	progress := rg.Group("/progress")
	{
		progress.GET("/subject/:subjectId", c.progress.Subject)
		progress.GET("/stats", c.progress.Stats)
	}

	achievements := rg.Group("/achievements")
	{
		achievements.GET("", c.achievement.List)
		achievements.GET("/user/unlocked", c.achievement.Unlocked)
		achievements.GET("/user/stats", c.achievement.UserStats)
		achievements.GET("/:id", c.achievement.Detail)
	}

	rg.GET("/users/:id/stats", middleware.RequireOwnership("id", a.services.admin), c.user.Stats)
}
