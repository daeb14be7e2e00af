package app

import (
	"satistrain_backend/docs"
	"satistrain_backend/internal/config"
	"satistrain_backend/internal/middleware"
	"satistrain_backend/internal/model"
	"satistrain_backend/pkg/monitoring"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// 同一用户 last_seen 的最小写入间隔
const activityInterval = 5 * time.Minute

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))
	router.GET("/metrics", monitoring.PrometheusHandler())

	a.registerPublicRoutes(router, c)

	authorized := router.Group("/api")
	authorized.Use(middleware.AuthMiddleware(cfg, repos.user), middleware.ActivityMiddleware(repos.user, activityInterval))
	{
		a.registerLearnerRoutes(authorized, c)
		a.registerSimulationRoutes(authorized, c)
	}

	a.registerAdminRoutes(router, c, repos, cfg)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
		public.POST("/password/forgot", c.auth.ForgotPassword)
		public.POST("/password/reset", c.auth.ResetPassword)

		public.GET("/courses", c.course.ListCourses)
		public.GET("/courses/:id", c.course.GetCourse)
		public.GET("/badges", c.gamification.ListBadges)
		public.GET("/leaderboard", c.gamification.Leaderboard)
		public.GET("/certificates/verify/:number", c.certificate.Verify)
	}
}

func (a *App) registerLearnerRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/session", c.auth.Session)
	rg.PUT("/profile", c.user.UpdateProfile)
	rg.DELETE("/profile", c.user.DeleteAccount)

	// 课程学习
	rg.POST("/courses/:id/enroll", c.course.Enroll)
	rg.PATCH("/courses/:id/enrollment", c.course.UpdateEnrollment)
	rg.GET("/courses/:id/progress", c.course.GetProgress)
	rg.GET("/enrollments", c.course.ListEnrollments)
	rg.POST("/lessons/:id/complete", c.course.CompleteLesson)

	// 积分与徽章
	rg.GET("/badges/mine", c.gamification.MyBadges)
	rg.GET("/gamification/stats", c.gamification.Stats)

	// 满意度与看板
	rg.POST("/csat", c.analytics.RecordCSAT)
	rg.GET("/csat", c.analytics.ListCSAT)
	rg.GET("/dashboard", c.analytics.Dashboard)

	rg.GET("/certificates", c.certificate.List)
}

func (a *App) registerSimulationRoutes(rg *gin.RouterGroup, c *controllers) {
	sims := rg.Group("/simulations")
	{
		sims.GET("/scenarios", c.simulation.ListScenarios)
		sims.POST("", c.simulation.Start)
		sims.GET("", c.simulation.List)
		sims.GET("/:id", c.simulation.Get)
		sims.POST("/:id/messages", c.simulation.SendMessage)
		sims.POST("/:id/complete", c.simulation.Complete)
		sims.POST("/:id/abandon", c.simulation.Abandon)
		sims.GET("/:id/ws", c.simulation.Live)
	}
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	admin := router.Group("/api/admin")
	admin.Use(
		middleware.AuthMiddleware(cfg, repos.user),
		middleware.ActivityMiddleware(repos.user, activityInterval),
		middleware.RoleMiddleware(model.Trainer),
	)
	{
		admin.POST("/courses", c.course.CreateCourse)
		admin.PUT("/courses/:id", c.course.UpdateCourse)
		admin.POST("/courses/:id/modules", c.course.AddModule)
		admin.POST("/modules/:id/lessons", c.course.AddLesson)

		admin.POST("/badges", c.gamification.CreateBadge)
		admin.POST("/users/:id/badges/:badgeId", c.gamification.AwardBadge)

		admin.GET("/csat/summary", c.analytics.CSATSummary)
	}
}
