package app

import (
	"qpgen_backend/docs"
	"qpgen_backend/internal/config"
	"qpgen_backend/internal/middleware"
	"qpgen_backend/internal/model"

	"qpgen_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		a.registerCoordinatorRoutes(authGroup, c)
	}

	// 3. 管理员相关接口
	a.registerAdminRoutes(router, c, cfg)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	router.GET("/health", c.health.HealthCheck)

	public := router.Group("/api")
	{
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}
}

// registerCoordinatorRoutes 注册协调员日常工作的全部接口。
// 审批接口的路由层只挡掉完全无关的角色，
// 具体某个阶段该由谁审在 ApprovalService 的状态机里判定
func (a *App) registerCoordinatorRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/profile", c.auth.GetProfile)
	rg.GET("/courses", c.course.List)

	// 课程材料
	rg.POST("/materials", middleware.RoleMiddleware(model.CourseCoordinator), c.material.Upload)
	rg.GET("/materials", c.material.List)
	rg.GET("/materials/:id", c.material.Get)
	rg.GET("/materials/:id/sections", c.material.Sections)

	// 出题任务
	rg.POST("/generation/jobs", middleware.RoleMiddleware(model.CourseCoordinator), c.generation.SubmitJob)
	rg.GET("/generation/jobs", c.generation.ListJobs)
	rg.GET("/generation/jobs/:id", c.generation.GetJob)

	// 试题与审批链
	questionReviewers := middleware.RoleMiddleware(
		model.CourseCoordinator,
		model.ModuleCoordinator,
		model.ProgramCoordinator,
	)
	rg.GET("/questions", c.question.List)
	rg.GET("/questions/:id", c.question.Get)
	rg.POST("/questions", middleware.RoleMiddleware(model.CourseCoordinator), c.question.Create)
	rg.POST("/questions/:id/approve", questionReviewers, c.question.Approve)
	rg.POST("/questions/:id/reject", questionReviewers, c.question.Reject)
	rg.POST("/questions/bulk-approve", questionReviewers, c.question.BulkApprove)
	rg.GET("/questions/:id/feedback", c.question.Feedback)

	// 试卷模板与审批链
	patternReviewers := middleware.RoleMiddleware(
		model.ModuleCoordinator,
		model.ProgramCoordinator,
		model.ControllerOfExams,
	)
	rg.POST("/patterns", middleware.RoleMiddleware(model.CourseCoordinator, model.ModuleCoordinator), c.pattern.Create)
	rg.GET("/patterns", c.pattern.List)
	rg.GET("/patterns/:id", c.pattern.Get)
	rg.POST("/patterns/:id/approve", patternReviewers, c.pattern.Approve)
	rg.POST("/patterns/:id/reject", patternReviewers, c.pattern.Reject)
	rg.GET("/patterns/:id/feedback", c.pattern.Feedback)

	// 统计
	rg.GET("/statistics/questions", c.statistics.Questions)
	rg.GET("/statistics/patterns", c.statistics.Patterns)
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Admin))
	{
		admin.POST("/courses", c.course.Create)
	}
}
