package app

import (
	"smartform_backend/docs"
	"smartform_backend/internal/config"
	"smartform_backend/internal/middleware"
	"smartform_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)

		// 表单填写者入口
		public.GET("/public/forms/:slug", c.form.GetPublic)
		public.POST("/public/forms/:slug/submissions", c.submission.Submit)
		public.POST("/public/forms/:slug/uploads", c.submission.Upload)
	}

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/me", c.auth.Me)

		// 表单管理
		authGroup.POST("/forms", c.form.Create)
		authGroup.GET("/forms", c.form.List)
		authGroup.POST("/forms/ai-suggest", c.form.Suggest)
		authGroup.GET("/forms/templates", c.form.Templates)
		authGroup.GET("/forms/:id", c.form.Get)
		authGroup.PUT("/forms/:id", c.form.Update)
		authGroup.DELETE("/forms/:id", c.form.Delete)
		authGroup.POST("/forms/:id/publish", c.form.Publish)
		authGroup.POST("/forms/:id/unpublish", c.form.Unpublish)

		// 提交
		authGroup.GET("/forms/:id/submissions", c.submission.List)
		authGroup.GET("/submissions/:id", c.submission.Get)
		authGroup.POST("/submissions/:id/analyze", c.submission.Analyze)

		// 统计
		authGroup.GET("/forms/:id/stats/overview", c.stats.Overview)
		authGroup.GET("/forms/:id/stats/over-time", c.stats.OverTime)
		authGroup.GET("/forms/:id/stats/distribution/:questionId", c.stats.Distribution)

		// 候选人比较
		authGroup.GET("/forms/:id/compare/table", c.compare.Table)
		authGroup.POST("/forms/:id/compare/analyze", c.compare.Analyze)
		authGroup.GET("/forms/:id/compare/ranking", c.compare.Ranking)
		authGroup.POST("/forms/:id/compare/refresh", c.compare.Refresh)

		// 导出
		authGroup.GET("/forms/:id/export/raw", c.export.Raw)
		authGroup.GET("/forms/:id/export/analysis", c.export.Analyses)
	}
}
