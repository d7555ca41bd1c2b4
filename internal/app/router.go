package app

import (
	"pathways_backend/docs"
	"pathways_backend/internal/config"
	"pathways_backend/internal/middleware"
	"pathways_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	if cfg.Server.Mode != "release" {
		docs.SwaggerInfo.Host = ""
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))
	}

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
	}

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		a.registerAssessmentRoutes(authGroup, c)
		a.registerProgressRoutes(authGroup, c)
	}
}

func (a *App) registerAssessmentRoutes(group *gin.RouterGroup, c *controllers) {
	assessment := group.Group("/assessment")
	{
		assessment.GET("/:context/:unit", c.assessment.GetSession)
		assessment.POST("/:context/:unit", c.assessment.Submit)
	}
}

func (a *App) registerProgressRoutes(group *gin.RouterGroup, c *controllers) {
	progress := group.Group("/progress")
	{
		progress.GET("/module/:id", c.progress.GetModuleProgress)
		progress.GET("/path/:id", c.progress.GetPathProgress)
	}
}
