package controller

import (
	"context"
	"net/http"
	"time"

	"pathways_backend/internal/service"
	"pathways_backend/internal/util"
	"pathways_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type HealthController struct {
	DB      *gorm.DB
	Redis   *redis.Client
	Storage *service.StorageService
}

func NewHealthController(db *gorm.DB, rdb *redis.Client, storage *service.StorageService) *HealthController {
	return &HealthController{DB: db, Redis: rdb, Storage: storage}
}

// @Summary 健康检查
// @Description 检查数据库、缓存与对象存储状态
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	components := gin.H{}

	// 数据库不可用时整体不可用
	sqlDB, err := c.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(pingCtx)
	}
	if err != nil {
		logger.Log.Error("Health check: database down", zap.Error(err))
		util.Error(ctx, http.StatusServiceUnavailable, "Database unavailable")
		return
	}
	components["database"] = "up"

	if c.Redis != nil {
		if err := c.Redis.Ping(pingCtx).Err(); err != nil {
			logger.Log.Warn("Health check: redis down", zap.Error(err))
			components["redis"] = "down"
		} else {
			components["redis"] = "up"
		}
	}

	if c.Storage != nil {
		if err := c.Storage.Ping(pingCtx); err != nil {
			logger.Log.Warn("Health check: storage down", zap.Error(err))
			components["storage"] = "down"
		} else {
			components["storage"] = "up"
		}
	}

	util.Success(ctx, gin.H{
		"status":     "ok",
		"components": components,
	})
}
