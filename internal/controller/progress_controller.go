package controller

import (
	"pathways_backend/internal/service"
	"pathways_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	Service *service.ProgressService
}

func NewProgressController(svc *service.ProgressService) *ProgressController {
	return &ProgressController{Service: svc}
}

// @Summary 模块进度
// @Tags 进度
// @Produce json
// @Security BearerAuth
// @Param id path string true "模块ID"
// @Success 200 {object} util.Response{data=model.ProgressSnapshot}
// @Router /api/progress/module/{id} [get]
func (c *ProgressController) GetModuleProgress(ctx *gin.Context) {
	viewer, ok := util.ViewerFromContext(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}

	snap, err := c.Service.ModuleSnapshot(ctx.Request.Context(), viewer.UserID, ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, snap)
}

// @Summary 学习路径进度
// @Tags 进度
// @Produce json
// @Security BearerAuth
// @Param id path string true "路径ID"
// @Success 200 {object} util.Response{data=model.ProgressSnapshot}
// @Router /api/progress/path/{id} [get]
func (c *ProgressController) GetPathProgress(ctx *gin.Context) {
	viewer, ok := util.ViewerFromContext(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}

	snap, err := c.Service.PathSnapshot(ctx.Request.Context(), viewer.UserID, ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, snap)
}
