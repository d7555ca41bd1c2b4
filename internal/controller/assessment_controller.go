package controller

import (
	"errors"
	"io"
	"net/http"

	"pathways_backend/internal/protocol"
	"pathways_backend/internal/service"
	"pathways_backend/internal/util"
	"pathways_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxSubmissionBytes = 64 << 10

type AssessmentController struct {
	Service *service.AssessmentService
}

func NewAssessmentController(svc *service.AssessmentService) *AssessmentController {
	return &AssessmentController{Service: svc}
}

// @Summary 获取单元测评
// @Tags 测评
// @Produce json
// @Security BearerAuth
// @Param context path string true "模块或路径ID"
// @Param unit path string true "单元ID"
// @Success 200 {object} protocol.SessionView
// @Router /api/assessment/{context}/{unit} [get]
func (c *AssessmentController) GetSession(ctx *gin.Context) {
	viewer, ok := util.ViewerFromContext(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}

	view, err := c.Service.LoadSession(ctx.Request.Context(), viewer, ctx.Param("context"), ctx.Param("unit"))
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, view)
}

// @Summary 提交单元测评
// @Tags 测评
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param context path string true "模块或路径ID"
// @Param unit path string true "单元ID"
// @Param body body protocol.Submission true "题目ID -> 选项ID列表"
// @Success 200 {object} protocol.GradeResponse
// @Router /api/assessment/{context}/{unit} [post]
func (c *AssessmentController) Submit(ctx *gin.Context) {
	viewer, ok := util.ViewerFromContext(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxSubmissionBytes))
	if err != nil {
		util.BadRequest(ctx, "request body too large")
		return
	}
	sub, err := protocol.ParseSubmission(raw)
	if err != nil {
		logger.Log.Debug("Rejected submission",
			zap.String("unit", ctx.Param("unit")),
			zap.Error(err))
		util.BadRequest(ctx, util.ErrInvalidSubmission.Error())
		return
	}

	resp, err := c.Service.Grade(ctx.Request.Context(), viewer, ctx.Param("context"), ctx.Param("unit"), sub)
	if err != nil {
		respondError(ctx, err)
		return
	}

	// 判分结果（正确/错误）都是 200
	ctx.JSON(http.StatusOK, resp)
}

// respondError maps engine errors onto status codes.
func respondError(ctx *gin.Context, err error) {
	switch {
	case util.IsNotFound(err):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrPreviewRestricted):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrStorageUnavailable):
		util.LogStorageUnavailable(ctx, err)
	default:
		util.LogInternalError(ctx, err)
	}
}
