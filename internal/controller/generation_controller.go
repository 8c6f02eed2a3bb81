package controller

import (
	"errors"
	"strconv"

	"qpgen_backend/internal/model"
	"qpgen_backend/internal/service"
	"qpgen_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type GenerationController struct {
	GenerationService *service.GenerationService
}

func NewGenerationController(generationService *service.GenerationService) *GenerationController {
	return &GenerationController{GenerationService: generationService}
}

// SubmitJob godoc
// @Summary 提交出题任务
// @Description 按配额对材料发起异步出题，立即返回任务ID供轮询
// @Tags 出题任务
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.SubmitJobRequest true "材料与配额"
// @Success 202 {object} util.Response{data=model.GenerationJob} "任务已入队"
// @Failure 400 {object} util.Response "配额非法"
// @Failure 404 {object} util.Response "材料不存在"
// @Failure 409 {object} util.Response "同材料同单元已有任务在跑"
// @Router /api/generation/jobs [post]
func (c *GenerationController) SubmitJob(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.SubmitJobRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	job, err := c.GenerationService.Submit(ctx, req, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrMaterialNotFound):
			util.NotFound(ctx, "材料不存在")
		case errors.Is(err, util.ErrQuotaConfigInvalid):
			util.BadRequest(ctx, err.Error())
		case errors.Is(err, util.ErrJobAlreadyRunning):
			util.Error(ctx, 409, "该材料该单元已有出题任务在执行")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Accepted(ctx, job)
}

// GetJob godoc
// @Summary 查询任务状态
// @Tags 出题任务
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "任务ID"
// @Success 200 {object} util.Response{data=model.GenerationJob}
// @Failure 404 {object} util.Response "任务不存在"
// @Router /api/generation/jobs/{id} [get]
func (c *GenerationController) GetJob(ctx *gin.Context) {
	job, err := c.GenerationService.Status(ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrJobNotFound) {
			util.NotFound(ctx, "任务不存在")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, job)
}

// ListJobs godoc
// @Summary 任务列表
// @Tags 出题任务
// @Produce json
// @Security ApiKeyAuth
// @Param courseId query int false "课程ID"
// @Param status query string false "任务状态" Enums(QUEUED, PROCESSING, COMPLETED, FAILED)
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response
// @Router /api/generation/jobs [get]
func (c *GenerationController) ListJobs(ctx *gin.Context) {
	courseID := util.MustParseUint(ctx.Query("courseId"))
	status := model.JobStatus(ctx.Query("status"))
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	jobs, total, err := c.GenerationService.List(courseID, status, page, limit)
	if err != nil {
		util.InternalServerError(ctx)
		return
	}

	util.Success(ctx, gin.H{"items": jobs, "total": total})
}
