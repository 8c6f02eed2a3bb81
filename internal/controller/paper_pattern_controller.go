package controller

import (
	"errors"
	"strconv"

	"qpgen_backend/internal/model"
	"qpgen_backend/internal/service"
	"qpgen_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type PaperPatternController struct {
	PatternService  *service.PaperPatternService
	ApprovalService *service.ApprovalService
	AuthService     *service.AuthService
}

func NewPaperPatternController(
	patternService *service.PaperPatternService,
	approvalService *service.ApprovalService,
	authService *service.AuthService,
) *PaperPatternController {
	return &PaperPatternController{
		PatternService:  patternService,
		ApprovalService: approvalService,
		AuthService:     authService,
	}
}

// Create godoc
// @Summary 新建试卷模板
// @Description 创建后进入 模块协调员-项目协调员-考试主管 三级审批
// @Tags 试卷模板
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.CreatePatternRequest true "模板结构"
// @Success 201 {object} util.Response{data=model.PaperPattern} "创建成功"
// @Failure 400 {object} util.Response "结构非法"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/patterns [post]
func (c *PaperPatternController) Create(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.CreatePatternRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	pattern, err := c.PatternService.Create(req, claims.UserID)
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx, "课程不存在")
		} else {
			util.BadRequest(ctx, err.Error())
		}
		return
	}

	util.Created(ctx, pattern)
}

// List godoc
// @Summary 模板列表
// @Tags 试卷模板
// @Produce json
// @Security ApiKeyAuth
// @Param courseId query int false "课程ID"
// @Param status query string false "审批状态" Enums(PENDING_APPROVAL, APPROVED, REJECTED)
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response
// @Router /api/patterns [get]
func (c *PaperPatternController) List(ctx *gin.Context) {
	courseID := util.MustParseUint(ctx.Query("courseId"))
	status := model.PatternStatus(ctx.Query("status"))
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	patterns, total, err := c.PatternService.List(courseID, status, page, limit)
	if err != nil {
		util.InternalServerError(ctx)
		return
	}

	util.Success(ctx, gin.H{"items": patterns, "total": total})
}

// Get godoc
// @Summary 模板详情
// @Tags 试卷模板
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "模板ID"
// @Success 200 {object} util.Response{data=model.PaperPattern}
// @Failure 404 {object} util.Response "模板不存在"
// @Router /api/patterns/{id} [get]
func (c *PaperPatternController) Get(ctx *gin.Context) {
	pattern, err := c.PatternService.Get(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		if errors.Is(err, util.ErrPatternNotFound) {
			util.NotFound(ctx, "模板不存在")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, pattern)
}

// Approve godoc
// @Summary 审批通过模板
// @Description 依次通过 mc、pc、coe 三道闸，最后一道闸通过后模板生效
// @Tags 模板审批
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "模板ID"
// @Success 200 {object} util.Response{data=model.PaperPattern}
// @Failure 404 {object} util.Response "模板不存在"
// @Failure 409 {object} util.Response "状态迁移非法"
// @Router /api/patterns/{id}/approve [post]
func (c *PaperPatternController) Approve(ctx *gin.Context) {
	reviewer := c.AuthService.GetCurrentUser(ctx)
	if reviewer == nil {
		util.Unauthorized(ctx)
		return
	}

	pattern, err := c.ApprovalService.ApprovePattern(reviewer, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrPatternNotFound):
			util.NotFound(ctx, "模板不存在")
		case errors.Is(err, util.ErrInvalidTransition):
			util.Error(ctx, 409, "当前状态下该角色无权执行此操作")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, pattern)
}

// Reject godoc
// @Summary 驳回模板
// @Tags 模板审批
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "模板ID"
// @Param body body RejectRequest true "驳回意见"
// @Success 200 {object} util.Response{data=model.PaperPattern}
// @Failure 400 {object} util.Response "备注太短"
// @Failure 404 {object} util.Response "模板不存在"
// @Failure 409 {object} util.Response "状态迁移非法"
// @Router /api/patterns/{id}/reject [post]
func (c *PaperPatternController) Reject(ctx *gin.Context) {
	reviewer := c.AuthService.GetCurrentUser(ctx)
	if reviewer == nil {
		util.Unauthorized(ctx)
		return
	}

	var req RejectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	pattern, err := c.ApprovalService.RejectPattern(reviewer, util.MustParseUint(ctx.Param("id")), req.Remarks)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrRemarksTooShort):
			util.BadRequest(ctx, "驳回备注至少十个字符")
		case errors.Is(err, util.ErrPatternNotFound):
			util.NotFound(ctx, "模板不存在")
		case errors.Is(err, util.ErrInvalidTransition):
			util.Error(ctx, 409, "当前状态下该角色无权执行此操作")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, pattern)
}

// Feedback godoc
// @Summary 模板审批记录
// @Tags 模板审批
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "模板ID"
// @Success 200 {object} util.Response{data=[]model.QuestionFeedback}
// @Failure 404 {object} util.Response "模板不存在"
// @Router /api/patterns/{id}/feedback [get]
func (c *PaperPatternController) Feedback(ctx *gin.Context) {
	entries, err := c.ApprovalService.PatternFeedbackHistory(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		if errors.Is(err, util.ErrPatternNotFound) {
			util.NotFound(ctx, "模板不存在")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, entries)
}
