package controller

import (
	"errors"
	"strconv"

	"qpgen_backend/internal/model"
	"qpgen_backend/internal/repository"
	"qpgen_backend/internal/service"
	"qpgen_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuestionController struct {
	QuestionService *service.QuestionService
	ApprovalService *service.ApprovalService
	AuthService     *service.AuthService
}

func NewQuestionController(
	questionService *service.QuestionService,
	approvalService *service.ApprovalService,
	authService *service.AuthService,
) *QuestionController {
	return &QuestionController{
		QuestionService: questionService,
		ApprovalService: approvalService,
		AuthService:     authService,
	}
}

// List godoc
// @Summary 试题列表
// @Tags 试题
// @Produce json
// @Security ApiKeyAuth
// @Param courseId query int false "课程ID"
// @Param unit query int false "单元号"
// @Param status query string false "审批状态"
// @Param jobId query string false "出题任务ID"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response
// @Router /api/questions [get]
func (c *QuestionController) List(ctx *gin.Context) {
	unit, _ := strconv.Atoi(ctx.Query("unit"))
	filter := repository.QuestionFilter{
		CourseID: util.MustParseUint(ctx.Query("courseId")),
		Unit:     unit,
		Status:   model.QuestionStatus(ctx.Query("status")),
		JobID:    ctx.Query("jobId"),
	}
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	questions, total, err := c.QuestionService.List(filter, page, limit)
	if err != nil {
		util.InternalServerError(ctx)
		return
	}

	util.Success(ctx, gin.H{"items": questions, "total": total})
}

// Get godoc
// @Summary 试题详情
// @Tags 试题
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "试题ID"
// @Success 200 {object} util.Response{data=model.Question}
// @Failure 404 {object} util.Response "试题不存在"
// @Router /api/questions/{id} [get]
func (c *QuestionController) Get(ctx *gin.Context) {
	question, err := c.QuestionService.Get(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		if errors.Is(err, util.ErrQuestionNotFound) {
			util.NotFound(ctx, "试题不存在")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, question)
}

// Create godoc
// @Summary 手工录入试题
// @Description 课程协调员直接录入一道试题，从审批链起点开始走流程
// @Tags 试题
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.CreateQuestionRequest true "试题内容"
// @Success 201 {object} util.Response{data=model.Question} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/questions [post]
func (c *QuestionController) Create(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.CreateQuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	question, err := c.QuestionService.Create(req, claims.UserID)
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx, "课程不存在")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, question)
}

// Approve godoc
// @Summary 审批通过试题
// @Description 将试题推进到审批链的下一个状态，只有当前阶段的角色有权操作
// @Tags 试题审批
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "试题ID"
// @Success 200 {object} util.Response{data=model.Question}
// @Failure 404 {object} util.Response "试题不存在"
// @Failure 409 {object} util.Response "状态迁移非法"
// @Router /api/questions/{id}/approve [post]
func (c *QuestionController) Approve(ctx *gin.Context) {
	reviewer := c.AuthService.GetCurrentUser(ctx)
	if reviewer == nil {
		util.Unauthorized(ctx)
		return
	}

	question, err := c.ApprovalService.ApproveQuestion(reviewer, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrQuestionNotFound):
			util.NotFound(ctx, "试题不存在")
		case errors.Is(err, util.ErrInvalidTransition):
			util.Error(ctx, 409, "当前状态下该角色无权执行此操作")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, question)
}

// swagger:model RejectRequest
type RejectRequest struct {
	Remarks string `json:"remarks" binding:"required"`
}

// Reject godoc
// @Summary 驳回试题
// @Description 驳回并记录意见，备注至少十个字符
// @Tags 试题审批
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "试题ID"
// @Param body body RejectRequest true "驳回意见"
// @Success 200 {object} util.Response{data=model.Question}
// @Failure 400 {object} util.Response "备注太短"
// @Failure 404 {object} util.Response "试题不存在"
// @Failure 409 {object} util.Response "状态迁移非法"
// @Router /api/questions/{id}/reject [post]
func (c *QuestionController) Reject(ctx *gin.Context) {
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

	question, err := c.ApprovalService.RejectQuestion(reviewer, util.MustParseUint(ctx.Param("id")), req.Remarks)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrRemarksTooShort):
			util.BadRequest(ctx, "驳回备注至少十个字符")
		case errors.Is(err, util.ErrQuestionNotFound):
			util.NotFound(ctx, "试题不存在")
		case errors.Is(err, util.ErrInvalidTransition):
			util.Error(ctx, 409, "当前状态下该角色无权执行此操作")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, question)
}

// swagger:model BulkApproveRequest
type BulkApproveRequest struct {
	QuestionIDs []uint `json:"questionIds" binding:"required,min=1"`
}

// BulkApprove godoc
// @Summary 批量审批通过
// @Description 逐条推进，无权处理或不存在的条目跳过并计数
// @Tags 试题审批
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param body body BulkApproveRequest true "试题ID列表"
// @Success 200 {object} util.Response{data=service.BulkApproveResult}
// @Router /api/questions/bulk-approve [post]
func (c *QuestionController) BulkApprove(ctx *gin.Context) {
	reviewer := c.AuthService.GetCurrentUser(ctx)
	if reviewer == nil {
		util.Unauthorized(ctx)
		return
	}

	var req BulkApproveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.ApprovalService.BulkApproveQuestions(reviewer, req.QuestionIDs)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// Feedback godoc
// @Summary 试题审批记录
// @Tags 试题审批
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "试题ID"
// @Success 200 {object} util.Response{data=[]model.QuestionFeedback}
// @Failure 404 {object} util.Response "试题不存在"
// @Router /api/questions/{id}/feedback [get]
func (c *QuestionController) Feedback(ctx *gin.Context) {
	entries, err := c.ApprovalService.QuestionFeedbackHistory(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		if errors.Is(err, util.ErrQuestionNotFound) {
			util.NotFound(ctx, "试题不存在")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, entries)
}
