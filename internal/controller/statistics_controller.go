package controller

import (
	"errors"

	"qpgen_backend/internal/service"
	"qpgen_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type StatisticsController struct {
	StatisticsService *service.StatisticsService
}

func NewStatisticsController(statisticsService *service.StatisticsService) *StatisticsController {
	return &StatisticsController{StatisticsService: statisticsService}
}

// Questions godoc
// @Summary 题库审批统计
// @Description 按状态和单元统计课程题目数量，实时聚合
// @Tags 统计
// @Produce json
// @Security ApiKeyAuth
// @Param courseId query int true "课程ID"
// @Param unit query int false "单元，缺省统计全部单元"
// @Success 200 {object} util.Response{data=service.QuestionStatistics}
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/statistics/questions [get]
func (c *StatisticsController) Questions(ctx *gin.Context) {
	courseID := util.MustParseUint(ctx.Query("courseId"))
	if courseID == 0 {
		util.BadRequest(ctx, "courseId parameter is required")
		return
	}

	stats, err := c.StatisticsService.QuestionStats(courseID, int(util.MustParseUint(ctx.Query("unit"))))
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx, "课程不存在")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, stats)
}

// Patterns godoc
// @Summary 模板审批统计
// @Tags 统计
// @Produce json
// @Security ApiKeyAuth
// @Param courseId query int false "课程ID，缺省统计全部课程"
// @Success 200 {object} util.Response{data=service.PatternStatistics}
// @Router /api/statistics/patterns [get]
func (c *StatisticsController) Patterns(ctx *gin.Context) {
	stats, err := c.StatisticsService.PatternStats(util.MustParseUint(ctx.Query("courseId")))
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx, "课程不存在")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, stats)
}
