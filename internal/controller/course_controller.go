package controller

import (
	"qpgen_backend/internal/service"
	"qpgen_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	CourseService *service.CourseService
}

func NewCourseController(courseService *service.CourseService) *CourseController {
	return &CourseController{CourseService: courseService}
}

// List godoc
// @Summary 课程列表
// @Tags 课程
// @Produce json
// @Security ApiKeyAuth
// @Param program query string false "专业名称过滤"
// @Success 200 {object} util.Response{data=[]model.Course}
// @Router /api/courses [get]
func (c *CourseController) List(ctx *gin.Context) {
	courses, err := c.CourseService.List(ctx.Query("program"))
	if err != nil {
		util.InternalServerError(ctx)
		return
	}

	util.Success(ctx, courses)
}

// Create godoc
// @Summary 新建课程
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.CreateCourseRequest true "课程信息"
// @Success 201 {object} util.Response{data=model.Course} "创建成功"
// @Failure 400 {object} util.Response "课程编码重复"
// @Router /api/admin/courses [post]
func (c *CourseController) Create(ctx *gin.Context) {
	var req service.CreateCourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	course, err := c.CourseService.Create(req)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	util.Created(ctx, course)
}
