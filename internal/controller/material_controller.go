package controller

import (
	"errors"
	"strconv"

	"qpgen_backend/internal/service"
	"qpgen_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type MaterialController struct {
	MaterialService *service.MaterialService
}

func NewMaterialController(materialService *service.MaterialService) *MaterialController {
	return &MaterialController{MaterialService: materialService}
}

// swagger:model UploadMaterialRequest
type UploadMaterialRequest struct {
	CourseID uint   `form:"courseId" binding:"required"`
	Unit     int    `form:"unit"`
	Title    string `form:"title"`
}

// Upload godoc
// @Summary 上传课程材料
// @Description 上传文本或 Markdown 材料，首次用于出题时才解析章节
// @Tags 课程材料
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   courseId formData int true "课程ID"
// @Param   unit formData int false "单元号"
// @Param   title formData string false "材料标题，缺省用文件名"
// @Param   file formData file true "材料文件 (.txt/.md)"
// @Success 201 {object} util.Response{data=model.Material} "创建成功"
// @Failure 400 {object} util.Response "文件类型不支持"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/materials [post]
func (c *MaterialController) Upload(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req UploadMaterialRequest
	if err := ctx.ShouldBind(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "File is required")
		return
	}

	material, err := c.MaterialService.Upload(ctx, req.CourseID, req.Unit, req.Title, file, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrCourseNotFound):
			util.NotFound(ctx, "课程不存在")
		case errors.Is(err, util.ErrUnsupportedFileType):
			util.BadRequest(ctx, "仅支持 .txt/.md 文本材料")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, material)
}

// List godoc
// @Summary 材料列表
// @Tags 课程材料
// @Produce json
// @Security ApiKeyAuth
// @Param courseId query int false "课程ID"
// @Param unit query int false "单元号"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response
// @Router /api/materials [get]
func (c *MaterialController) List(ctx *gin.Context) {
	courseID := util.MustParseUint(ctx.Query("courseId"))
	unit, _ := strconv.Atoi(ctx.Query("unit"))
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	materials, total, err := c.MaterialService.List(courseID, unit, page, limit)
	if err != nil {
		util.InternalServerError(ctx)
		return
	}

	util.Success(ctx, gin.H{"items": materials, "total": total})
}

// Get godoc
// @Summary 材料详情
// @Tags 课程材料
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "材料ID"
// @Success 200 {object} util.Response{data=model.Material}
// @Failure 404 {object} util.Response "材料不存在"
// @Router /api/materials/{id} [get]
func (c *MaterialController) Get(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))

	material, err := c.MaterialService.Get(id)
	if err != nil {
		if errors.Is(err, util.ErrMaterialNotFound) {
			util.NotFound(ctx, "材料不存在")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, material)
}

// Sections godoc
// @Summary 材料章节
// @Description 返回材料解析出的章节，未解析的材料会即时解析并缓存
// @Tags 课程材料
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "材料ID"
// @Success 200 {object} util.Response{data=[]model.Section}
// @Failure 404 {object} util.Response "材料不存在"
// @Failure 422 {object} util.Response "材料无法解析"
// @Router /api/materials/{id}/sections [get]
func (c *MaterialController) Sections(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))

	sections, err := c.MaterialService.EnsureSections(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrMaterialNotFound):
			util.NotFound(ctx, "材料不存在")
		case errors.Is(err, util.ErrParseFailed):
			util.Error(ctx, 422, "材料无法解析: "+err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, sections)
}
