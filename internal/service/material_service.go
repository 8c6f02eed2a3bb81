package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"qpgen_backend/internal/model"
	"qpgen_backend/internal/repository"
	"qpgen_backend/internal/util"

	"gorm.io/gorm"
)

type MaterialService struct {
	MaterialRepo *repository.MaterialRepository
	CourseRepo   *repository.CourseRepository
	Storage      *StorageService
	Source       SectionSource
}

func NewMaterialService(
	materialRepo *repository.MaterialRepository,
	courseRepo *repository.CourseRepository,
	storage *StorageService,
	source SectionSource,
) *MaterialService {
	return &MaterialService{
		MaterialRepo: materialRepo,
		CourseRepo:   courseRepo,
		Storage:      storage,
		Source:       source,
	}
}

// Upload 校验并保存课程材料，此时不解析，首个用到章节的请求才触发解析
func (s *MaterialService) Upload(ctx context.Context, courseID uint, unit int, title string, file *multipart.FileHeader, uploaderID uint) (*model.Material, error) {
	if _, err := s.CourseRepo.FindByID(courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !util.HasAllowedExtension(file.Filename, util.AllowedMaterialExtensions) {
		return nil, util.ErrUnsupportedFileType
	}

	contentType := file.Header.Get("Content-Type")
	if contentType == "" || contentType == util.MimeOctetStream {
		if ext == ".md" || ext == ".markdown" {
			contentType = util.MimeMarkdown
		} else {
			contentType = util.MimeText
		}
	}

	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	if title == "" {
		title = strings.TrimSuffix(file.Filename, ext)
	}

	filename := fmt.Sprintf("materials/%d/%s%s", courseID, model.GenerateUUID(), ext)
	url, err := s.Storage.Upload(ctx, filename, src, file.Size, contentType)
	if err != nil {
		return nil, err
	}

	material := &model.Material{
		CourseID:     courseID,
		Unit:         unit,
		Title:        title,
		FileName:     filename,
		FileURL:      url,
		ContentType:  contentType,
		Size:         file.Size,
		UploadedByID: uploaderID,
	}
	if err := s.MaterialRepo.Create(material); err != nil {
		return nil, err
	}
	return material, nil
}

func (s *MaterialService) List(courseID uint, unit, page, limit int) ([]model.Material, int64, error) {
	return s.MaterialRepo.List(courseID, unit, page, limit)
}

func (s *MaterialService) Get(id uint) (*model.Material, error) {
	material, err := s.MaterialRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrMaterialNotFound
		}
		return nil, err
	}
	return material, nil
}

// EnsureSections 返回材料的章节，未解析的材料先解析再落库。
// 解析结果只写一次，之后的调用直接读库
func (s *MaterialService) EnsureSections(ctx context.Context, materialID uint) ([]model.Section, error) {
	material, err := s.Get(materialID)
	if err != nil {
		return nil, err
	}
	if material.Parsed {
		return s.MaterialRepo.SectionsByMaterial(materialID)
	}

	body, err := s.Storage.Fetch(ctx, material.FileName)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch stored file: %v", util.ErrParseFailed, err)
	}
	defer body.Close()

	sections, err := s.Source.Parse(ctx, material.Title, body)
	if err != nil {
		return nil, err
	}

	stored, err := s.MaterialRepo.SaveParsedSections(materialID, sections)
	if err != nil {
		return nil, err
	}
	if !stored {
		// 并发解析竞争失败，读已落库的版本
		return s.MaterialRepo.SectionsByMaterial(materialID)
	}
	return sections, nil
}
