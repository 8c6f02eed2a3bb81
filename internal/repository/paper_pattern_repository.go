package repository

import (
	"qpgen_backend/internal/model"

	"gorm.io/gorm"
)

type PaperPatternRepository struct {
	DB *gorm.DB
}

func NewPaperPatternRepository(db *gorm.DB) *PaperPatternRepository {
	return &PaperPatternRepository{DB: db}
}

func (r *PaperPatternRepository) Create(pattern *model.PaperPattern) error {
	return r.DB.Create(pattern).Error
}

func (r *PaperPatternRepository) FindByID(id uint) (*model.PaperPattern, error) {
	var pattern model.PaperPattern
	err := r.DB.First(&pattern, id).Error
	return &pattern, err
}

func (r *PaperPatternRepository) List(courseID uint, status model.PatternStatus, page, limit int) ([]model.PaperPattern, int64, error) {
	query := r.DB.Model(&model.PaperPattern{})
	if courseID > 0 {
		query = query.Where("course_id = ?", courseID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var patterns []model.PaperPattern
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&patterns).Error
	return patterns, total, err
}

type PatternStatusCountRow struct {
	Status model.PatternStatus `json:"status"`
	Count  int64               `json:"count"`
}

func (r *PaperPatternRepository) CountByStatus(courseID uint) ([]PatternStatusCountRow, error) {
	var rows []PatternStatusCountRow
	query := r.DB.Model(&model.PaperPattern{}).
		Select("status, COUNT(*) as count")
	if courseID > 0 {
		query = query.Where("course_id = ?", courseID)
	}
	err := query.Group("status").Scan(&rows).Error
	return rows, err
}
