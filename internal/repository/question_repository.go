package repository

import (
	"qpgen_backend/internal/model"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func (r *QuestionRepository) Create(question *model.Question) error {
	return r.DB.Create(question).Error
}

func (r *QuestionRepository) CreateBatch(questions []model.Question) error {
	if len(questions) == 0 {
		return nil
	}
	return r.DB.Create(&questions).Error
}

func (r *QuestionRepository) FindByID(id uint) (*model.Question, error) {
	var question model.Question
	err := r.DB.First(&question, id).Error
	return &question, err
}

type QuestionFilter struct {
	CourseID uint
	Unit     int
	Status   model.QuestionStatus
	JobID    string
}

func (r *QuestionRepository) List(filter QuestionFilter, page, limit int) ([]model.Question, int64, error) {
	query := r.DB.Model(&model.Question{})
	if filter.CourseID > 0 {
		query = query.Where("course_id = ?", filter.CourseID)
	}
	if filter.Unit > 0 {
		query = query.Where("unit = ?", filter.Unit)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.JobID != "" {
		query = query.Where("generation_job_id = ?", filter.JobID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var questions []model.Question
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&questions).Error
	return questions, total, err
}

type StatusCountRow struct {
	Status model.QuestionStatus `json:"status"`
	Count  int64                `json:"count"`
}

type UnitStatusCountRow struct {
	Unit   int                  `json:"unit"`
	Status model.QuestionStatus `json:"status"`
	Count  int64                `json:"count"`
}

// CountByStatus 按状态统计某课程的题目数，直接走 GROUP BY，不做缓存。
// unit 为 0 时统计全部单元
func (r *QuestionRepository) CountByStatus(courseID uint, unit int) ([]StatusCountRow, error) {
	query := r.DB.Model(&model.Question{}).
		Select("status, COUNT(*) as count").
		Where("course_id = ?", courseID)
	if unit > 0 {
		query = query.Where("unit = ?", unit)
	}
	var rows []StatusCountRow
	err := query.Group("status").Scan(&rows).Error
	return rows, err
}

func (r *QuestionRepository) CountByUnitStatus(courseID uint, unit int) ([]UnitStatusCountRow, error) {
	query := r.DB.Model(&model.Question{}).
		Select("unit, status, COUNT(*) as count").
		Where("course_id = ?", courseID)
	if unit > 0 {
		query = query.Where("unit = ?", unit)
	}
	var rows []UnitStatusCountRow
	err := query.Group("unit, status").Order("unit asc").Scan(&rows).Error
	return rows, err
}
