package repository

import (
	"qpgen_backend/internal/model"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) Create(course *model.Course) error {
	return r.DB.Create(course).Error
}

func (r *CourseRepository) FindByID(id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.First(&course, id).Error
	return &course, err
}

func (r *CourseRepository) FindByCode(code string) (*model.Course, error) {
	var course model.Course
	err := r.DB.Where("code = ?", code).First(&course).Error
	return &course, err
}

func (r *CourseRepository) List(program string) ([]model.Course, error) {
	var courses []model.Course
	query := r.DB.Model(&model.Course{})
	if program != "" {
		query = query.Where("program = ?", program)
	}
	err := query.Order("code asc").Find(&courses).Error
	return courses, err
}
