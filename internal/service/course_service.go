package service

import (
	"errors"

	"qpgen_backend/internal/model"
	"qpgen_backend/internal/repository"
	"qpgen_backend/internal/util"

	"gorm.io/gorm"
)

type CourseService struct {
	CourseRepo *repository.CourseRepository
}

func NewCourseService(courseRepo *repository.CourseRepository) *CourseService {
	return &CourseService{CourseRepo: courseRepo}
}

type CreateCourseRequest struct {
	Code     string `json:"code" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Program  string `json:"program"`
	Semester int    `json:"semester"`
	Units    int    `json:"units"`
}

func (s *CourseService) Create(req CreateCourseRequest) (*model.Course, error) {
	if _, err := s.CourseRepo.FindByCode(req.Code); err == nil {
		return nil, errors.New("course code already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	units := req.Units
	if units <= 0 {
		units = 5
	}
	course := &model.Course{
		Code:     req.Code,
		Name:     req.Name,
		Program:  req.Program,
		Semester: req.Semester,
		Units:    units,
	}
	if err := s.CourseRepo.Create(course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) List(program string) ([]model.Course, error) {
	return s.CourseRepo.List(program)
}

func (s *CourseService) Get(id uint) (*model.Course, error) {
	course, err := s.CourseRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	return course, nil
}
