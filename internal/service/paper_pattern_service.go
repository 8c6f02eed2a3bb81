package service

import (
	"encoding/json"
	"errors"
	"fmt"

	"qpgen_backend/internal/model"
	"qpgen_backend/internal/repository"
	"qpgen_backend/internal/util"

	"gorm.io/gorm"
)

type PaperPatternService struct {
	PatternRepo *repository.PaperPatternRepository
	CourseRepo  *repository.CourseRepository
}

func NewPaperPatternService(patternRepo *repository.PaperPatternRepository, courseRepo *repository.CourseRepository) *PaperPatternService {
	return &PaperPatternService{
		PatternRepo: patternRepo,
		CourseRepo:  courseRepo,
	}
}

type CreatePatternRequest struct {
	CourseID        uint                `json:"courseId" binding:"required"`
	Name            string              `json:"name" binding:"required"`
	ExamType        string              `json:"examType"`
	DurationMinutes int                 `json:"durationMinutes"`
	Instructions    string              `json:"instructions"`
	Parts           []model.PatternPart `json:"parts" binding:"required,min=1"`
}

// Create 新建试卷模板，总分由各部分题数乘分值累加得出，
// 模板创建即进入三级审批，初始三道闸全部未过
func (s *PaperPatternService) Create(req CreatePatternRequest, userID uint) (*model.PaperPattern, error) {
	if _, err := s.CourseRepo.FindByID(req.CourseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}

	totalMarks := 0
	for i := range req.Parts {
		part := &req.Parts[i]
		qtype, ok := model.NormalizeQuestionType(string(part.QuestionType))
		if !ok {
			return nil, fmt.Errorf("part %d: unknown question type %q", i+1, part.QuestionType)
		}
		part.QuestionType = qtype
		if part.Count <= 0 {
			return nil, fmt.Errorf("part %d: count must be positive", i+1)
		}
		if part.MarksEach <= 0 {
			part.MarksEach = model.MarksForType[qtype]
		}
		totalMarks += part.Count * part.MarksEach
	}

	structure, err := json.Marshal(req.Parts)
	if err != nil {
		return nil, err
	}

	pattern := &model.PaperPattern{
		CourseID:        req.CourseID,
		Name:            req.Name,
		ExamType:        req.ExamType,
		TotalMarks:      totalMarks,
		DurationMinutes: req.DurationMinutes,
		Instructions:    req.Instructions,
		Structure:       structure,
		Status:          model.PatternPending,
		CreatedByID:     userID,
	}
	if err := s.PatternRepo.Create(pattern); err != nil {
		return nil, err
	}
	return pattern, nil
}

func (s *PaperPatternService) List(courseID uint, status model.PatternStatus, page, limit int) ([]model.PaperPattern, int64, error) {
	return s.PatternRepo.List(courseID, status, page, limit)
}

func (s *PaperPatternService) Get(id uint) (*model.PaperPattern, error) {
	pattern, err := s.PatternRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrPatternNotFound
		}
		return nil, err
	}
	return pattern, nil
}
