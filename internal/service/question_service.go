package service

import (
	"errors"

	"qpgen_backend/internal/model"
	"qpgen_backend/internal/repository"
	"qpgen_backend/internal/util"

	"gorm.io/gorm"
)

type QuestionService struct {
	QuestionRepo *repository.QuestionRepository
	CourseRepo   *repository.CourseRepository
}

func NewQuestionService(questionRepo *repository.QuestionRepository, courseRepo *repository.CourseRepository) *QuestionService {
	return &QuestionService{
		QuestionRepo: questionRepo,
		CourseRepo:   courseRepo,
	}
}

func (s *QuestionService) List(filter repository.QuestionFilter, page, limit int) ([]model.Question, int64, error) {
	return s.QuestionRepo.List(filter, page, limit)
}

func (s *QuestionService) Get(id uint) (*model.Question, error) {
	question, err := s.QuestionRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}
	return question, nil
}

type CreateQuestionRequest struct {
	CourseID     uint   `json:"courseId" binding:"required"`
	Unit         int    `json:"unit"`
	Text         string `json:"text" binding:"required"`
	Answer       string `json:"answer" binding:"required"`
	Difficulty   string `json:"difficulty"`
	BloomLevel   string `json:"bloomLevel"`
	QuestionType string `json:"questionType"`
	Marks        int    `json:"marks"`
}

// Create 手工录入一道试题。三条轴的取值同样过别名表归一，
// 没给或认不出时落到各轴的默认值
func (s *QuestionService) Create(req CreateQuestionRequest, userID uint) (*model.Question, error) {
	if _, err := s.CourseRepo.FindByID(req.CourseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}

	difficulty, ok := model.NormalizeDifficulty(req.Difficulty)
	if !ok {
		difficulty = model.DefaultDifficulty
	}
	bloom, ok := model.NormalizeBloomLevel(req.BloomLevel)
	if !ok {
		bloom = model.DefaultBloomLevel
	}
	qtype, ok := model.NormalizeQuestionType(req.QuestionType)
	if !ok {
		qtype = model.DefaultQuestionType
	}

	unit := req.Unit
	if unit <= 0 {
		unit = 1
	}

	question := &model.Question{
		CourseID:     req.CourseID,
		Unit:         unit,
		Text:         req.Text,
		Answer:       req.Answer,
		Difficulty:   difficulty,
		BloomLevel:   bloom,
		QuestionType: qtype,
		Marks:        model.NormalizeMarks(req.Marks, qtype),
		Status:       model.StatusCreatedByCC,
		CreatedByID:  userID,
	}
	if err := s.QuestionRepo.Create(question); err != nil {
		return nil, err
	}
	return question, nil
}
