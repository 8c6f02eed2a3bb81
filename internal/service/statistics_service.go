package service

import (
	"errors"

	"qpgen_backend/internal/model"
	"qpgen_backend/internal/repository"
	"qpgen_backend/internal/util"

	"gorm.io/gorm"
)

// StatisticsService 审批进度统计。每次请求直接聚合当前库表，
// 不走缓存，审批动作一落库统计立即可见
type StatisticsService struct {
	QuestionRepo *repository.QuestionRepository
	PatternRepo  *repository.PaperPatternRepository
	CourseRepo   *repository.CourseRepository
}

func NewStatisticsService(
	questionRepo *repository.QuestionRepository,
	patternRepo *repository.PaperPatternRepository,
	courseRepo *repository.CourseRepository,
) *StatisticsService {
	return &StatisticsService{
		QuestionRepo: questionRepo,
		PatternRepo:  patternRepo,
		CourseRepo:   courseRepo,
	}
}

type UnitBreakdown struct {
	Unit     int                            `json:"unit"`
	Total    int64                          `json:"total"`
	ByStatus map[model.QuestionStatus]int64 `json:"byStatus"`
}

type QuestionStatistics struct {
	CourseID uint                           `json:"courseId"`
	Unit     int                            `json:"unit,omitempty"`
	Total    int64                          `json:"total"`
	ByStatus map[model.QuestionStatus]int64 `json:"byStatus"`
	ByUnit   []UnitBreakdown                `json:"byUnit"`
}

type PatternStatistics struct {
	CourseID uint                          `json:"courseId"`
	Total    int64                         `json:"total"`
	ByStatus map[model.PatternStatus]int64 `json:"byStatus"`
}

// QuestionStats 按状态和单元统计课程题库，所有状态键都出现，没有的补零。
// unit 大于 0 时只统计该单元
func (s *StatisticsService) QuestionStats(courseID uint, unit int) (*QuestionStatistics, error) {
	if _, err := s.CourseRepo.FindByID(courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}

	stats := &QuestionStatistics{
		CourseID: courseID,
		Unit:     unit,
		ByStatus: map[model.QuestionStatus]int64{},
	}
	for _, st := range model.AllQuestionStatuses() {
		stats.ByStatus[st] = 0
	}

	rows, err := s.QuestionRepo.CountByStatus(courseID, unit)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		stats.ByStatus[row.Status] = row.Count
		stats.Total += row.Count
	}

	unitRows, err := s.QuestionRepo.CountByUnitStatus(courseID, unit)
	if err != nil {
		return nil, err
	}
	byUnit := map[int]*UnitBreakdown{}
	var order []int
	for _, row := range unitRows {
		b, ok := byUnit[row.Unit]
		if !ok {
			b = &UnitBreakdown{Unit: row.Unit, ByStatus: map[model.QuestionStatus]int64{}}
			for _, st := range model.AllQuestionStatuses() {
				b.ByStatus[st] = 0
			}
			byUnit[row.Unit] = b
			order = append(order, row.Unit)
		}
		b.ByStatus[row.Status] = row.Count
		b.Total += row.Count
	}
	for _, unit := range order {
		stats.ByUnit = append(stats.ByUnit, *byUnit[unit])
	}
	return stats, nil
}

func (s *StatisticsService) PatternStats(courseID uint) (*PatternStatistics, error) {
	if courseID > 0 {
		if _, err := s.CourseRepo.FindByID(courseID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, util.ErrCourseNotFound
			}
			return nil, err
		}
	}

	stats := &PatternStatistics{
		CourseID: courseID,
		ByStatus: map[model.PatternStatus]int64{
			model.PatternPending:  0,
			model.PatternApproved: 0,
			model.PatternRejected: 0,
		},
	}
	rows, err := s.PatternRepo.CountByStatus(courseID)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		stats.ByStatus[row.Status] = row.Count
		stats.Total += row.Count
	}
	return stats, nil
}
