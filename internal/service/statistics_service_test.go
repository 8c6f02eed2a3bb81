package service

import (
	"encoding/json"
	"errors"
	"testing"

	"qpgen_backend/internal/model"
	"qpgen_backend/internal/repository"
	"qpgen_backend/internal/testutil"
	"qpgen_backend/internal/util"

	"gorm.io/gorm"
)

func newStatisticsService(tx *gorm.DB) *StatisticsService {
	return NewStatisticsService(
		repository.NewQuestionRepository(tx),
		repository.NewPaperPatternRepository(tx),
		repository.NewCourseRepository(tx),
	)
}

func seedQuestionAt(t *testing.T, tx *gorm.DB, courseID uint, unit int, status model.QuestionStatus) {
	t.Helper()
	q := &model.Question{
		CourseID:     courseID,
		Unit:         unit,
		Text:         "What is a page fault?",
		Answer:       "An access to a page not resident in memory.",
		Difficulty:   model.DifficultyEasy,
		BloomLevel:   model.BloomRemember,
		QuestionType: model.TypeMCQ,
		Marks:        1,
		Status:       status,
	}
	if err := tx.Create(q).Error; err != nil {
		t.Fatalf("seed question: %v", err)
	}
}

func seedPatternFor(t *testing.T, tx *gorm.DB, courseID uint, status model.PatternStatus) {
	t.Helper()
	p := &model.PaperPattern{
		CourseID:  courseID,
		Name:      "Pattern " + string(status),
		Structure: json.RawMessage(`[]`),
		Status:    status,
	}
	if err := tx.Create(p).Error; err != nil {
		t.Fatalf("seed pattern: %v", err)
	}
}

func TestQuestionStatsSumToTotal(t *testing.T) {
	tx := testutil.Tx(t)
	svc := newStatisticsService(tx)
	course := seedCourse(t, tx, "CS501-QSTAT")

	seedQuestionAt(t, tx, course.ID, 1, model.StatusCreatedByCC)
	seedQuestionAt(t, tx, course.ID, 1, model.StatusCreatedByCC)
	seedQuestionAt(t, tx, course.ID, 1, model.StatusAccepted)
	seedQuestionAt(t, tx, course.ID, 2, model.StatusUnderReviewMC)
	seedQuestionAt(t, tx, course.ID, 2, model.StatusRejected)

	stats, err := svc.QuestionStats(course.ID, 0)
	if err != nil {
		t.Fatalf("question stats: %v", err)
	}
	if stats.Total != 5 {
		t.Errorf("total = %d, want 5", stats.Total)
	}

	var statusSum int64
	for _, st := range model.AllQuestionStatuses() {
		count, ok := stats.ByStatus[st]
		if !ok {
			t.Errorf("status %s missing from the map, zero counts must be present", st)
		}
		statusSum += count
	}
	if statusSum != stats.Total {
		t.Errorf("status counts sum to %d, total is %d", statusSum, stats.Total)
	}

	if len(stats.ByUnit) != 2 {
		t.Fatalf("got %d unit breakdowns, want 2", len(stats.ByUnit))
	}
	var unitSum int64
	for _, b := range stats.ByUnit {
		unitSum += b.Total
	}
	if unitSum != stats.Total {
		t.Errorf("unit totals sum to %d, total is %d", unitSum, stats.Total)
	}
	if stats.ByUnit[0].Unit != 1 || stats.ByUnit[0].Total != 3 {
		t.Errorf("unit 1 breakdown = %+v, want total 3", stats.ByUnit[0])
	}
}

func TestQuestionStatsUnitFilter(t *testing.T) {
	tx := testutil.Tx(t)
	svc := newStatisticsService(tx)
	course := seedCourse(t, tx, "CS501-UNITF")

	seedQuestionAt(t, tx, course.ID, 1, model.StatusAccepted)
	seedQuestionAt(t, tx, course.ID, 2, model.StatusAccepted)
	seedQuestionAt(t, tx, course.ID, 2, model.StatusRejected)

	stats, err := svc.QuestionStats(course.ID, 2)
	if err != nil {
		t.Fatalf("question stats: %v", err)
	}
	if stats.Total != 2 {
		t.Errorf("filtered total = %d, want 2", stats.Total)
	}
	if stats.ByStatus[model.StatusAccepted] != 1 || stats.ByStatus[model.StatusRejected] != 1 {
		t.Errorf("filtered counts = %v", stats.ByStatus)
	}
	if len(stats.ByUnit) != 1 || stats.ByUnit[0].Unit != 2 {
		t.Errorf("filtered breakdown = %+v, want only unit 2", stats.ByUnit)
	}
}

func TestQuestionStatsUnknownCourse(t *testing.T) {
	tx := testutil.Tx(t)
	svc := newStatisticsService(tx)

	if _, err := svc.QuestionStats(999999, 0); !errors.Is(err, util.ErrCourseNotFound) {
		t.Fatalf("want ErrCourseNotFound, got %v", err)
	}
}

func TestPatternStatsCountsByStatus(t *testing.T) {
	tx := testutil.Tx(t)
	svc := newStatisticsService(tx)
	course := seedCourse(t, tx, "CS501-PSTAT")

	seedPatternFor(t, tx, course.ID, model.PatternPending)
	seedPatternFor(t, tx, course.ID, model.PatternPending)
	seedPatternFor(t, tx, course.ID, model.PatternApproved)

	stats, err := svc.PatternStats(course.ID)
	if err != nil {
		t.Fatalf("pattern stats: %v", err)
	}
	if stats.Total != 3 {
		t.Errorf("total = %d, want 3", stats.Total)
	}
	if stats.ByStatus[model.PatternPending] != 2 || stats.ByStatus[model.PatternApproved] != 1 {
		t.Errorf("counts = %v", stats.ByStatus)
	}
	if stats.ByStatus[model.PatternRejected] != 0 {
		t.Errorf("rejected = %d, zero count must still be present", stats.ByStatus[model.PatternRejected])
	}
}
