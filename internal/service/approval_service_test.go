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

func TestNextQuestionStatus(t *testing.T) {
	cases := []struct {
		name    string
		current model.QuestionStatus
		role    model.UserRole
		want    model.QuestionStatus
		wantErr bool
	}{
		{"cc advances fresh question", model.StatusCreatedByCC, model.CourseCoordinator, model.StatusUnderReviewMC, false},
		{"mc advances to pc", model.StatusUnderReviewMC, model.ModuleCoordinator, model.StatusUnderReviewPC, false},
		{"pc accepts", model.StatusUnderReviewPC, model.ProgramCoordinator, model.StatusAccepted, false},
		{"mc cannot touch fresh question", model.StatusCreatedByCC, model.ModuleCoordinator, "", true},
		{"cc cannot skip ahead", model.StatusUnderReviewPC, model.CourseCoordinator, "", true},
		{"coe has no question authority", model.StatusUnderReviewMC, model.ControllerOfExams, "", true},
		{"accepted is terminal", model.StatusAccepted, model.ProgramCoordinator, "", true},
		{"rejected is terminal", model.StatusRejected, model.CourseCoordinator, "", true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := nextQuestionStatus(c.current, c.role)
			if c.wantErr {
				if !errors.Is(err, util.ErrInvalidTransition) {
					t.Fatalf("want ErrInvalidTransition, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != c.want {
				t.Errorf("next = %s, want %s", got, c.want)
			}
		})
	}
}

func TestQuestionRejectAllowed(t *testing.T) {
	if !questionRejectAllowed(model.StatusUnderReviewMC, model.ModuleCoordinator) {
		t.Error("stage authority must be allowed to reject")
	}
	if questionRejectAllowed(model.StatusUnderReviewMC, model.ProgramCoordinator) {
		t.Error("only the current stage authority may reject")
	}
	if questionRejectAllowed(model.StatusAccepted, model.ProgramCoordinator) {
		t.Error("terminal states cannot be rejected")
	}
}

func TestNextPatternGate(t *testing.T) {
	fresh := &model.PaperPattern{Status: model.PatternPending}

	gate, err := nextPatternGate(fresh, model.ModuleCoordinator)
	if err != nil || gate != model.GateMC {
		t.Fatalf("fresh pattern = (%s, %v), want (mc, nil)", gate, err)
	}
	if _, err := nextPatternGate(fresh, model.ProgramCoordinator); !errors.Is(err, util.ErrInvalidTransition) {
		t.Error("pc cannot jump the mc gate")
	}
	if _, err := nextPatternGate(fresh, model.ControllerOfExams); !errors.Is(err, util.ErrInvalidTransition) {
		t.Error("coe cannot jump two gates")
	}

	afterMC := &model.PaperPattern{Status: model.PatternPending, MCApproved: true}
	gate, err = nextPatternGate(afterMC, model.ProgramCoordinator)
	if err != nil || gate != model.GatePC {
		t.Fatalf("after mc = (%s, %v), want (pc, nil)", gate, err)
	}
	if _, err := nextPatternGate(afterMC, model.ModuleCoordinator); !errors.Is(err, util.ErrInvalidTransition) {
		t.Error("mc gate cannot be passed twice")
	}

	afterPC := &model.PaperPattern{Status: model.PatternPending, MCApproved: true, PCApproved: true}
	gate, err = nextPatternGate(afterPC, model.ControllerOfExams)
	if err != nil || gate != model.GateCOE {
		t.Fatalf("after pc = (%s, %v), want (coe, nil)", gate, err)
	}

	rejected := &model.PaperPattern{Status: model.PatternRejected}
	if _, err := nextPatternGate(rejected, model.ModuleCoordinator); !errors.Is(err, util.ErrInvalidTransition) {
		t.Error("rejected pattern accepts no further gates")
	}
}

func reviewer(id uint, role model.UserRole) *model.User {
	return &model.User{BaseModel: model.BaseModel{ID: id}, Role: role}
}

func newApprovalService(tx *gorm.DB) *ApprovalService {
	return NewApprovalService(
		tx,
		repository.NewQuestionRepository(tx),
		repository.NewPaperPatternRepository(tx),
		repository.NewFeedbackRepository(tx),
	)
}

func seedQuestion(t *testing.T, tx *gorm.DB, status model.QuestionStatus) *model.Question {
	t.Helper()
	q := &model.Question{
		CourseID:     1,
		Unit:         1,
		Text:         "Explain two phase locking.",
		Answer:       "Growing phase acquires locks, shrinking phase releases them.",
		Difficulty:   model.DifficultyMedium,
		BloomLevel:   model.BloomUnderstand,
		QuestionType: model.TypeShortAnswer,
		Marks:        2,
		Status:       status,
	}
	if err := tx.Create(q).Error; err != nil {
		t.Fatalf("seed question: %v", err)
	}
	return q
}

func seedPattern(t *testing.T, tx *gorm.DB) *model.PaperPattern {
	t.Helper()
	p := &model.PaperPattern{
		CourseID:   1,
		Name:       "End Semester Pattern",
		ExamType:   "END_SEM",
		TotalMarks: 100,
		Structure:  json.RawMessage(`[]`),
		Status:     model.PatternPending,
	}
	if err := tx.Create(p).Error; err != nil {
		t.Fatalf("seed pattern: %v", err)
	}
	return p
}

func TestApproveQuestionFullChain(t *testing.T) {
	tx := testutil.Tx(t)
	svc := newApprovalService(tx)
	q := seedQuestion(t, tx, model.StatusCreatedByCC)

	steps := []struct {
		reviewer *model.User
		want     model.QuestionStatus
	}{
		{reviewer(1, model.CourseCoordinator), model.StatusUnderReviewMC},
		{reviewer(2, model.ModuleCoordinator), model.StatusUnderReviewPC},
		{reviewer(3, model.ProgramCoordinator), model.StatusAccepted},
	}
	for _, step := range steps {
		got, err := svc.ApproveQuestion(step.reviewer, q.ID)
		if err != nil {
			t.Fatalf("approve as %s: %v", step.reviewer.Role, err)
		}
		if got.Status != step.want {
			t.Fatalf("status = %s, want %s", got.Status, step.want)
		}
	}

	history, err := svc.QuestionFeedbackHistory(q.ID)
	if err != nil {
		t.Fatalf("feedback history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("got %d feedback records, want 3", len(history))
	}
	for _, fb := range history {
		if fb.Decision != model.DecisionApproved {
			t.Errorf("decision = %s, want APPROVED", fb.Decision)
		}
	}
}

func TestApproveQuestionWrongRoleLeavesStateUntouched(t *testing.T) {
	tx := testutil.Tx(t)
	svc := newApprovalService(tx)
	q := seedQuestion(t, tx, model.StatusCreatedByCC)

	_, err := svc.ApproveQuestion(reviewer(2, model.ModuleCoordinator), q.ID)
	if !errors.Is(err, util.ErrInvalidTransition) {
		t.Fatalf("want ErrInvalidTransition, got %v", err)
	}

	var current model.Question
	if err := tx.First(&current, q.ID).Error; err != nil {
		t.Fatalf("reload question: %v", err)
	}
	if current.Status != model.StatusCreatedByCC {
		t.Errorf("status = %s, want unchanged CREATED_BY_COURSE_COORDINATOR", current.Status)
	}

	history, err := svc.QuestionFeedbackHistory(q.ID)
	if err != nil {
		t.Fatalf("feedback history: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("denied approval must not leave feedback, got %d records", len(history))
	}
}

func TestRejectQuestionRemarksTooShort(t *testing.T) {
	tx := testutil.Tx(t)
	svc := newApprovalService(tx)
	q := seedQuestion(t, tx, model.StatusCreatedByCC)

	_, err := svc.RejectQuestion(reviewer(1, model.CourseCoordinator), q.ID, "  too bad  ")
	if !errors.Is(err, util.ErrRemarksTooShort) {
		t.Fatalf("want ErrRemarksTooShort, got %v", err)
	}

	var current model.Question
	if err := tx.First(&current, q.ID).Error; err != nil {
		t.Fatalf("reload question: %v", err)
	}
	if current.Status != model.StatusCreatedByCC {
		t.Errorf("status = %s, want unchanged", current.Status)
	}
}

func TestRejectQuestionRecordsRemarks(t *testing.T) {
	tx := testutil.Tx(t)
	svc := newApprovalService(tx)
	q := seedQuestion(t, tx, model.StatusUnderReviewMC)

	remarks := "Question stem is ambiguous, rewrite with a concrete schedule example."
	got, err := svc.RejectQuestion(reviewer(2, model.ModuleCoordinator), q.ID, remarks)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if got.Status != model.StatusRejected {
		t.Fatalf("status = %s, want REJECTED", got.Status)
	}

	history, err := svc.QuestionFeedbackHistory(q.ID)
	if err != nil {
		t.Fatalf("feedback history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("got %d feedback records, want 1", len(history))
	}
	if history[0].Decision != model.DecisionRejected || history[0].Remarks != remarks {
		t.Errorf("feedback = (%s, %q), want rejection with remarks", history[0].Decision, history[0].Remarks)
	}

	// 终态后任何角色都无法再推进
	if _, err := svc.ApproveQuestion(reviewer(1, model.CourseCoordinator), q.ID); !errors.Is(err, util.ErrInvalidTransition) {
		t.Errorf("approve after reject = %v, want ErrInvalidTransition", err)
	}
}

func TestBulkApproveQuestionsCounts(t *testing.T) {
	tx := testutil.Tx(t)
	svc := newApprovalService(tx)

	ready1 := seedQuestion(t, tx, model.StatusCreatedByCC)
	ready2 := seedQuestion(t, tx, model.StatusCreatedByCC)
	blocked := seedQuestion(t, tx, model.StatusUnderReviewMC)

	result, err := svc.BulkApproveQuestions(
		reviewer(1, model.CourseCoordinator),
		[]uint{ready1.ID, blocked.ID, ready2.ID, 999999},
	)
	if err != nil {
		t.Fatalf("bulk approve: %v", err)
	}
	if result.ApprovedCount != 2 {
		t.Errorf("approved = %d, want 2", result.ApprovedCount)
	}
	if result.SkippedCount != 2 {
		t.Errorf("skipped = %d, want 2", result.SkippedCount)
	}

	var unchanged model.Question
	if err := tx.First(&unchanged, blocked.ID).Error; err != nil {
		t.Fatalf("reload blocked question: %v", err)
	}
	if unchanged.Status != model.StatusUnderReviewMC {
		t.Errorf("skipped question status = %s, want untouched", unchanged.Status)
	}
}

func TestApprovePatternGateOrder(t *testing.T) {
	tx := testutil.Tx(t)
	svc := newApprovalService(tx)
	p := seedPattern(t, tx)

	// 乱序审批直接拒绝
	if _, err := svc.ApprovePattern(reviewer(4, model.ControllerOfExams), p.ID); !errors.Is(err, util.ErrInvalidTransition) {
		t.Fatalf("coe before mc = %v, want ErrInvalidTransition", err)
	}

	got, err := svc.ApprovePattern(reviewer(2, model.ModuleCoordinator), p.ID)
	if err != nil {
		t.Fatalf("mc gate: %v", err)
	}
	if !got.MCApproved || got.Status != model.PatternPending {
		t.Fatalf("after mc gate: approved=%v status=%s, want pending with mc passed", got.MCApproved, got.Status)
	}

	// 同一道闸不能过两次
	if _, err := svc.ApprovePattern(reviewer(2, model.ModuleCoordinator), p.ID); !errors.Is(err, util.ErrInvalidTransition) {
		t.Fatalf("second mc approval = %v, want ErrInvalidTransition", err)
	}

	if _, err := svc.ApprovePattern(reviewer(3, model.ProgramCoordinator), p.ID); err != nil {
		t.Fatalf("pc gate: %v", err)
	}

	final, err := svc.ApprovePattern(reviewer(4, model.ControllerOfExams), p.ID)
	if err != nil {
		t.Fatalf("coe gate: %v", err)
	}
	if final.Status != model.PatternApproved || !final.COEApproved {
		t.Fatalf("final status = %s coe=%v, want APPROVED", final.Status, final.COEApproved)
	}

	history, err := svc.PatternFeedbackHistory(p.ID)
	if err != nil {
		t.Fatalf("feedback history: %v", err)
	}
	if len(history) != 3 {
		t.Errorf("got %d feedback records, want 3", len(history))
	}
}

func TestRejectPatternByCurrentGate(t *testing.T) {
	tx := testutil.Tx(t)
	svc := newApprovalService(tx)
	p := seedPattern(t, tx)

	if _, err := svc.ApprovePattern(reviewer(2, model.ModuleCoordinator), p.ID); err != nil {
		t.Fatalf("mc gate: %v", err)
	}

	// 当前待审的是 pc 闸，mc 已无驳回权
	if _, err := svc.RejectPattern(reviewer(2, model.ModuleCoordinator), p.ID, "structure needs a rework"); !errors.Is(err, util.ErrInvalidTransition) {
		t.Fatalf("mc reject after own gate = %v, want ErrInvalidTransition", err)
	}

	got, err := svc.RejectPattern(reviewer(3, model.ProgramCoordinator), p.ID, "Part B marks do not add up to the total.")
	if err != nil {
		t.Fatalf("pc reject: %v", err)
	}
	if got.Status != model.PatternRejected {
		t.Fatalf("status = %s, want REJECTED", got.Status)
	}

	if _, err := svc.ApprovePattern(reviewer(3, model.ProgramCoordinator), p.ID); !errors.Is(err, util.ErrInvalidTransition) {
		t.Errorf("approve after reject = %v, want ErrInvalidTransition", err)
	}
}
