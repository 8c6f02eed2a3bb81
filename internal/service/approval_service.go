package service

import (
	"errors"
	"strings"

	"qpgen_backend/internal/model"
	"qpgen_backend/internal/repository"
	"qpgen_backend/internal/util"

	"gorm.io/gorm"
)

// 试题审批链：每个非终态只有一个有权操作的角色，
// 通过与驳回都必须由该角色执行
type chainStep struct {
	authority model.UserRole
	next      model.QuestionStatus
}

var questionChain = map[model.QuestionStatus]chainStep{
	model.StatusCreatedByCC:   {authority: model.CourseCoordinator, next: model.StatusUnderReviewMC},
	model.StatusUnderReviewMC: {authority: model.ModuleCoordinator, next: model.StatusUnderReviewPC},
	model.StatusUnderReviewPC: {authority: model.ProgramCoordinator, next: model.StatusAccepted},
}

// nextQuestionStatus 推算通过后的下一个状态，角色不匹配或已是终态时拒绝
func nextQuestionStatus(current model.QuestionStatus, role model.UserRole) (model.QuestionStatus, error) {
	step, ok := questionChain[current]
	if !ok {
		return "", util.ErrInvalidTransition
	}
	if role != step.authority {
		return "", util.ErrInvalidTransition
	}
	return step.next, nil
}

// questionRejectAllowed 判断该角色能否驳回处于 current 状态的试题
func questionRejectAllowed(current model.QuestionStatus, role model.UserRole) bool {
	step, ok := questionChain[current]
	return ok && role == step.authority
}

var patternGateAuthority = map[model.PatternGate]model.UserRole{
	model.GateMC:  model.ModuleCoordinator,
	model.GatePC:  model.ProgramCoordinator,
	model.GateCOE: model.ControllerOfExams,
}

// nextPatternGate 返回该角色当前可以通过的闸口。
// 三道闸必须按 mc、pc、coe 顺序通过，乱序视为非法迁移
func nextPatternGate(p *model.PaperPattern, role model.UserRole) (model.PatternGate, error) {
	if p.Status != model.PatternPending {
		return "", util.ErrInvalidTransition
	}
	switch {
	case !p.MCApproved:
		if role != model.ModuleCoordinator {
			return "", util.ErrInvalidTransition
		}
		return model.GateMC, nil
	case !p.PCApproved:
		if role != model.ProgramCoordinator {
			return "", util.ErrInvalidTransition
		}
		return model.GatePC, nil
	case !p.COEApproved:
		if role != model.ControllerOfExams {
			return "", util.ErrInvalidTransition
		}
		return model.GateCOE, nil
	}
	return "", util.ErrInvalidTransition
}

// ApprovalService 审批状态机。所有状态迁移都在事务里用条件更新完成，
// 并发审批同一条记录时只有一个能成功，其余拿到 ErrInvalidTransition
type ApprovalService struct {
	DB           *gorm.DB
	QuestionRepo *repository.QuestionRepository
	PatternRepo  *repository.PaperPatternRepository
	FeedbackRepo *repository.FeedbackRepository
}

func NewApprovalService(
	db *gorm.DB,
	questionRepo *repository.QuestionRepository,
	patternRepo *repository.PaperPatternRepository,
	feedbackRepo *repository.FeedbackRepository,
) *ApprovalService {
	return &ApprovalService{
		DB:           db,
		QuestionRepo: questionRepo,
		PatternRepo:  patternRepo,
		FeedbackRepo: feedbackRepo,
	}
}

// ApproveQuestion 推进一道试题到下一个审批状态
func (s *ApprovalService) ApproveQuestion(reviewer *model.User, questionID uint) (*model.Question, error) {
	var question model.Question
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&question, questionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrQuestionNotFound
			}
			return err
		}

		next, err := nextQuestionStatus(question.Status, reviewer.Role)
		if err != nil {
			return err
		}

		res := tx.Model(&model.Question{}).
			Where("id = ? AND status = ?", questionID, question.Status).
			Update("status", next)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return util.ErrInvalidTransition
		}

		question.Status = next
		return tx.Create(&model.QuestionFeedback{
			ArtifactType: model.ArtifactQuestion,
			ArtifactID:   questionID,
			ReviewerID:   reviewer.ID,
			ReviewerRole: reviewer.Role,
			Decision:     model.DecisionApproved,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &question, nil
}

// RejectQuestion 驳回试题并记录备注，备注不足十个字符直接拒绝
func (s *ApprovalService) RejectQuestion(reviewer *model.User, questionID uint, remarks string) (*model.Question, error) {
	remarks = strings.TrimSpace(remarks)
	if len(remarks) < model.MinRemarksLen {
		return nil, util.ErrRemarksTooShort
	}

	var question model.Question
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&question, questionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrQuestionNotFound
			}
			return err
		}

		if !questionRejectAllowed(question.Status, reviewer.Role) {
			return util.ErrInvalidTransition
		}

		res := tx.Model(&model.Question{}).
			Where("id = ? AND status = ?", questionID, question.Status).
			Update("status", model.StatusRejected)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return util.ErrInvalidTransition
		}

		question.Status = model.StatusRejected
		return tx.Create(&model.QuestionFeedback{
			ArtifactType: model.ArtifactQuestion,
			ArtifactID:   questionID,
			ReviewerID:   reviewer.ID,
			ReviewerRole: reviewer.Role,
			Decision:     model.DecisionRejected,
			Remarks:      remarks,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &question, nil
}

type BulkApproveResult struct {
	ApprovedCount int `json:"approvedCount"`
	SkippedCount  int `json:"skippedCount"`
}

// BulkApproveQuestions 逐条推进，角色不符或记录不存在的条目跳过不中断，
// 其它错误立即终止并返回已完成的计数
func (s *ApprovalService) BulkApproveQuestions(reviewer *model.User, questionIDs []uint) (BulkApproveResult, error) {
	var result BulkApproveResult
	for _, id := range questionIDs {
		_, err := s.ApproveQuestion(reviewer, id)
		if err != nil {
			if errors.Is(err, util.ErrInvalidTransition) || errors.Is(err, util.ErrQuestionNotFound) {
				result.SkippedCount++
				continue
			}
			return result, err
		}
		result.ApprovedCount++
	}
	return result, nil
}

// ApprovePattern 给试卷模板过一道闸，最后一道闸通过时整体置为 APPROVED
func (s *ApprovalService) ApprovePattern(reviewer *model.User, patternID uint) (*model.PaperPattern, error) {
	var pattern model.PaperPattern
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&pattern, patternID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrPatternNotFound
			}
			return err
		}

		gate, err := nextPatternGate(&pattern, reviewer.Role)
		if err != nil {
			return err
		}

		var res *gorm.DB
		switch gate {
		case model.GateMC:
			res = tx.Model(&model.PaperPattern{}).
				Where("id = ? AND status = ? AND mc_approved = ?", patternID, model.PatternPending, false).
				Update("mc_approved", true)
			pattern.MCApproved = true
		case model.GatePC:
			res = tx.Model(&model.PaperPattern{}).
				Where("id = ? AND status = ? AND mc_approved = ? AND pc_approved = ?",
					patternID, model.PatternPending, true, false).
				Update("pc_approved", true)
			pattern.PCApproved = true
		case model.GateCOE:
			res = tx.Model(&model.PaperPattern{}).
				Where("id = ? AND status = ? AND mc_approved = ? AND pc_approved = ? AND coe_approved = ?",
					patternID, model.PatternPending, true, true, false).
				Updates(map[string]interface{}{
					"coe_approved": true,
					"status":       model.PatternApproved,
				})
			pattern.COEApproved = true
			pattern.Status = model.PatternApproved
		}
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return util.ErrInvalidTransition
		}

		return tx.Create(&model.QuestionFeedback{
			ArtifactType: model.ArtifactPaperPattern,
			ArtifactID:   patternID,
			ReviewerID:   reviewer.ID,
			ReviewerRole: reviewer.Role,
			Decision:     model.DecisionApproved,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &pattern, nil
}

// RejectPattern 驳回试卷模板，只有当前待审闸口的角色可以驳回
func (s *ApprovalService) RejectPattern(reviewer *model.User, patternID uint, remarks string) (*model.PaperPattern, error) {
	remarks = strings.TrimSpace(remarks)
	if len(remarks) < model.MinRemarksLen {
		return nil, util.ErrRemarksTooShort
	}

	var pattern model.PaperPattern
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&pattern, patternID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrPatternNotFound
			}
			return err
		}

		if _, err := nextPatternGate(&pattern, reviewer.Role); err != nil {
			return err
		}

		res := tx.Model(&model.PaperPattern{}).
			Where("id = ? AND status = ? AND mc_approved = ? AND pc_approved = ? AND coe_approved = ?",
				patternID, model.PatternPending,
				pattern.MCApproved, pattern.PCApproved, pattern.COEApproved).
			Update("status", model.PatternRejected)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return util.ErrInvalidTransition
		}

		pattern.Status = model.PatternRejected
		return tx.Create(&model.QuestionFeedback{
			ArtifactType: model.ArtifactPaperPattern,
			ArtifactID:   patternID,
			ReviewerID:   reviewer.ID,
			ReviewerRole: reviewer.Role,
			Decision:     model.DecisionRejected,
			Remarks:      remarks,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &pattern, nil
}

func (s *ApprovalService) QuestionFeedbackHistory(questionID uint) ([]model.QuestionFeedback, error) {
	if _, err := s.QuestionRepo.FindByID(questionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}
	return s.FeedbackRepo.ListByArtifact(model.ArtifactQuestion, questionID)
}

func (s *ApprovalService) PatternFeedbackHistory(patternID uint) ([]model.QuestionFeedback, error) {
	if _, err := s.PatternRepo.FindByID(patternID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrPatternNotFound
		}
		return nil, err
	}
	return s.FeedbackRepo.ListByArtifact(model.ArtifactPaperPattern, patternID)
}
