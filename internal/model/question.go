package model

// QuestionStatus 试题审批链状态，只能由审批状态机推进
type QuestionStatus string

const (
	StatusCreatedByCC   QuestionStatus = "CREATED_BY_COURSE_COORDINATOR"
	StatusUnderReviewMC QuestionStatus = "UNDER_REVIEW_FROM_MODULE_COORDINATOR"
	StatusUnderReviewPC QuestionStatus = "UNDER_REVIEW_FROM_PROGRAM_COORDINATOR"
	StatusAccepted      QuestionStatus = "ACCEPTED"
	StatusRejected      QuestionStatus = "REJECTED"
)

func AllQuestionStatuses() []QuestionStatus {
	return []QuestionStatus{StatusCreatedByCC, StatusUnderReviewMC, StatusUnderReviewPC, StatusAccepted, StatusRejected}
}

// Terminal reports whether no further transition is possible.
func (s QuestionStatus) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// Question 生成或手工录入的试题。状态字段只经审批服务的校验写入，
// 带反馈历史的试题不做物理删除。
// swagger:model Question
type Question struct {
	BaseModel
	CourseID        uint           `gorm:"index;type:bigint unsigned" json:"courseId"`
	Unit            int            `gorm:"index;default:1" json:"unit"`
	MaterialID      uint           `gorm:"type:bigint unsigned;default:0" json:"materialId,omitempty"` // 0 = 手工录入
	SectionID       uint           `gorm:"type:bigint unsigned;default:0" json:"sectionId,omitempty"`
	GenerationJobID string         `gorm:"size:36;index" json:"generationJobId,omitempty"`
	Text            string         `gorm:"type:text;not null" json:"text"`
	Answer          string         `gorm:"type:text" json:"answer"`
	Difficulty      Difficulty     `gorm:"size:10;not null" json:"difficulty"`
	BloomLevel      BloomLevel     `gorm:"size:12;not null" json:"bloomLevel"`
	QuestionType    QuestionType   `gorm:"size:20;not null" json:"questionType"`
	Marks           int            `gorm:"default:2" json:"marks"`
	Status          QuestionStatus `gorm:"size:40;index;default:'CREATED_BY_COURSE_COORDINATOR'" json:"status"`
	IsFallback      bool           `gorm:"default:false" json:"isFallback"`
	CreatedByID     uint           `gorm:"type:bigint unsigned" json:"createdById"`
}

func (Question) TableName() string {
	return "questions"
}
