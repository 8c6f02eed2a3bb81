package model

type ArtifactType string

const (
	ArtifactQuestion     ArtifactType = "QUESTION"
	ArtifactPaperPattern ArtifactType = "PAPER_PATTERN"
)

const (
	DecisionApproved = "APPROVED"
	DecisionRejected = "REJECTED"
)

// 驳回备注的最小长度
const MinRemarksLen = 10

// QuestionFeedback is the append-only audit trail for both artifact kinds.
// Every rejection writes one entry; approvals write one with empty remarks.
// swagger:model QuestionFeedback
type QuestionFeedback struct {
	BaseModel
	ArtifactType ArtifactType `gorm:"size:20;index:idx_artifact;not null" json:"artifactType"`
	ArtifactID   uint         `gorm:"index:idx_artifact;type:bigint unsigned;not null" json:"artifactId"`
	ReviewerID   uint         `gorm:"type:bigint unsigned" json:"reviewerId"`
	ReviewerRole UserRole     `gorm:"size:30" json:"reviewerRole"`
	Decision     string       `gorm:"size:10" json:"decision"`
	Remarks      string       `gorm:"size:1000" json:"remarks"`
}

func (QuestionFeedback) TableName() string {
	return "question_feedbacks"
}
