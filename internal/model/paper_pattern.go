package model

import "encoding/json"

type PatternStatus string

const (
	PatternPending  PatternStatus = "PENDING_APPROVAL"
	PatternApproved PatternStatus = "APPROVED"
	PatternRejected PatternStatus = "REJECTED"
)

func (s PatternStatus) Terminal() bool {
	return s == PatternApproved || s == PatternRejected
}

// PatternGate identifies one of the three sequential approval gates.
type PatternGate string

const (
	GateMC  PatternGate = "mc"
	GatePC  PatternGate = "pc"
	GateCOE PatternGate = "coe"
)

// PatternPart 试卷结构中的一个部分，序列化后存入 Structure 字段
type PatternPart struct {
	Name           string       `json:"name"`
	QuestionType   QuestionType `json:"questionType"`
	Count          int          `json:"count"`
	MarksEach      int          `json:"marksEach"`
	Choice         bool         `json:"choice"`
	CourseOutcomes []string     `json:"courseOutcomes,omitempty"`
}

// PaperPattern 试卷模板，需依次通过模块协调员、项目协调员、考试主管三道审批
// swagger:model PaperPattern
type PaperPattern struct {
	BaseModel
	CourseID        uint            `gorm:"type:bigint unsigned;index;not null" json:"courseId"`
	Name            string          `gorm:"size:150;not null" json:"name"`
	ExamType        string          `gorm:"size:50" json:"examType"`
	TotalMarks      int             `json:"totalMarks"`
	DurationMinutes int             `json:"durationMinutes"`
	Instructions    string          `gorm:"size:2000" json:"instructions"`
	Structure       json.RawMessage `gorm:"type:json" json:"structure"`
	Status          PatternStatus   `gorm:"size:30;default:PENDING_APPROVAL;index" json:"status"`
	MCApproved      bool            `gorm:"default:false" json:"mcApproved"`
	PCApproved      bool            `gorm:"default:false" json:"pcApproved"`
	COEApproved     bool            `gorm:"default:false" json:"coeApproved"`
	CreatedByID     uint            `gorm:"type:bigint unsigned" json:"createdById"`

	Course *Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}

func (PaperPattern) TableName() string {
	return "paper_patterns"
}

// Parts decodes the stored structure. Invalid JSON yields an empty slice.
func (p *PaperPattern) Parts() []PatternPart {
	if len(p.Structure) == 0 {
		return nil
	}
	var parts []PatternPart
	if err := json.Unmarshal(p.Structure, &parts); err != nil {
		return nil
	}
	return parts
}
