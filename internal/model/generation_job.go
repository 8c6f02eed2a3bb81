package model

import (
	"encoding/json"
	"time"
)

type JobStatus string

const (
	JobQueued     JobStatus = "QUEUED"
	JobProcessing JobStatus = "PROCESSING"
	JobCompleted  JobStatus = "COMPLETED"
	JobFailed     JobStatus = "FAILED"
)

// JobStage 仅用于进度上报，在单个任务内单调前进
type JobStage string

const (
	StageParsing    JobStage = "PARSING"
	StagePlanning   JobStage = "PLANNING"
	StageGenerating JobStage = "GENERATING"
	StagePersisting JobStage = "PERSISTING"
)

// QuotaConfig partitions one requested total three independent ways. The
// three axis sums must agree; ValidateQuota in the service layer enforces it.
// swagger:model QuotaConfig
type QuotaConfig struct {
	Difficulty   map[Difficulty]int   `json:"difficulty"`
	BloomLevel   map[BloomLevel]int   `json:"bloomLevel"`
	QuestionType map[QuestionType]int `json:"questionType"`
}

// Total 以难度轴为准的请求总数
func (q QuotaConfig) Total() int {
	total := 0
	for _, n := range q.Difficulty {
		total += n
	}
	return total
}

// GenerationJob is mutated only by the job orchestrator. Status is terminal
// once COMPLETED or FAILED; Progress never decreases.
// swagger:model GenerationJob
type GenerationJob struct {
	UUIDBase
	MaterialID     uint            `gorm:"index;type:bigint unsigned" json:"materialId"`
	CourseID       uint            `gorm:"index;type:bigint unsigned" json:"courseId"`
	Unit           int             `gorm:"default:1" json:"unit"`
	Quota          json.RawMessage `gorm:"type:json" json:"quota"` // JSON: QuotaConfig
	Status         JobStatus       `gorm:"size:20;index;default:'QUEUED'" json:"status"`
	Stage          JobStage        `gorm:"size:20" json:"stage"`
	Progress       int             `gorm:"default:0" json:"progress"`
	RequestedTotal int             `gorm:"default:0" json:"requestedTotal"`
	GeneratedCount int             `gorm:"default:0" json:"generatedCount"`
	FallbackCount  int             `gorm:"default:0" json:"fallbackCount"`
	Warning        string          `gorm:"size:512" json:"warning,omitempty"`
	ErrorMessage   string          `gorm:"size:512" json:"errorMessage,omitempty"`
	CreatedByID    uint            `gorm:"type:bigint unsigned" json:"createdById"`
	StartedAt      *time.Time      `json:"startedAt,omitempty"`
	FinishedAt     *time.Time      `json:"finishedAt,omitempty"`
}

func (GenerationJob) TableName() string {
	return "generation_jobs"
}

// Terminal reports whether the job reached a final state.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}
