package model

import (
	"encoding/json"
	"time"
)

// Material is an uploaded course document. Sections are parsed from it at
// most once; Parsed flips to true together with the section rows and later
// jobs reuse the cached sections.
// swagger:model Material
type Material struct {
	BaseModel
	CourseID     uint       `gorm:"index;type:bigint unsigned" json:"courseId"`
	Unit         int        `gorm:"default:1" json:"unit"`
	Title        string     `gorm:"size:255;not null" json:"title"`
	FileName     string     `gorm:"size:255" json:"fileName"` // 存储键
	FileURL      string     `gorm:"size:512" json:"fileUrl"`
	ContentType  string     `gorm:"size:100" json:"contentType"`
	Size         int64      `gorm:"default:0" json:"size"`
	Parsed       bool       `gorm:"default:false" json:"parsed"`
	ParsedAt     *time.Time `json:"parsedAt,omitempty"`
	SectionCount int        `gorm:"default:0" json:"sectionCount"`
	UploadedByID uint       `gorm:"type:bigint unsigned" json:"uploadedById"`
}

func (Material) TableName() string {
	return "materials"
}

// Section is one hierarchical slice of a parsed material, immutable once
// written. Ord preserves document order.
// swagger:model Section
type Section struct {
	BaseModel
	MaterialID uint            `gorm:"index;type:bigint unsigned" json:"materialId"`
	Ord        int             `gorm:"default:0" json:"ord"`
	Title      string          `gorm:"size:255" json:"title"`
	Level      int             `gorm:"default:1" json:"level"`
	Content    string          `gorm:"type:text" json:"content"`
	Topics     json.RawMessage `gorm:"type:json" json:"topics"`   // JSON: []string
	Concepts   json.RawMessage `gorm:"type:json" json:"concepts"` // JSON: []string
}

func (Section) TableName() string {
	return "sections"
}
