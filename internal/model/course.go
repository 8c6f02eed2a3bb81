package model

// Course represents a taught subject that materials, questions and paper
// patterns are bound to.
// swagger:model Course
type Course struct {
	BaseModel
	Code     string `gorm:"size:20;unique;not null" json:"code"`
	Name     string `gorm:"size:150;not null" json:"name"`
	Program  string `gorm:"size:100" json:"program"`
	Semester int    `gorm:"default:1" json:"semester"`
	Units    int    `gorm:"default:5" json:"units"`
}

func (Course) TableName() string {
	return "courses"
}
