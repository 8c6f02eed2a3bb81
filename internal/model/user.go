package model

import (
	"time"
)

type UserRole string

const (
	CourseCoordinator  UserRole = "course_coordinator"
	ModuleCoordinator  UserRole = "module_coordinator"
	ProgramCoordinator UserRole = "program_coordinator"
	ControllerOfExams  UserRole = "coe"
	Admin              UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Name       string    `gorm:"size:100;not null" json:"name"`
	Email      string    `gorm:"size:100;unique;not null" json:"email"`
	Password   string    `gorm:"size:100;not null" json:"-"`
	Role       UserRole  `gorm:"type:enum('course_coordinator','module_coordinator','program_coordinator','coe','admin');default:'course_coordinator'" json:"role"`
	Department string    `gorm:"size:100" json:"department"`
	Disabled   bool      `gorm:"default:false" json:"disabled"`
	LastLogin  time.Time `gorm:"default:CURRENT_TIMESTAMP(3)" json:"lastLogin"`
}

func (User) TableName() string {
	return "users"
}
