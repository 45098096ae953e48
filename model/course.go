package model

import (
	"time"

	"gorm.io/gorm"
)

// Course is owned by exactly one instructor. The short join code is generated
// at creation and is distinct from the internal identifier; students use it to
// request enrollment.
type Course struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Name         string         `gorm:"not null" json:"name"`
	Code         string         `gorm:"uniqueIndex;not null" json:"code"` // e.g., "IBX-7F2AK3Q"
	InstructorID uint           `gorm:"not null;index" json:"instructor_id"`

	// Relationships
	Instructor  User             `gorm:"foreignKey:InstructorID" json:"instructor,omitempty"`
	Enrollments []Enrollment     `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
	Assignments []Assignment     `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"assignments,omitempty"`
	Resources   []CourseResource `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"resources,omitempty"`
}

// Course resource types
const (
	ResourceSyllabus = "syllabus"
	ResourceVideo    = "video"
)

// CourseResource is supplementary material attached to a course.
type CourseResource struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	CourseID    uint           `gorm:"not null;index" json:"course_id"`
	Type        string         `gorm:"type:varchar(20);not null" json:"type"` // syllabus, video
	Title       string         `gorm:"not null" json:"title"`
	URL         string         `gorm:"type:text" json:"url"`
	Description string         `gorm:"type:text" json:"description"`

	Course Course `gorm:"foreignKey:CourseID" json:"-"`
}
