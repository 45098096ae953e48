package model

import (
	"time"

	"gorm.io/gorm"
)

// Submission statuses
const (
	SubmissionSubmitted = "submitted"
	SubmissionGraded    = "graded"
)

// Assignment belongs to one course.
type Assignment struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	CourseID    uint           `gorm:"not null;index" json:"course_id"`
	Title       string         `gorm:"not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	DueDate     time.Time      `json:"due_date"`
	Points      int            `gorm:"default:100" json:"points"`

	Course      Course       `gorm:"foreignKey:CourseID" json:"-"`
	Submissions []Submission `gorm:"foreignKey:AssignmentID;constraint:OnDelete:CASCADE" json:"-"`
}

// Submission is a student's answer to an assignment. Grade and feedback are
// set only by the owning course's instructor.
type Submission struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time  `json:"submitted_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	AssignmentID uint       `gorm:"not null;index" json:"assignment_id"`
	StudentID    uint       `gorm:"not null;index" json:"student_id"`
	Content      string     `gorm:"type:text" json:"content"`
	Status       string     `gorm:"type:varchar(20);not null;default:'submitted'" json:"status"`
	Grade        *int       `json:"grade,omitempty"`
	Feedback     string     `gorm:"type:text" json:"feedback,omitempty"`
	GradedAt     *time.Time `json:"graded_at,omitempty"`

	Assignment Assignment `gorm:"foreignKey:AssignmentID" json:"assignment,omitempty"`
	Student    User       `gorm:"foreignKey:StudentID" json:"student,omitempty"`
}
