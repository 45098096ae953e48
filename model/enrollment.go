package model

import (
	"time"
)

// Join request statuses
const (
	JoinRequestPending  = "pending"
	JoinRequestAccepted = "accepted"
	JoinRequestRejected = "rejected"
)

// Invitation statuses
const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationDeclined = "declined"
)

// Enrollment links a student to a course. The row carries both the internal
// course id and a snapshot of the join code: older call paths look courses up
// by code while newer ones use the id, so both keys stay queryable.
// At most one enrollment exists per (course, student) pair, backed by a unique
// index.
type Enrollment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time `json:"enrolled_at"`
	CourseID   uint      `gorm:"not null;uniqueIndex:idx_course_student" json:"course_id"`
	CourseCode string    `gorm:"not null;index" json:"course_code"`
	StudentID  uint      `gorm:"not null;uniqueIndex:idx_course_student" json:"student_id"`

	Course  Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	Student User   `gorm:"foreignKey:StudentID" json:"student,omitempty"`
}

// JoinRequest is a student's petition to enroll via a course code. At most one
// pending request may exist per (course, student); a prior rejection does not
// block a new request.
type JoinRequest struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	CourseID   uint      `gorm:"not null;index" json:"course_id"`
	CourseCode string    `gorm:"not null" json:"course_code"`
	StudentID  uint      `gorm:"not null;index" json:"student_id"`
	Status     string    `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`

	Course  Course `gorm:"foreignKey:CourseID" json:"-"`
	Student User   `gorm:"foreignKey:StudentID" json:"student,omitempty"`
}

// Invitation is an instructor-initiated enrollment offer. The single-use token
// is the sole credential a student presents when responding, so it must be
// unguessable. A response is accepted only while status is pending.
type Invitation struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	CourseID    uint       `gorm:"not null;index" json:"course_id"`
	StudentID   uint       `gorm:"not null;index" json:"student_id"`
	Token       string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	Status      string     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	SentAt      time.Time  `json:"sent_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
	RemindedAt  *time.Time `json:"-"`

	Course  Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	Student User   `gorm:"foreignKey:StudentID" json:"student,omitempty"`
}
