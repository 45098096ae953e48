package model

import (
	"time"

	"gorm.io/gorm"
)

// User roles. Role is an application-level fact; the data layer does not
// enforce it.
const (
	RoleInstructor = "instructor"
	RoleStudent    = "student"
)

// User represents a registered user in the system
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	Username     string         `gorm:"not null" json:"username"`
	PasswordHash string         `gorm:"not null" json:"-"` // Never expose password in JSON
	Role         string         `gorm:"type:varchar(20);default:'student'" json:"role"`
	Major        string         `gorm:"type:varchar(150)" json:"major"`
	PhoneNumber  string         `gorm:"type:varchar(50)" json:"phone_number"`
	College      string         `gorm:"type:varchar(200)" json:"college"`

	// Relationships
	Courses     []Course     `gorm:"foreignKey:InstructorID;constraint:OnDelete:CASCADE" json:"-"`
	Enrollments []Enrollment `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
	Submissions []Submission `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
	ChatLogs    []ChatLog    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsInstructor reports whether the user holds the instructor role.
func (u *User) IsInstructor() bool {
	return u.Role == RoleInstructor
}
