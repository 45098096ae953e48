package model

import (
	"time"
)

// Cron job statuses
const (
	CronJobRunning   = "running"
	CronJobCompleted = "completed"
	CronJobFailed    = "failed"
)

// CronJobLog records a scheduled job execution for observability.
type CronJobLog struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	JobName     string     `gorm:"type:varchar(100);not null;index" json:"job_name"`
	Status      string     `gorm:"type:varchar(20);not null" json:"status"`
	Message     string     `gorm:"type:text" json:"message"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
