package cron

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/classdeck/classdeck/model"
	"github.com/classdeck/classdeck/services"
)

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron   *cron.Cron
	db     *gorm.DB
	mailer *services.EmailService
}

// NewCronManager creates a new cron manager
func NewCronManager(db *gorm.DB, mailer *services.EmailService) *CronManager {
	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds())

	return &CronManager{
		cron:   c,
		db:     db,
		mailer: mailer,
	}
}

// Start starts all cron jobs
func (m *CronManager) Start() error {
	log.Println("Starting cron jobs...")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()

	log.Println("Cron jobs started successfully")
	return nil
}

// Stop stops all cron jobs
func (m *CronManager) Stop() {
	log.Println("Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Println("Cron jobs stopped")
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	// Every hour: remind students about invitations pending for a week
	_, err := m.cron.AddFunc("0 0 * * * *", func() {
		m.runJob("remind_pending_invitations", m.RemindPendingInvitations)
	})
	if err != nil {
		return err
	}

	// Daily at 03:00: prune old cron job logs
	_, err = m.cron.AddFunc("0 0 3 * * *", func() {
		m.runJob("cleanup_job_logs", m.CleanupJobLogs)
	})
	if err != nil {
		return err
	}

	return nil
}

// runJob wraps a job with start/complete logging in the cron_job_logs table
func (m *CronManager) runJob(name string, job func() (string, error)) {
	entry := model.CronJobLog{
		JobName:   name,
		Status:    model.CronJobRunning,
		StartedAt: time.Now(),
	}
	if err := m.db.Create(&entry).Error; err != nil {
		log.Printf("cron: failed to log start of %s: %v", name, err)
	}

	message, err := job()
	now := time.Now()
	entry.CompletedAt = &now
	entry.Message = message
	entry.Status = model.CronJobCompleted
	if err != nil {
		entry.Status = model.CronJobFailed
		entry.Message = err.Error()
		log.Printf("cron: job %s failed: %v", name, err)
	}

	if entry.ID != 0 {
		if err := m.db.Save(&entry).Error; err != nil {
			log.Printf("cron: failed to log completion of %s: %v", name, err)
		}
	}
}
