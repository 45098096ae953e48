package cron

import (
	"fmt"
	"time"

	"github.com/classdeck/classdeck/model"
)

const (
	// Invitations pending this long get one reminder email.
	reminderAge = 7 * 24 * time.Hour

	// Job log rows older than this are pruned.
	jobLogRetention = 30 * 24 * time.Hour
)

// RemindPendingInvitations emails students whose invitations have been
// pending for at least reminderAge and have not been reminded yet.
func (m *CronManager) RemindPendingInvitations() (string, error) {
	if !m.mailer.IsConfigured() {
		return "SMTP not configured, skipped", nil
	}

	cutoff := time.Now().Add(-reminderAge)

	var invitations []model.Invitation
	err := m.db.Where("status = ? AND sent_at < ? AND reminded_at IS NULL", model.InvitationPending, cutoff).
		Preload("Course").
		Preload("Student").
		Limit(100).
		Find(&invitations).Error
	if err != nil {
		return "", err
	}

	reminded := 0
	for _, inv := range invitations {
		err := m.mailer.SendInvitationReminderEmail(inv.Student.Email, inv.Student.Username, inv.Course.Name, inv.Token)
		if err != nil {
			// Keep going; the next run retries anything not marked.
			continue
		}
		now := time.Now()
		if err := m.db.Model(&model.Invitation{}).Where("id = ?", inv.ID).Update("reminded_at", &now).Error; err != nil {
			return "", err
		}
		reminded++
	}

	return fmt.Sprintf("reminded %d of %d pending invitations", reminded, len(invitations)), nil
}

// CleanupJobLogs prunes cron job log rows past the retention window.
func (m *CronManager) CleanupJobLogs() (string, error) {
	cutoff := time.Now().Add(-jobLogRetention)

	result := m.db.Where("started_at < ?", cutoff).Delete(&model.CronJobLog{})
	if result.Error != nil {
		return "", result.Error
	}

	return fmt.Sprintf("deleted %d job log rows", result.RowsAffected), nil
}
