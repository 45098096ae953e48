package services

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/classdeck/classdeck/config"
)

// EmailService handles sending emails via SMTP
type EmailService struct {
	host     string
	port     int
	username string
	password string
	from     string
	appURL   string
}

// NewEmailService creates a new email service instance
func NewEmailService(env *config.EnvironmentVariable) *EmailService {
	from := env.SMTP_FROM
	if from == "" {
		from = "noreply@classdeck.app"
	}
	host := env.SMTP_HOST
	if host == "" {
		host = "smtp.gmail.com"
	}

	return &EmailService{
		host:     host,
		port:     env.SMTP_PORT,
		username: env.SMTP_USERNAME,
		password: env.SMTP_PASSWORD,
		from:     from,
		appURL:   env.APP_URL,
	}
}

// IsConfigured checks if SMTP is properly configured
func (e *EmailService) IsConfigured() bool {
	return e.username != "" && e.password != ""
}

// SendInvitationEmail mails the student a link for responding to a course
// invitation. The token in the link is the sole credential for that step.
func (e *EmailService) SendInvitationEmail(to, studentName, courseName, token string) error {
	inviteLink := fmt.Sprintf("%s/invitations/accept?token=%s", e.appURL, token)

	subject := fmt.Sprintf("Invitation to join course: %s", courseName)
	body := e.buildInvitationEmailBody(studentName, courseName, inviteLink)

	return e.sendEmail(to, subject, body)
}

// SendInvitationReminderEmail nudges a student about an invitation that has
// been pending for a while.
func (e *EmailService) SendInvitationReminderEmail(to, studentName, courseName, token string) error {
	inviteLink := fmt.Sprintf("%s/invitations/accept?token=%s", e.appURL, token)

	subject := fmt.Sprintf("Reminder: invitation to join course: %s", courseName)
	body := e.buildInvitationEmailBody(studentName, courseName, inviteLink)

	return e.sendEmail(to, subject, body)
}

func (e *EmailService) buildInvitationEmailBody(studentName, courseName, inviteLink string) string {
	if studentName == "" {
		studentName = "Student"
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Course Invitation - Classdeck</title>
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <div style="background-color: #ffffff; border-radius: 8px; padding: 40px; border: 1px solid #e2e8f0;">
        <h2 style="color: #4338ca; margin-top: 0;">You're invited to %s</h2>
        <p>Hi %s,</p>
        <p>You have been invited to enroll in <strong>%s</strong> on Classdeck.</p>
        <p style="text-align: center; margin: 30px 0;">
            <a href="%s" style="display: inline-block; background-color: #4338ca; color: #ffffff; padding: 14px 28px; border-radius: 6px; text-decoration: none;">Respond to invitation</a>
        </p>
        <p style="color: #666; font-size: 13px;">If the button does not work, copy this link into your browser:<br>%s</p>
        <p style="color: #666; font-size: 13px;">If you were not expecting this invitation you can ignore this email.</p>
    </div>
</body>
</html>`, courseName, studentName, courseName, inviteLink, inviteLink)
}

// sendEmail delivers a single HTML email via SMTP with STARTTLS
func (e *EmailService) sendEmail(to, subject, body string) error {
	if !e.IsConfigured() {
		log.Printf("SMTP not configured. Dropping email to %s (%s)", to, subject)
		return fmt.Errorf("SMTP not configured")
	}

	addr := fmt.Sprintf("%s:%d", e.host, e.port)
	auth := smtp.PlainAuth("", e.username, e.password, e.host)

	headers := []string{
		fmt.Sprintf("From: %s", e.from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=\"UTF-8\"",
	}
	msg := strings.Join(headers, "\r\n") + "\r\n\r\n" + body

	if err := smtp.SendMail(addr, auth, e.from, []string{to}, []byte(msg)); err != nil {
		log.Printf("Failed to send email to %s: %v", to, err)
		return err
	}

	log.Printf("Email sent to %s: %s", to, subject)
	return nil
}
