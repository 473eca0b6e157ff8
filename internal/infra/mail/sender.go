package mail

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"text/template"

	"gopkg.in/gomail.v2"

	"github.com/uslugar/lead-exchange/internal/infra/queue"
)

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

func NewEmailSender(host string, port int, user, password, from string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
	}
}

type notificationEmailData struct {
	Title   string
	Message string
	LeadID  string
}

// Deliver renders the notification template and ships it over SMTP. It is
// the email variant of queue.NotificationChannel.
func (s *EmailSender) Deliver(ctx context.Context, to string, payload queue.NotificationPayload) error {
	data := notificationEmailData{
		Title:   payload.Title,
		Message: payload.Message,
		LeadID:  payload.LeadID,
	}

	tmplPath := filepath.Join("templates", "notification.html")
	t, err := template.ParseFiles(tmplPath)
	if err != nil {
		return fmt.Errorf("failed to read email template: %w", err)
	}

	var body bytes.Buffer
	if err := t.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", payload.Title)
	m.SetBody("text/html", body.String())

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
