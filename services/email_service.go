package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/handirank/handirank/config"
	"github.com/handirank/handirank/handicap"
)

// EmailService sends admin handover notices. Best effort only: callers log
// failures and move on, a broken mail relay must never block an election.
type EmailService struct {
	cfg *config.Config
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{cfg: cfg}
}

var adminChangeTemplate = template.Must(template.New("adminChange").Parse(`
<h3>You're the new season admin!</h3>
<p>You are now ranked #1 in season <strong>{{.SeasonCode}}</strong>{{if .Previous}},
taking over from {{.Previous}}{{end}}.</p>
<p>Admin privileges transfer automatically to whoever leads the leaderboard,
so stay on top to keep them.</p>
`))

// NotifyAdminChange mails the incoming admin about the handover.
func (s *EmailService) NotifyAdminChange(to string, seasonCode string, change handicap.Change) error {
	if !s.cfg.MailEnabled() || to == "" {
		return nil
	}

	var body bytes.Buffer
	err := adminChangeTemplate.Execute(&body, struct {
		SeasonCode string
		Previous   string
	}{SeasonCode: seasonCode, Previous: change.Previous})
	if err != nil {
		return fmt.Errorf("failed to render admin change mail: %w", err)
	}

	subject := fmt.Sprintf("HandiRank: you're now the admin of %s", seasonCode)
	msg := []byte("To: " + to + "\r\n" +
		"From: " + s.cfg.SMTPFrom + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n" +
		"\r\n" +
		body.String() + "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)

	if err := smtp.SendMail(addr, auth, s.cfg.SMTPFrom, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send admin change mail: %w", err)
	}
	return nil
}
