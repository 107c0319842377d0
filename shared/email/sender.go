package email

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"net/smtp"

	"podtool/internal/models"
	"podtool/shared/config"
)

//go:embed digest.html
var digestTemplate string

var tmpl = template.Must(template.New("digest").Parse(digestTemplate))

type Sender struct {
	config   *config.EmailConfig
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSender(cfg *config.EmailConfig) *Sender {
	return &Sender{
		config:   cfg,
		sendMail: smtp.SendMail,
	}
}

// SendDigest mails the digest. Runs that found no new episodes are not
// reported.
func (s *Sender) SendDigest(digest *models.ImportDigest) error {
	if digest == nil {
		return fmt.Errorf("digest cannot be nil")
	}
	if len(digest.NewEpisodes) == 0 {
		return nil
	}

	subject := fmt.Sprintf("PodTool Digest - %d New Episodes (%s)",
		len(digest.NewEpisodes), digest.Date.Format("Jan 2, 2006"))

	body, err := RenderDigest(digest)
	if err != nil {
		return fmt.Errorf("failed to generate email body: %w", err)
	}

	return s.SendHTML(subject, body)
}

// SendHTML sends an email with custom HTML content
func (s *Sender) SendHTML(subject, htmlBody string) error {
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.SMTPServer)

	to := []string{s.config.ToEmail}
	msg := []byte(fmt.Sprintf("To: %s\r\nFrom: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.config.ToEmail, s.config.FromEmail, subject, htmlBody))

	addr := fmt.Sprintf("%s:%d", s.config.SMTPServer, s.config.SMTPPort)
	if err := s.sendMail(addr, auth, s.config.FromEmail, to, msg); err != nil {
		return fmt.Errorf("failed to send email via %s: %w", addr, err)
	}
	return nil
}

// RenderDigest renders the HTML body of a digest email.
func RenderDigest(digest *models.ImportDigest) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, digest); err != nil {
		return "", err
	}
	return buf.String(), nil
}
