package mail

import (
	"fmt"
	"net/smtp"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/threadboard/backend/internal/logging"
)

// Service sends transactional email over SMTP. When the SMTP environment is
// not configured it stays disabled and logs what it would have sent, which
// is the intended mode for development and tests.
type Service struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	Enabled  bool

	log zerolog.Logger
}

func NewService() *Service {
	host := os.Getenv("SMTP_HOST")
	port := os.Getenv("SMTP_PORT")
	user := os.Getenv("SMTP_USER")
	pass := os.Getenv("SMTP_PASS")
	from := os.Getenv("SMTP_FROM")

	log := logging.WithComponent("mail")

	enabled := host != "" && port != "" && user != "" && pass != "" && from != ""
	if !enabled {
		log.Warn().Msg("mail service disabled: missing SMTP environment variables")
	}

	return &Service{
		Host:     host,
		Port:     port,
		Username: user,
		Password: pass,
		From:     from,
		Enabled:  enabled,
		log:      log,
	}
}

func (s *Service) sendAsync(to []string, subject, body string) {
	if !s.Enabled {
		s.log.Info().Strs("to", to).Str("subject", subject).Str("body", body).
			Msg("mail disabled, not sending")
		return
	}

	go func() {
		auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)
		addr := fmt.Sprintf("%s:%s", s.Host, s.Port)

		mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
		msg := []byte(fmt.Sprintf("To: %s\r\nFrom: %s\r\nSubject: %s\r\n%s\r\n%s",
			strings.Join(to, ","), s.From, subject, mime, body))

		if err := smtp.SendMail(addr, auth, s.From, to, msg); err != nil {
			s.log.Error().Err(err).Strs("to", to).Msg("failed to send email")
			return
		}
		s.log.Info().Strs("to", to).Str("subject", subject).Msg("email sent")
	}()
}

// SendPasswordReset mails the change-password link for a reset token.
func (s *Service) SendPasswordReset(email, url string) {
	body := fmt.Sprintf(`<p>Someone requested a password reset for this address.</p>
<p><a href="%s">Reset your password</a></p>
<p>The link is valid for 3 days. If this wasn't you, ignore this email.</p>`, url)
	s.sendAsync([]string{email}, "Reset your password", body)
}
