package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"time"

	"github.com/redmonkez12/notes-api/internal/config"
	"github.com/redmonkez12/notes-api/internal/logging"
)

var ErrNotConfigured = errors.New("smtp credentials are not configured")

// sendFunc matches smtp.SendMail.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Service struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	fromEmail    string
	otpTTL       time.Duration
	send         sendFunc
}

func NewService(cfg config.EmailConfig, otpTTL time.Duration) *Service {
	from := cfg.FromAddress
	if from == "" {
		from = cfg.SMTPUser
	}

	return &Service{
		smtpHost:     cfg.SMTPHost,
		smtpPort:     cfg.SMTPPort,
		smtpUser:     cfg.SMTPUser,
		smtpPassword: cfg.SMTPPassword,
		fromEmail:    from,
		otpTTL:       otpTTL,
		send:         smtp.SendMail,
	}
}

// SendOTP mails a one-time passcode. The code itself is never logged.
func (s *Service) SendOTP(ctx context.Context, toEmail, code string) error {
	logger := logging.GetLoggerFromContext(ctx)

	if s.smtpUser == "" || s.smtpPassword == "" {
		return ErrNotConfigured
	}

	body, err := renderOTPEmail(code, s.otpTTL)
	if err != nil {
		logger.Error("failed to render otp email template", "error", err)
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.sendEmail(toEmail, "Your sign-in code", body); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("otp email sent", "email", toEmail)
	return nil
}

func (s *Service) sendEmail(to, subject, body string) error {
	auth := smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)

	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		s.fromEmail, to, subject, body,
	))

	return s.send(net.JoinHostPort(s.smtpHost, s.smtpPort), auth, s.fromEmail, []string{to}, msg)
}

var otpTemplate = template.Must(template.New("otp").Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body {
            font-family: Arial, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 600px;
            margin: 0 auto;
            padding: 20px;
        }
        .code {
            font-size: 32px;
            letter-spacing: 8px;
            font-weight: bold;
            text-align: center;
            background-color: #f9f9f9;
            padding: 20px;
            border-radius: 5px;
        }
        .footer {
            margin-top: 30px;
            font-size: 12px;
            color: #666;
            text-align: center;
        }
    </style>
</head>
<body>
    <h2>Your sign-in code</h2>
    <p>Use the code below to finish signing in to your notes.</p>
    <p class="code">{{.Code}}</p>
    <p>If you didn't ask for this code, you can safely ignore this email.</p>
    <div class="footer">
        <p>This code expires in {{.Minutes}} minutes.</p>
    </div>
</body>
</html>
`))

func renderOTPEmail(code string, ttl time.Duration) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Code    string
		Minutes int
	}{
		Code:    code,
		Minutes: int(ttl / time.Minute),
	}

	if err := otpTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}
