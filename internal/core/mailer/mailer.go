package mailer

import (
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Sender 发送 HTML 邮件
type Sender interface {
	SendHTML(to []string, subject, htmlBody string) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (c Config) validate() error {
	if c.Host == "" {
		return fmt.Errorf("missing mail.host")
	}
	if c.Port == 0 {
		return fmt.Errorf("missing mail.port")
	}
	if c.From == "" {
		return fmt.Errorf("missing mail.from")
	}
	return nil
}

// Email represents an email message.
type Email struct {
	To       []string
	Cc       []string
	Bcc      []string
	Subject  string
	Body     string
	HTMLBody string
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer SMTP 实现
type Mailer struct {
	from   string
	dialer dialer
}

func New(cfg Config) (*Mailer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Mailer{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}, nil
}

// Send sends a single email.
func (m *Mailer) Send(email Email) error {
	if len(email.To) == 0 {
		return fmt.Errorf("no recipients specified")
	}
	return m.dialer.DialAndSend(m.message(email))
}

// SendHTML sends an HTML email.
func (m *Mailer) SendHTML(to []string, subject, htmlBody string) error {
	return m.Send(Email{To: to, Subject: subject, HTMLBody: htmlBody})
}

func (m *Mailer) message(email Email) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email.To...)
	if len(email.Cc) > 0 {
		msg.SetHeader("Cc", email.Cc...)
	}
	if len(email.Bcc) > 0 {
		msg.SetHeader("Bcc", email.Bcc...)
	}
	msg.SetHeader("Subject", email.Subject)

	if email.HTMLBody != "" {
		msg.SetBody("text/html", email.HTMLBody)
		if email.Body != "" {
			msg.AddAlternative("text/plain", email.Body)
		}
	} else {
		msg.SetBody("text/plain", email.Body)
	}
	return msg
}

// LogSender 未配置 SMTP 时使用，只把邮件写进日志
type LogSender struct{ L *zap.Logger }

func (s LogSender) SendHTML(to []string, subject, htmlBody string) error {
	s.L.Info("mail (not sent, smtp disabled)",
		zap.Strings("to", to), zap.String("subject", subject), zap.String("body", htmlBody))
	return nil
}
