package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/nijsci/labcatalog/config"
	"github.com/nijsci/labcatalog/internal/domain"
)

// Message is a contact form submission.
type Message struct {
	Name    string
	Email   string
	Subject string
	Body    string
	Items   []domain.InquiryItem
}

// Mailer delivers contact messages.
type Mailer interface {
	Send(msg *Message) error
}

// SMTPMailer sends through an SMTP relay with gomail.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
	to     string
}

func NewSMTPMailer(cfg config.SmtpConfig) *SMTPMailer {
	from := cfg.From
	if from == "" {
		from = cfg.User
	}
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Passwd),
		from:   from,
		to:     cfg.To,
	}
}

func (m *SMTPMailer) Send(msg *Message) error {
	body, err := Render(msg)
	if err != nil {
		return err
	}
	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", m.to)
	gm.SetAddressHeader("Reply-To", msg.Email, msg.Name)
	gm.SetHeader("Subject", Subject(msg))
	gm.SetBody("text/html", body)
	if err := m.dialer.DialAndSend(gm); err != nil {
		return errors.Wrap(err, "smtp send")
	}
	zap.L().Info("contact message sent",
		zap.String("from", msg.Email),
		zap.Int("items", len(msg.Items)))
	return nil
}

// Subject builds the mail subject line.
func Subject(msg *Message) string {
	subject := strings.TrimSpace(msg.Subject)
	if subject == "" {
		subject = "Website enquiry"
	}
	return fmt.Sprintf("[Contact] %s - %s", subject, msg.Name)
}

var bodyTemplate = template.Must(template.New("contact").Parse(`<h2>New message from {{.Name}}</h2>
<p><strong>Email:</strong> {{.Email}}</p>
{{if .Subject}}<p><strong>Subject:</strong> {{.Subject}}</p>{{end}}
<p>{{.Body}}</p>
{{if .Items}}<h3>Products of interest</h3>
<ul>{{range .Items}}<li>{{.Name}} ({{.ID}})</li>{{end}}</ul>{{end}}
`))

// Render produces the HTML body; user input is escaped.
func Render(msg *Message) (string, error) {
	var buf bytes.Buffer
	if err := bodyTemplate.Execute(&buf, msg); err != nil {
		return "", errors.Wrap(err, "render contact mail")
	}
	return buf.String(), nil
}
