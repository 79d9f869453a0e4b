// Package notify delivers reservation and account emails.
package notify

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"io"
	"log"
	"strings"

	"github.com/skip2/go-qrcode"
	"gopkg.in/gomail.v2"

	"github.com/iliyamo/restaurant-table-reservation/internal/booking"
	"github.com/iliyamo/restaurant-table-reservation/internal/config"
)

//go:embed templates/email.html
var templateFS embed.FS

var emailTmpl = template.Must(template.ParseFS(templateFS, "templates/email.html"))

const qrName = "confirm-qr.png"

type emailView struct {
	Paragraphs []string
	Link       string
	QR         string
}

// renderHTML turns the plain-text body into paragraphs and appends the
// link as a button.  The link line itself is dropped from the text.
func renderHTML(e booking.Email, withQR bool) (string, error) {
	v := emailView{Link: e.Link}
	if withQR {
		v.QR = qrName
	}
	for _, p := range strings.Split(e.Body, "\n\n") {
		p = strings.TrimSpace(p)
		if p == "" || p == e.Link {
			continue
		}
		v.Paragraphs = append(v.Paragraphs, strings.TrimSpace(strings.TrimSuffix(p, e.Link)))
	}
	var buf bytes.Buffer
	if err := emailTmpl.Execute(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Mailer sends email over SMTP.  Messages carry a plain-text part and an
// HTML alternative; when the email has a link, a QR code of it is
// embedded.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewMailer(cfg config.SMTPConfig) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (m *Mailer) compose(e booking.Email) (*gomail.Message, error) {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", e.To)
	msg.SetHeader("Subject", e.Subject)
	msg.SetBody("text/plain", e.Body)

	var png []byte
	if e.Link != "" {
		var err error
		png, err = qrcode.Encode(e.Link, qrcode.Medium, 256)
		if err != nil {
			log.Printf("notify: qr code for %s: %v", e.To, err)
			png = nil
		}
	}
	html, err := renderHTML(e, png != nil)
	if err != nil {
		return nil, err
	}
	msg.AddAlternative("text/html", html)
	if png != nil {
		msg.Embed(qrName, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(png)
			return err
		}))
	}
	return msg, nil
}

// Send delivers e.  gomail has no context support, so a cancelled ctx
// returns early while the dial finishes in the background.
func (m *Mailer) Send(ctx context.Context, e booking.Email) error {
	msg, err := m.compose(e)
	if err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() { done <- m.dialer.DialAndSend(msg) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogNotifier writes emails to the log instead of sending them.  It is
// used when no SMTP host is configured.
type LogNotifier struct{}

func (LogNotifier) Send(_ context.Context, e booking.Email) error {
	log.Printf("notify: to=%s subject=%q link=%s\n%s", e.To, e.Subject, e.Link, e.Body)
	return nil
}

// New returns a Mailer when an SMTP host is configured and a LogNotifier
// otherwise.
func New(cfg config.SMTPConfig) booking.Notifier {
	if cfg.Host == "" {
		return LogNotifier{}
	}
	return NewMailer(cfg)
}
