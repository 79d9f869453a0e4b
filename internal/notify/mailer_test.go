package notify

import (
	"bytes"
	"strings"
	"testing"

	"github.com/iliyamo/restaurant-table-reservation/internal/booking"
	"github.com/iliyamo/restaurant-table-reservation/internal/config"
)

func TestRenderHTML_LinkBecomesButton(t *testing.T) {
	link := "http://localhost:8080/v1/reservations/confirm/abc"
	e := booking.Email{Body: "Hello Sam,\n\nPlease confirm <soon>.\n\n" + link + "\n", Link: link}

	html, err := renderHTML(e, true)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(html, `href="`+link+`"`) {
		t.Fatalf("expected confirm button, got %s", html)
	}
	if !strings.Contains(html, "cid:"+qrName) {
		t.Fatalf("expected embedded qr reference")
	}
	if !strings.Contains(html, "&lt;soon&gt;") {
		t.Fatalf("body text must be escaped")
	}
	if strings.Count(html, link) != 1 {
		t.Fatalf("link must appear once, got %d", strings.Count(html, link))
	}
}

func TestMailer_ComposeEmbedsQR(t *testing.T) {
	m := NewMailer(config.SMTPConfig{Host: "smtp.example.com", Port: 587, From: "bookings@example.com"})
	msg, err := m.compose(booking.Email{To: "sam@example.com", Subject: "Confirm your reservation", Body: "hi", Link: "http://x/confirm/1"})
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw := buf.String()
	for _, want := range []string{"Subject: Confirm your reservation", "text/html", "image/png", qrName} {
		if !strings.Contains(raw, want) {
			t.Fatalf("message missing %q", want)
		}
	}
}

func TestNew_FallsBackToLog(t *testing.T) {
	if _, ok := New(config.SMTPConfig{}).(LogNotifier); !ok {
		t.Fatalf("expected LogNotifier without SMTP host")
	}
	if _, ok := New(config.SMTPConfig{Host: "smtp"}).(*Mailer); !ok {
		t.Fatalf("expected Mailer with SMTP host")
	}
}
