package mail

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	gomail "gopkg.in/gomail.v2"

	"LeadWatcher/internal/config"
	"LeadWatcher/internal/domain"
)

var testLead = domain.Lead{
	Name:    "Sarah Johnson",
	Email:   "sarah@techstart.com",
	Company: "TechStart Inc",
	Phone:   "555-0456",
	Source:  "Referral",
}

func testConfig() config.MailConfig {
	return config.MailConfig{
		Host:       "smtp.example.org",
		Port:       587,
		Username:   "sales@example.org",
		Password:   "secret",
		SenderName: "Sales Team",
		ReplyTo:    "operator@example.org",
	}
}

func newTestMailer(send func(m *gomail.Message) error) *Mailer {
	m := NewMailer(testConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	m.send = send
	return m
}

func TestRenderTemplate(t *testing.T) {
	t.Parallel()

	out := renderTemplate("Hi {{name}} from {{company}}, {{unknown}} stays", map[string]string{
		"name":    "Sarah",
		"company": "TechStart",
	})
	if out != "Hi Sarah from TechStart, {{unknown}} stays" {
		t.Fatalf("unexpected render: %q", out)
	}

	// Values are substituted verbatim, template-breaking characters included.
	out = renderTemplate("Hi {{name}}", map[string]string{"name": "{{company}} & <b>"})
	if out != "Hi {{company}} & <b>" {
		t.Fatalf("values must not be escaped: %q", out)
	}
}

func TestSendAcknowledgement(t *testing.T) {
	t.Parallel()

	var sent *gomail.Message
	m := newTestMailer(func(msg *gomail.Message) error {
		sent = msg
		return nil
	})

	if err := m.SendAcknowledgement(context.Background(), testLead); err != nil {
		t.Fatalf("SendAcknowledgement error: %v", err)
	}
	if sent == nil {
		t.Fatal("message was not sent")
	}

	if got := sent.GetHeader("To"); len(got) != 1 || got[0] != "sarah@techstart.com" {
		t.Fatalf("unexpected To header: %v", got)
	}
	if got := sent.GetHeader("Subject"); len(got) != 1 || got[0] != "Thanks for reaching out!" {
		t.Fatalf("unexpected Subject header: %v", got)
	}
	if got := sent.GetHeader("From"); len(got) != 1 || !strings.Contains(got[0], "Sales Team") {
		t.Fatalf("From must carry the fixed display name: %v", got)
	}
	if got := sent.GetHeader("Reply-To"); len(got) != 1 || got[0] != "operator@example.org" {
		t.Fatalf("unexpected Reply-To header: %v", got)
	}

	var buf bytes.Buffer
	if _, err := sent.WriteTo(&buf); err != nil {
		t.Fatalf("render message: %v", err)
	}
	body := buf.String()
	for _, want := range []string{"Sarah Johnson", "TechStart Inc", "555-0456", "Referral"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}
}

func TestSendAcknowledgementQuotaFailure(t *testing.T) {
	t.Parallel()

	m := newTestMailer(func(*gomail.Message) error {
		return errors.New("454 4.2.2 mailbox quota exceeded")
	})

	err := m.SendAcknowledgement(context.Background(), testLead)
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
}

func TestSendAcknowledgementGenericFailure(t *testing.T) {
	t.Parallel()

	m := newTestMailer(func(*gomail.Message) error {
		return errors.New("550 mailbox unavailable")
	})

	err := m.SendAcknowledgement(context.Background(), testLead)
	if err == nil {
		t.Fatal("expected failure")
	}
	if errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("generic failure must not be classified as quota: %v", err)
	}
}

func TestSendAcknowledgementMisconfigured(t *testing.T) {
	t.Parallel()

	m := NewMailer(config.MailConfig{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	m.send = func(*gomail.Message) error {
		t.Fatal("send must not be attempted without configuration")
		return nil
	}

	if err := m.SendAcknowledgement(context.Background(), testLead); !errors.Is(err, ErrMisconfigured) {
		t.Fatalf("expected ErrMisconfigured, got %v", err)
	}
}
