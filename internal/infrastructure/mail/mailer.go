package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	gomail "gopkg.in/gomail.v2"

	"LeadWatcher/internal/config"
	"LeadWatcher/internal/domain"
	"LeadWatcher/internal/ports"
)

const ackSubject = "Thanks for reaching out!"

// ackTemplate is substituted textually; placeholder values are not escaped,
// and unknown placeholders are left literal.
const ackTemplate = `Hi {{name}},

Thanks for reaching out to us from {{company}}! We received your inquiry and
one of our team will get back to you within one business day.

We have your contact number as {{phone}} and noted that you found us via
{{source}}.

Best regards,
Sales Team`

var (
	// ErrMisconfigured means the SMTP settings are incomplete.
	ErrMisconfigured = errors.New("mailer misconfigured")

	// ErrQuotaExceeded marks a sending-limit failure. It is reported as its
	// own kind but, like every mail failure, is not retried here: retry is
	// the notifier's privilege, and quota exhaustion is not resolved by an
	// immediate retry anyway.
	ErrQuotaExceeded = errors.New("mail quota exceeded")
)

// Mailer sends the contact-facing acknowledgement over SMTP.
type Mailer struct {
	cfg    config.MailConfig
	logger *slog.Logger

	// send is swappable for tests; defaults to a dial-and-send through the
	// configured SMTP host.
	send func(m *gomail.Message) error
}

var _ ports.Mailer = (*Mailer)(nil)

// NewMailer wires SMTP settings from configuration.
func NewMailer(cfg config.MailConfig, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.Default()
	}
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &Mailer{
		cfg:    cfg,
		logger: logger,
		send: func(m *gomail.Message) error {
			return dialer.DialAndSend(m)
		},
	}
}

// SendAcknowledgement renders the template for the lead and sends it to the
// lead's address with the fixed sender display name and the operator's
// reply-to. No internal retry; failures propagate classified.
func (m *Mailer) SendAcknowledgement(ctx context.Context, lead domain.Lead) error {
	if m.cfg.Host == "" || m.cfg.Username == "" {
		return ErrMisconfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body := renderTemplate(ackTemplate, map[string]string{
		"name":    lead.Name,
		"company": lead.Company,
		"phone":   lead.Phone,
		"source":  lead.Source,
	})

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.cfg.Username, m.cfg.SenderName)
	msg.SetHeader("To", lead.Email)
	if m.cfg.ReplyTo != "" {
		msg.SetHeader("Reply-To", m.cfg.ReplyTo)
	}
	msg.SetHeader("Subject", ackSubject)
	msg.SetBody("text/plain", body)

	if err := m.send(msg); err != nil {
		if isQuotaFailure(err) {
			return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
		}
		return fmt.Errorf("send acknowledgement to %s: %w", lead.Email, err)
	}

	m.logger.Info("acknowledgement sent", "to", lead.Email)
	return nil
}

// isQuotaFailure sniffs SMTP replies for sending-limit conditions. Providers
// phrase these inconsistently; enhanced status 4.2.2 is the closest thing to
// a standard.
func isQuotaFailure(err error) bool {
	text := strings.ToLower(err.Error())
	for _, needle := range []string{"quota", "limit exceeded", "4.2.2", "too many messages"} {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}

// renderTemplate replaces {{key}} placeholders with the mapped values.
// Missing keys are left literal so a template typo is visible in the output
// instead of silently vanishing.
func renderTemplate(template string, values map[string]string) string {
	out := template
	for key, value := range values {
		out = strings.ReplaceAll(out, "{{"+key+"}}", value)
	}
	return out
}
