// Package notifier mails campaign summaries to the operator.
package notifier

import (
	"fmt"
	"time"

	"github.com/ibeckermayer/xdrip/internal/campaign"
	"github.com/ibeckermayer/xdrip/internal/config"
	"github.com/ibeckermayer/xdrip/internal/notifier/providers"
)

// Notifier handles sending summary notifications
type Notifier struct {
	sender Sender
	to     string
}

// Sender defines the interface for email sending
type Sender interface {
	Send(to, subject, body string) error
}

// New creates a new notifier with the given sender
func New(sender Sender, to string) *Notifier {
	return &Notifier{sender: sender, to: to}
}

// NewFromConfig creates a notifier based on configuration. It returns nil
// when notifications are disabled.
func NewFromConfig(cfg config.NotifyConfig) (*Notifier, error) {
	var sender Sender

	switch cfg.Provider {
	case "":
		return nil, nil
	case "smtp":
		sender = providers.NewSMTPSender(
			cfg.SMTPHost,
			cfg.SMTPPort,
			cfg.SMTPUser,
			cfg.SMTPPass,
			cfg.FromAddr,
		)
	default:
		return nil, fmt.Errorf("unknown email provider: %s", cfg.Provider)
	}

	return New(sender, cfg.ToAddr), nil
}

// Subject is the mail subject for a run summary
func Subject(s campaign.Summary) string {
	subject := fmt.Sprintf("xdrip %s: %d sent, %d failed",
		s.StartedAt.Format(time.DateOnly), s.Stats.Success, s.Stats.Error)
	if s.LimitReached {
		subject += " (daily limit reached)"
	}
	return subject
}

// SendSummary mails a rendered run summary
func (n *Notifier) SendSummary(s campaign.Summary, body string) error {
	return n.sender.Send(n.to, Subject(s), body)
}
