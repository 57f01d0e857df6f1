package services

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/meinhoongagan/clinic-scheduler/config"
	"github.com/meinhoongagan/clinic-scheduler/models"
	"github.com/meinhoongagan/clinic-scheduler/utils"
)

// NotificationSender delivers status-change notifications. Failures are the
// caller's to log; they must never block a state transition.
type NotificationSender interface {
	Send(to models.User, subject, body string) error
}

// EmailNotifier sends notifications over SMTP.
type EmailNotifier struct {
	cfg *config.Config
}

func NewEmailNotifier(cfg *config.Config) *EmailNotifier {
	return &EmailNotifier{cfg: cfg}
}

func (n *EmailNotifier) Send(to models.User, subject, body string) error {
	if n.cfg.SMTPHost == "" {
		return fmt.Errorf("smtp is not configured")
	}
	if to.Email == "" {
		return fmt.Errorf("user %d has no email address", to.ID)
	}
	return utils.SendEmail(n.cfg.SMTPHost, n.cfg.SMTPPort, n.cfg.EmailUser, n.cfg.EmailPass, to.Email, subject, body)
}

// LogNotifier only logs. Used in development and as the safe default.
type LogNotifier struct{}

func (LogNotifier) Send(to models.User, subject, body string) error {
	log.Info().
		Uint("user_id", to.ID).
		Str("subject", subject).
		Msg("notification")
	return nil
}

// notify sends through the sender and logs failures without propagating them.
func notify(sender NotificationSender, to models.User, subject, body string) {
	if sender == nil {
		return
	}
	if err := sender.Send(to, subject, body); err != nil {
		log.Error().Err(err).Uint("user_id", to.ID).Str("subject", subject).Msg("failed to send notification")
	}
}
