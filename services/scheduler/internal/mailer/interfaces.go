package mailer

import (
	"context"

	"github.com/diagnosis/demo-scheduler/pkg/config"
	"github.com/diagnosis/demo-scheduler/services/scheduler/internal/invite"
)

type Service interface {
	SendInvite(ctx context.Context, msg invite.Message) error
}

// New picks the dev mailer in dev mode, MailerSend when an API key is set
// and SMTP otherwise.
func New(cfg config.EmailConfig) Service {
	switch {
	case cfg.DevMode:
		return NewDevMailer()
	case cfg.MailerSendKey != "":
		return NewMailerSend(cfg.MailerSendKey, cfg.FromName, cfg.From)
	default:
		return NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.From, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPUseTLS)
	}
}
