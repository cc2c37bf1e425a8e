package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/diagnosis/demo-scheduler/services/scheduler/internal/invite"
	"github.com/mailersend/mailersend-go"
)

type MailerSendClient struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	enabled bool
}

func NewMailerSend(apiKey, fromName, fromEmail string) *MailerSendClient {
	m := &MailerSendClient{
		enabled: apiKey != "" && fromEmail != "",
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
	}

	if m.enabled {
		m.client = mailersend.NewMailersend(apiKey)
	}

	return m
}

func (m *MailerSendClient) SendInvite(ctx context.Context, inv invite.Message) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Name: inv.ToName, Email: inv.To}})
	msg.SetSubject(inv.Subject)

	if strings.TrimSpace(inv.Text) != "" {
		msg.SetText(inv.Text)
	}
	if strings.TrimSpace(inv.HTML) != "" {
		msg.SetHTML(inv.HTML)
	}

	_, err := m.client.Email.Send(ctx, msg)
	return err
}
