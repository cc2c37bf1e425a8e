package mailer

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/diagnosis/demo-scheduler/pkg/logger"
	"github.com/diagnosis/demo-scheduler/services/scheduler/internal/invite"
)

type DevMailer struct {
	out io.Writer
}

func NewDevMailer() *DevMailer {
	return &DevMailer{out: os.Stdout}
}

func (d *DevMailer) SendInvite(ctx context.Context, msg invite.Message) error {
	logger.InfoContext(ctx, "📧 [DEV MAIL] Demo invite",
		"to", msg.To,
		"name", msg.ToName,
		"subject", msg.Subject,
		"meeting_link", msg.MeetingLink,
	)

	fmt.Fprintf(d.out, "\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"+
		"📧 DEMO INVITE (DEV MODE)\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"+
		"To: %s (%s)\n"+
		"Subject: %s\n"+
		"\n"+
		"%s"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n",
		msg.To, msg.ToName, msg.Subject, msg.Text)

	return nil
}
