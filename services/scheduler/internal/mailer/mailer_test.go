package mailer

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/diagnosis/demo-scheduler/pkg/config"
	"github.com/diagnosis/demo-scheduler/services/scheduler/internal/invite"
)

func TestNew_Selection(t *testing.T) {
	if _, ok := New(config.EmailConfig{DevMode: true, MailerSendKey: "k"}).(*DevMailer); !ok {
		t.Fatal("dev mode should win")
	}
	if _, ok := New(config.EmailConfig{MailerSendKey: "k", From: "a@b.co"}).(*MailerSendClient); !ok {
		t.Fatal("api key should select MailerSend")
	}
	if _, ok := New(config.EmailConfig{SMTPHost: "localhost"}).(*SMTPMailer); !ok {
		t.Fatal("fallback should be SMTP")
	}
}

func TestMailerSend_NotConfigured(t *testing.T) {
	if err := NewMailerSend("", "Demos", "").SendInvite(context.Background(), invite.Message{To: "a@b.co"}); err == nil {
		t.Fatal("expected error without an API key")
	}
}

func TestDevMailer_Prints(t *testing.T) {
	var buf bytes.Buffer
	d := &DevMailer{out: &buf}
	if err := d.SendInvite(context.Background(), invite.Message{To: "ana@firm.law", Subject: "Demo", Text: "join\n"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "ana@firm.law") || !strings.Contains(buf.String(), "Subject: Demo") {
		t.Fatalf("output = %q", buf.String())
	}
}

func TestSMTPMailer_BuildMessage(t *testing.T) {
	s := NewSMTPMailer(" smtp.local ", 25, "demos@firm.law", "", "", false)
	body := string(s.buildMessage("ana@firm.law", invite.Message{Subject: "Demo", Text: "plain", HTML: "<p>html</p>"}))

	for _, want := range []string{"To: ana@firm.law\r\n", "Subject: Demo\r\n", "text/plain", "plain", "<p>html</p>", "--mixed-boundary--"} {
		if !strings.Contains(body, want) {
			t.Fatalf("message misses %q", want)
		}
	}
	if err := s.SendInvite(context.Background(), invite.Message{To: " "}); err == nil {
		t.Fatal("empty recipient accepted")
	}
}
