package notify

import (
	"log/slog"
	"strings"
	"testing"
)

func TestSMTPMailerUnconfigured(t *testing.T) {
	m := NewSMTPMailer("", "coverage@example.com", slog.New(slog.DiscardHandler))
	if m.Send([]string{"one@example.com"}, "subject", "body") {
		t.Error("Send = true without an SMTP URL")
	}
}

func TestSMTPMailerNoRecipients(t *testing.T) {
	m := NewSMTPMailer("smtp://localhost:25", "coverage@example.com", slog.New(slog.DiscardHandler))
	if m.Send(nil, "subject", "body") {
		t.Error("Send = true with no recipients")
	}
}

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage(
		"coverage@example.com",
		[]string{"one@example.com", "two@example.com"},
		"Coverage: example.com — Acme",
		"Outlet: example.com\n",
	))

	for _, want := range []string{
		"From: coverage@example.com\r\n",
		"To: one@example.com, two@example.com\r\n",
		"Subject: Coverage: example.com — Acme\r\n",
		"Content-Type: text/plain; charset=utf-8\r\n",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
	if !strings.HasSuffix(msg, "\r\n\r\nOutlet: example.com\n") {
		t.Errorf("body not separated from headers:\n%s", msg)
	}
}
