package notify

import (
	"errors"
	"log/slog"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"quotewatch/internal/model"
)

type fakeTelegramAPI struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeTelegramAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.err
}

func TestSendHit(t *testing.T) {
	api := &fakeTelegramAPI{}
	tg := &Telegram{api: api, chatID: 42, log: slog.New(slog.DiscardHandler)}

	tg.SendHit(&model.Hit{
		ClientName: "Acme",
		URL:        "https://example.com/story",
		Domain:     "example.com",
		MatchType:  model.MatchExact,
		Confidence: 1,
	})

	if len(api.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(api.sent))
	}
	msg, ok := api.sent[0].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("sent %T, want MessageConfig", api.sent[0])
	}
	if msg.ChatID != 42 {
		t.Errorf("chat id = %d, want 42", msg.ChatID)
	}
	if !msg.DisableWebPagePreview {
		t.Error("web page preview not disabled")
	}
	if !strings.Contains(msg.Text, "Acme") || !strings.Contains(msg.Text, "https://example.com/story") {
		t.Errorf("message text missing alert fields:\n%s", msg.Text)
	}
}

func TestSendHitSwallowsErrors(t *testing.T) {
	api := &fakeTelegramAPI{err: errors.New("telegram down")}
	tg := &Telegram{api: api, chatID: 42, log: slog.New(slog.DiscardHandler)}

	// Must not panic or propagate the error.
	tg.SendHit(&model.Hit{ClientName: "Acme", URL: "https://example.com/a"})
	if len(api.sent) != 1 {
		t.Errorf("sent %d messages, want 1", len(api.sent))
	}
}
