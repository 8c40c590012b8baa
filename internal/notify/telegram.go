package notify

import (
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"quotewatch/internal/model"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram pushes hit alerts to a single chat. It is an optional second
// notification channel next to email; failures are logged and swallowed.
type Telegram struct {
	api    telegramAPI
	chatID int64
	log    *slog.Logger
}

// NewTelegram creates a Telegram channel for the given bot token and chat.
func NewTelegram(token string, chatID int64, log *slog.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return &Telegram{api: api, chatID: chatID, log: log}, nil
}

// SendHit sends a formatted hit alert, best effort.
func (t *Telegram) SendHit(hit *model.Hit) {
	msg := tgbotapi.NewMessage(t.chatID, FormatHitAlert(hit))
	msg.DisableWebPagePreview = true
	if _, err := t.api.Send(msg); err != nil {
		t.log.Error("send telegram alert", "chat_id", t.chatID, "error", err)
	}
}
