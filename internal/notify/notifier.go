// Package notify delivers hit-notification digests. Delivery is strictly
// best-effort: every transport failure degrades to "not sent" and the
// pipeline's persistence path is never blocked on it.
package notify

import (
	"context"
	"log/slog"

	"quotewatch/internal/model"
	"quotewatch/internal/storage"
)

// Notifier sends digests for confirmed hits. Email delivery is controlled
// by the app-settings singleton; the Telegram channel, when configured,
// fires alongside but only the email result is recorded on the hit.
type Notifier struct {
	store      storage.Storage
	mailer     Mailer
	telegram   *Telegram
	uiBaseURL  string
	apiBaseURL string
	log        *slog.Logger
}

// NewNotifier creates a Notifier. telegram may be nil.
func NewNotifier(store storage.Storage, mailer Mailer, telegram *Telegram, uiBaseURL, apiBaseURL string, log *slog.Logger) *Notifier {
	return &Notifier{
		store:      store,
		mailer:     mailer,
		telegram:   telegram,
		uiBaseURL:  uiBaseURL,
		apiBaseURL: apiBaseURL,
		log:        log,
	}
}

// NotifyHit sends the digest for one hit and reports whether the email
// went out. Disabled settings, an empty recipient list, and transport
// failures all return false without error.
func (n *Notifier) NotifyHit(ctx context.Context, hit *model.Hit) bool {
	if n.telegram != nil {
		n.telegram.SendHit(hit)
	}

	settings, err := n.store.GetSettings(ctx)
	if err != nil {
		n.log.Error("load settings", "error", err)
		return false
	}
	if !settings.EmailEnabled {
		return false
	}
	recipients := settings.Recipients()
	if len(recipients) == 0 {
		return false
	}

	subject, body := FormatHitEmail(hit, n.uiBaseURL, n.apiBaseURL)
	sent := n.mailer.Send(recipients, subject, body)
	if sent {
		n.log.Info("sent hit email", "hit_id", hit.ID, "recipients", len(recipients))
	}
	return sent
}
