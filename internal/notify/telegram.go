// Package notify pushes order and edge alerts to Telegram. Disabled (every
// call a no-op) when no token is configured.
package notify

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram creates the notifier. Returns a disabled notifier when token
// or chat id are unset.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	if token == "" || chatID == 0 {
		log.Info().Msg("Telegram notifications disabled")
		return &Telegram{}, nil
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	log.Info().Str("bot", api.Self.UserName).Msg("🔔 Telegram notifier ready")
	return &Telegram{api: api, chatID: chatID}, nil
}

// Notify sends one plain-text alert. Send failures are logged, never
// propagated: alerting must not disturb the trading loop.
func (t *Telegram) Notify(text string) {
	if t.api == nil {
		return
	}
	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.api.Send(msg); err != nil {
		log.Warn().Err(err).Msg("Telegram send failed")
	}
}
