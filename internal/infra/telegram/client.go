// internal/infra/telegram/client.go
package telegram

import (
	"context"

	"gopkg.in/telebot.v3"
)

// TelebotAnnouncer implements chat.Announcer by sending to a fixed Telegram chat.
type TelebotAnnouncer struct {
	bot    *telebot.Bot
	chatID int64
}

func NewTelebotAnnouncer(b *telebot.Bot, chatID int64) *TelebotAnnouncer {
	return &TelebotAnnouncer{bot: b, chatID: chatID}
}

// Announce sends text to the configured chat. telebot has no context support,
// so ctx is only checked before sending.
func (a *TelebotAnnouncer) Announce(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := a.bot.Send(&telebot.Chat{ID: a.chatID}, text, &telebot.SendOptions{DisableWebPagePreview: true})
	return err
}
