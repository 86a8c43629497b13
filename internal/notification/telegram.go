package notification

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSender posts lifecycle notices to the admin group chat.
type TelegramSender struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramSender connects the bot API. Returns an error when the token is
// rejected so the caller can decide to run without Telegram notifications.
func NewTelegramSender(token string, chatID int64) (*TelegramSender, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telegram bot: %w", err)
	}
	return &TelegramSender{bot: bot, chatID: chatID}, nil
}

func (t *TelegramSender) Name() string { return "telegram" }

// Send formats the notice as an HTML message for the admin group.
func (t *TelegramSender) Send(ctx context.Context, n Notice) error {
	msg := tgbotapi.NewMessage(t.chatID, formatNotice(n))
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send failed: %w", err)
	}
	return nil
}

func formatNotice(n Notice) string {
	var header string
	switch n.Kind {
	case KindNewPending:
		header = "📢 <b>New reservation request</b>"
	case KindApproved:
		header = "✅ <b>Reservation approved</b>"
	case KindRejected:
		header = "🚫 <b>Reservation rejected</b>"
	case KindCancelled:
		header = "↩️ <b>Reservation cancelled by requester</b>"
	default:
		header = "<b>Reservation update</b>"
	}

	lines := []string{
		header,
		fmt.Sprintf("👤 <b>User:</b> %s", n.Username),
		fmt.Sprintf("🏫 <b>Room:</b> %s", n.RoomID),
		fmt.Sprintf("📅 <b>Date:</b> %s", n.Date),
		fmt.Sprintf("🕒 <b>Time:</b> %s - %s", n.StartTime, n.EndTime),
	}
	if n.Description != "" {
		lines = append(lines, fmt.Sprintf("📝 <b>Purpose:</b> %s", n.Description))
	}
	if n.Kind == KindNewPending {
		lines = append(lines, "<i>Please sign in to review and approve.</i>")
	}
	return strings.Join(lines, "\n")
}
