package notify

import (
	"fmt"
	"log/slog"
	"strings"

	"vigil/internal/core"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram delivers limit notices to a single supervisor chat. It is
// the daemon-side counterpart of the interactive bot: one-way, no
// commands, just the "budget ran out" ping.
type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger *slog.Logger
}

// NewTelegram creates a Telegram messenger for the given bot token and
// supervisor chat
func NewTelegram(token string, chatID int64, logger *slog.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Telegram{
		api:    api,
		chatID: chatID,
		logger: logger,
	}, nil
}

// SendLimitNotice sends a formatted limit-reached message to the
// supervisor chat
func (t *Telegram) SendLimitNotice(notice *core.LimitNotice) error {
	msg := tgbotapi.NewMessage(t.chatID, formatLimitNotice(notice))
	msg.ParseMode = "Markdown"

	if _, err := t.api.Send(msg); err != nil {
		t.logger.Error("Failed to send limit notice",
			"chat_id", t.chatID,
			"profile_id", notice.ProfileID,
			"error", err,
		)
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// formatLimitNotice formats a limit notice into a Telegram message
func formatLimitNotice(notice *core.LimitNotice) string {
	var sb strings.Builder

	sb.WriteString("⏰ *Watch Limit Reached*\n\n")
	sb.WriteString(fmt.Sprintf("👦 *%s*\n", notice.ProfileName))

	if notice.Category != "" {
		sb.WriteString(fmt.Sprintf("   Pool: %s\n", poolLabel(notice.Category)))
	}

	sb.WriteString(fmt.Sprintf("   Used: %d min / %d min\n",
		notice.UsedMinutes, notice.LimitMinutes))
	sb.WriteString(fmt.Sprintf("   Date: %s\n", notice.Date.Format("2006-01-02")))

	sb.WriteString("\nPlayback stays blocked until tomorrow or a bonus grant.")

	return sb.String()
}

// poolLabel returns a user-friendly label for a budget pool
func poolLabel(category core.Category) string {
	switch category {
	case core.CategoryEducational:
		return "📚 Educational"
	case core.CategoryEntertainment:
		return "🎬 Entertainment"
	default:
		return string(category)
	}
}
