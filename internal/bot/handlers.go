package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// handleStart handles the /start command
func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message) error {
	text := `👋 *Welcome to Vigil!*

I manage daily watch limits and viewing windows for your family's profiles.

*Available Commands:*

📡 /status - Live schedule and budget state
📊 /today - Today's watch time summary
⏳ /limits - Change daily limits
🕐 /schedule - Set or clear the viewing window
📅 /days - Per-weekday overrides
🎁 /bonus - Grant extra minutes for today

*Quick Actions:*`

	keyboard := BuildMainMenuButtons()
	return b.sendMessage(message.Chat.ID, text, keyboard)
}

// handleHelp handles the /help command
func (b *Bot) handleHelp(ctx context.Context, message *tgbotapi.Message) error {
	text := `ℹ️ *How Vigil works*

Every profile has a daily watch budget and an optional viewing window.

⏳ *Limits* are minutes per day, either one shared pool or separate educational and entertainment pools. Pick ♾ to lift a limit.

🕐 *Window* bounds when watching is allowed, like ` + "`16:00-19:30`" + `. Overnight windows such as ` + "`21:00-07:00`" + ` work too.

📅 *Days* override the window or limits on single weekdays, handy for weekends.

🎁 *Bonus* adds extra minutes on top of today's limit without touching the configuration.

Playback stops on its own when the budget runs out or the window closes.`

	return b.sendMessage(message.Chat.ID, text, BuildQuickActionsButtons())
}

// handleStatus handles the /status command
func (b *Bot) handleStatus(ctx context.Context, message *tgbotapi.Message) error {
	profiles, err := b.client.ListProfiles(ctx)
	if err != nil {
		return b.sendMessage(message.Chat.ID, FormatError(err), BuildQuickActionsButtons())
	}

	statuses := make([]*ProfileStatus, 0, len(profiles))
	for _, profile := range profiles {
		status, err := b.client.GetStatus(ctx, profile.ID)
		if err != nil {
			return b.sendMessage(message.Chat.ID, FormatError(err), BuildQuickActionsButtons())
		}
		statuses = append(statuses, status)
	}

	return b.sendMessage(message.Chat.ID, FormatStatus(statuses), BuildQuickActionsButtons())
}

// handleToday handles the /today command
func (b *Bot) handleToday(ctx context.Context, message *tgbotapi.Message) error {
	stats, err := b.client.GetTodayStats(ctx)
	if err != nil {
		return b.sendMessage(message.Chat.ID, FormatError(err), BuildQuickActionsButtons())
	}

	return b.sendMessage(message.Chat.ID, FormatTodayStats(stats), BuildQuickActionsButtons())
}

// handleLimits handles the /limits command (step 0)
func (b *Bot) handleLimits(ctx context.Context, message *tgbotapi.Message) error {
	return b.showProfilePicker(ctx, message, "limits", "⏳ *Set Limit*", false)
}

// handleSchedule handles the /schedule command (step 0)
func (b *Bot) handleSchedule(ctx context.Context, message *tgbotapi.Message) error {
	return b.showProfilePicker(ctx, message, "sched", "🕐 *Viewing Window*", false)
}

// handleDays handles the /days command (step 0)
func (b *Bot) handleDays(ctx context.Context, message *tgbotapi.Message) error {
	return b.showProfilePicker(ctx, message, "days", "📅 *Weekday Overrides*", false)
}

// handleBonus handles the /bonus command (step 0)
func (b *Bot) handleBonus(ctx context.Context, message *tgbotapi.Message) error {
	return b.showProfilePicker(ctx, message, "bonus", "🎁 *Grant Bonus*", false)
}
