package bot

import (
	"fmt"
	"strings"
	"time"
)

// FormatStatus formats every profile's live schedule and budget state
func FormatStatus(statuses []*ProfileStatus) string {
	var sb strings.Builder

	sb.WriteString("📡 *Profile Status*\n\n")

	if len(statuses) == 0 {
		sb.WriteString("No profiles configured yet.\n")
		return sb.String()
	}

	for _, status := range statuses {
		sb.WriteString(fmt.Sprintf("👤 *%s*\n", status.Name))
		sb.WriteString("   " + formatScheduleLine(status.Schedule) + "\n")

		for _, budget := range status.Budgets {
			sb.WriteString("   " + formatBudgetLine(budget) + "\n")
		}

		if status.BonusMinutes > 0 {
			sb.WriteString(fmt.Sprintf("   🎁 Bonus today: +%d min\n", status.BonusMinutes))
		}

		sb.WriteString("\n")
	}

	return sb.String()
}

// FormatTodayStats formats the daily report into a Telegram message
func FormatTodayStats(stats *TodayStats) string {
	var sb strings.Builder

	sb.WriteString("📊 *Today's Watch Time*\n\n")

	if len(stats.Profiles) == 0 {
		sb.WriteString("No profiles configured yet.\n")
		return sb.String()
	}

	for _, profile := range stats.Profiles {
		sb.WriteString(fmt.Sprintf("👤 *%s*: %d%%\n", profile.ProfileName, profile.UsagePercent))
		sb.WriteString("   " + usageBar(profile.UsagePercent) + "\n")
		sb.WriteString(fmt.Sprintf("   Watched: %s\n", formatSeconds(profile.TotalSeconds)))

		// Per-pool breakdown only when there is more than one pool
		if len(profile.Budgets) > 1 {
			for _, budget := range profile.Budgets {
				sb.WriteString("   " + formatBudgetLine(budget) + "\n")
			}
		} else if len(profile.Budgets) == 1 {
			budget := profile.Budgets[0]
			if budget.Unlimited {
				sb.WriteString("   ♾ No limit set\n")
			} else {
				sb.WriteString(fmt.Sprintf("   Limit: %d min", budget.LimitMinutes))
				if budget.BonusMinutes > 0 {
					sb.WriteString(fmt.Sprintf(" (+%d bonus)", budget.BonusMinutes))
				}
				sb.WriteString("\n")
			}
		}

		sb.WriteString("\n")
	}

	if stats.ActiveSessions > 0 {
		sb.WriteString(fmt.Sprintf("🎬 Active sessions: %d\n", stats.ActiveSessions))
	}

	return sb.String()
}

// FormatProfileBudgets formats one profile's budget lines, used in
// wizard confirmations
func FormatProfileBudgets(status *ProfileStatus) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("👤 *%s*\n", status.Name))
	for _, budget := range status.Budgets {
		sb.WriteString(formatBudgetLine(budget) + "\n")
	}
	if status.BonusMinutes > 0 {
		sb.WriteString(fmt.Sprintf("🎁 Bonus today: +%d min\n", status.BonusMinutes))
	}

	return sb.String()
}

// FormatError formats an error message
func FormatError(err error) string {
	return fmt.Sprintf("❌ *Error*\n\n%s", err.Error())
}

// formatScheduleLine renders the schedule state for one profile
func formatScheduleLine(schedule ScheduleStatus) string {
	if schedule.Open {
		if schedule.Stop != "" {
			return fmt.Sprintf("🟢 Open until %s", schedule.Stop)
		}
		return "🟢 Open all day"
	}

	line := "🔴 Closed"
	if next := formatNextOpen(schedule.NextOpenAt); next != "" {
		line += fmt.Sprintf(", opens %s", next)
	}
	return line
}

// formatBudgetLine renders one budget pool's state
func formatBudgetLine(budget Budget) string {
	label := poolLabel(budget.Category)

	if budget.Unlimited {
		return fmt.Sprintf("%s: ♾ no limit, %s watched", label, formatSeconds(budget.UsedSeconds))
	}
	if budget.Exhausted {
		return fmt.Sprintf("%s: ⛔ used up (%d min)", label, effectiveLimit(budget))
	}

	return fmt.Sprintf("%s: %s left of %d min",
		label, formatSeconds(budget.RemainingSeconds), effectiveLimit(budget))
}

// effectiveLimit is the pool's limit including today's bonus
func effectiveLimit(budget Budget) int {
	return budget.LimitMinutes + budget.BonusMinutes
}

// poolLabel returns a display label for a budget pool
func poolLabel(category string) string {
	switch category {
	case "edu":
		return "📚 Edu"
	case "fun":
		return "🎬 Fun"
	case "":
		return "📺 Watch"
	default:
		return category
	}
}

// minutesText renders a minutes limit where zero means unlimited
func minutesText(minutes int) string {
	if minutes == 0 {
		return "no limit"
	}
	return fmt.Sprintf("%d min", minutes)
}

// formatCurrentLimits renders a profile's configured limits in one line
func formatCurrentLimits(profile *Profile) string {
	if profile.Mode == "category" {
		return fmt.Sprintf("edu %s, fun %s", minutesText(profile.EduLimit), minutesText(profile.FunLimit))
	}
	return minutesText(profile.SimpleLimit)
}

// usageBar renders a ten-segment progress bar
func usageBar(percent int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	filled := percent / 10
	return strings.Repeat("▰", filled) + strings.Repeat("▱", 10-filled)
}

// formatSeconds renders watched or remaining seconds as minutes or
// hours and minutes
func formatSeconds(seconds int) string {
	minutes := seconds / 60
	if minutes >= 60 {
		return fmt.Sprintf("%dh %02dm", minutes/60, minutes%60)
	}
	return fmt.Sprintf("%dm", minutes)
}

// formatNextOpen renders the next-open timestamp as weekday and clock
// time in the profile's zone. The daemon already localizes the value.
func formatNextOpen(value string) string {
	if value == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return value
	}
	return t.Format("Mon 15:04")
}
