package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// pendingInput tracks a wizard waiting for a typed reply
type pendingInput struct {
	Action     string // sched or days
	ProfileID  string
	Name       string // profile display name
	Day        string // numeric weekday, set for day windows
	PromptedAt time.Time
}

// pendingInputTTL caps how long a wizard waits for its reply
const pendingInputTTL = 10 * time.Minute

// flowStore holds per-chat wizard state between a prompt and its typed
// reply. Volatile on purpose: a restart just drops half-open wizards.
type flowStore struct {
	mu    sync.Mutex
	flows map[int64]*pendingInput
}

func newFlowStore() *flowStore {
	return &flowStore{flows: make(map[int64]*pendingInput)}
}

// set registers a waiting wizard for the chat
func (f *flowStore) set(chatID int64, input *pendingInput) {
	f.mu.Lock()
	defer f.mu.Unlock()
	input.PromptedAt = time.Now()
	f.flows[chatID] = input
}

// take removes and returns the waiting wizard, if any. Stale entries
// count as absent.
func (f *flowStore) take(chatID int64) *pendingInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	input, ok := f.flows[chatID]
	if !ok {
		return nil
	}
	delete(f.flows, chatID)
	if time.Since(input.PromptedAt) > pendingInputTTL {
		return nil
	}
	return input
}

// clear drops any waiting wizard for the chat
func (f *flowStore) clear(chatID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.flows, chatID)
}

// resolveProfile maps a button index back to the current profile list
func (b *Bot) resolveProfile(ctx context.Context, index int) (*Profile, error) {
	profiles, err := b.client.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}

	if index < 0 || index >= len(profiles) {
		return nil, fmt.Errorf("invalid profile index: %d", index)
	}

	return &profiles[index], nil
}

// showProfilePicker renders the profile selection step shared by every
// wizard. edit switches between editing the wizard message and sending
// a fresh one.
func (b *Bot) showProfilePicker(ctx context.Context, message *tgbotapi.Message, action, title string, edit bool) error {
	profiles, err := b.client.ListProfiles(ctx)
	if err != nil {
		return b.respond(message, edit, FormatError(err), BuildQuickActionsButtons())
	}

	if len(profiles) == 0 {
		return b.respond(message, edit,
			"No profiles configured yet. Create one through the API first.",
			BuildQuickActionsButtons())
	}

	text := title + "\n\n👤 Pick a profile:"
	keyboard := BuildProfilesButtons(profiles, action, 1)

	return b.respond(message, edit, text, keyboard)
}

// respond either edits the wizard message or sends a new one
func (b *Bot) respond(message *tgbotapi.Message, edit bool, text string, keyboard interface{}) error {
	if edit {
		return b.editMessage(message.Chat.ID, message.MessageID, text, keyboard)
	}
	return b.sendMessage(message.Chat.ID, text, keyboard)
}

// handleLimitsFlow drives the /limits wizard: profile, pool, minutes
func (b *Bot) handleLimitsFlow(ctx context.Context, message *tgbotapi.Message, data *CallbackData) error {
	switch data.Step {
	case 0:
		return b.showProfilePicker(ctx, message, "limits", "⏳ *Set Limit*", true)
	case 1:
		return b.limitsPickMode(ctx, message, data.Profile)
	case 2:
		return b.limitsPickMinutes(ctx, message, data)
	case 3:
		return b.limitsApply(ctx, message, data)
	default:
		return b.editMessage(message.Chat.ID, message.MessageID,
			"❌ Invalid step in limits flow.", nil)
	}
}

// limitsPickMode shows the limit choice for the selected profile
func (b *Bot) limitsPickMode(ctx context.Context, message *tgbotapi.Message, profileIndex int) error {
	profile, err := b.resolveProfile(ctx, profileIndex)
	if err != nil {
		return b.editMessage(message.Chat.ID, message.MessageID, FormatError(err), BuildQuickActionsButtons())
	}

	text := fmt.Sprintf("⏳ *Set Limit*\n\n👤 *%s*\nCurrent: %s\n\nWhich limit should change?",
		profile.Name, formatCurrentLimits(profile))
	keyboard := BuildModeButtons(profileIndex)

	return b.editMessage(message.Chat.ID, message.MessageID, text, keyboard)
}

// limitsPickMinutes shows the minutes grid for the chosen pool
func (b *Bot) limitsPickMinutes(ctx context.Context, message *tgbotapi.Message, data *CallbackData) error {
	base := CallbackData{Action: "limits", Step: 3, Profile: data.Profile, Category: data.Category}

	text := fmt.Sprintf("⏳ *Set Limit*\n\n%s pool\n\nPick the daily minutes:", poolLabel(data.Category))
	keyboard := BuildMinutesButtons(base, true)

	return b.editMessage(message.Chat.ID, message.MessageID, text, keyboard)
}

// limitsApply sends the limit change to the daemon
func (b *Bot) limitsApply(ctx context.Context, message *tgbotapi.Message, data *CallbackData) error {
	profile, err := b.resolveProfile(ctx, data.Profile)
	if err != nil {
		return b.editMessage(message.Chat.ID, message.MessageID, FormatError(err), BuildQuickActionsButtons())
	}

	req := SetLimitRequest{Mode: "simple", Minutes: data.Minutes}
	if data.Category != "" {
		req.Mode = "category"
		req.Category = data.Category
	}

	if err := b.client.SetLimit(ctx, profile.ID, req); err != nil {
		return b.editMessage(message.Chat.ID, message.MessageID, FormatError(err), BuildQuickActionsButtons())
	}

	text := "✅ *Limit updated*\n\n"
	if status, err := b.client.GetStatus(ctx, profile.ID); err == nil {
		text += FormatProfileBudgets(status)
	} else {
		text += fmt.Sprintf("👤 *%s*: %s %s", profile.Name, poolLabel(data.Category), minutesText(data.Minutes))
	}

	return b.editMessage(message.Chat.ID, message.MessageID, text, BuildQuickActionsButtons())
}

// handleScheduleFlow drives the /schedule wizard
func (b *Bot) handleScheduleFlow(ctx context.Context, message *tgbotapi.Message, data *CallbackData) error {
	switch {
	case data.Step == 0:
		return b.showProfilePicker(ctx, message, "sched", "🕐 *Viewing Window*", true)
	case data.Step == 1:
		return b.schedulePickAction(ctx, message, data.Profile)
	case data.Step == 2 && data.SubAction == "window":
		return b.schedulePromptWindow(ctx, message, data.Profile)
	case data.Step == 2 && data.SubAction == "clear":
		return b.scheduleClear(ctx, message, data.Profile)
	default:
		return b.editMessage(message.Chat.ID, message.MessageID,
			"❌ Invalid step in schedule flow.", nil)
	}
}

// schedulePickAction shows the current window and the set/clear choice
func (b *Bot) schedulePickAction(ctx context.Context, message *tgbotapi.Message, profileIndex int) error {
	profile, err := b.resolveProfile(ctx, profileIndex)
	if err != nil {
		return b.editMessage(message.Chat.ID, message.MessageID, FormatError(err), BuildQuickActionsButtons())
	}

	text := fmt.Sprintf("🕐 *Viewing Window*\n\n👤 *%s*\nCurrent: %s",
		profile.Name, describeWindow(profile.ScheduleStart, profile.ScheduleStop))
	keyboard := BuildScheduleActionButtons(profileIndex)

	return b.editMessage(message.Chat.ID, message.MessageID, text, keyboard)
}

// schedulePromptWindow asks for the window as typed text
func (b *Bot) schedulePromptWindow(ctx context.Context, message *tgbotapi.Message, profileIndex int) error {
	profile, err := b.resolveProfile(ctx, profileIndex)
	if err != nil {
		return b.editMessage(message.Chat.ID, message.MessageID, FormatError(err), BuildQuickActionsButtons())
	}

	b.flows.set(message.Chat.ID, &pendingInput{
		Action:    "sched",
		ProfileID: profile.ID,
		Name:      profile.Name,
	})

	text := fmt.Sprintf("🕐 *Set Window for %s*\n\n"+
		"Reply with the window as `start-stop`, for example `16:00-19:30` or `4pm-8:30pm`.\n"+
		"Leave one side empty (`-19:30`) to bound only that edge.",
		profile.Name)
	keyboard := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(cancelButton()))

	return b.editMessage(message.Chat.ID, message.MessageID, text, keyboard)
}

// scheduleClear removes the profile's window
func (b *Bot) scheduleClear(ctx context.Context, message *tgbotapi.Message, profileIndex int) error {
	profile, err := b.resolveProfile(ctx, profileIndex)
	if err != nil {
		return b.editMessage(message.Chat.ID, message.MessageID, FormatError(err), BuildQuickActionsButtons())
	}

	if err := b.client.ClearSchedule(ctx, profile.ID); err != nil {
		return b.editMessage(message.Chat.ID, message.MessageID, FormatError(err), BuildQuickActionsButtons())
	}

	text := fmt.Sprintf("✅ Window cleared for *%s*. Watching is allowed at any hour.", profile.Name)
	return b.editMessage(message.Chat.ID, message.MessageID, text, BuildQuickActionsButtons())
}

// handleDaysFlow drives the /days wizard: profile, weekday, action
func (b *Bot) handleDaysFlow(ctx context.Context, message *tgbotapi.Message, data *CallbackData) error {
	switch data.Step {
	case 0:
		return b.showProfilePicker(ctx, message, "days", "📅 *Weekday Overrides*", true)
	case 1:
		return b.daysPickWeekday(ctx, message, data.Profile)
	case 2:
		return b.daysPickAction(ctx, message, data)
	case 3:
		switch data.SubAction {
		case "window":
			return b.daysPromptWindow(ctx, message, data)
		case "limit":
			return b.daysPickPoolOrMinutes(ctx, message, data)
		case "copy":
			return b.daysPickCopyTargets(ctx, message, data)
		case "clear":
			return b.daysClear(ctx, message, data)
		}
	case 4:
		switch data.SubAction {
		case "limit":
			if data.Category == "" {
				return b.daysApplyLimit(ctx, message, data)
			}
			return b.daysPickMinutes(ctx, message, data)
		case "copy":
			return b.daysApplyCopy(ctx, message, data)
		}
	case 5:
		if data.SubAction == "limit" {
			return b.daysApplyLimit(ctx, message, data)
		}
	}

	return b.editMessage(message.Chat.ID, message.MessageID,
		"❌ Invalid step in days flow.", nil)
}

// daysPickWeekday shows the weekday grid, listing days that already
// carry an override
func (b *Bot) daysPickWeekday(ctx context.Context, message *tgbotapi.Message, profileIndex int) error {
	profile, err := b.resolveProfile(ctx, profileIndex)
	if err != nil {
		return b.editMessage(message.Chat.ID, message.MessageID, FormatError(err), BuildQuickActionsButtons())
	}

	text := fmt.Sprintf("📅 *Weekday Overrides*\n\n👤 *%s*\nPick a day:", profile.Name)

	if overrides, err := b.client.GetDayOverrides(ctx, profile.ID); err == nil && len(overrides) > 0 {
		names := make([]string, 0, len(overrides))
		for _, override := range overrides {
			names = append(names, titleWeekday(override.Weekday))
		}
		text += "\n\nOverrides set: " + strings.Join(names, ", ")
	}

	keyboard := BuildWeekdayButtons(profileIndex)
	return b.editMessage(message.Chat.ID, message.MessageID, text, keyboard)
}

// daysPickAction shows the chosen day's current override and what can
// change on it
func (b *Bot) daysPickAction(ctx context.Context, message *tgbotapi.Message, data *CallbackData) error {
	profile, err := b.resolveProfile(ctx, data.Profile)
	if err != nil {
		return b.editMessage(message.Chat.ID, message.MessageID, FormatError(err), BuildQuickActionsButtons())
	}

	current := "No override, profile defaults apply."
	if overrides, err := b.client.GetDayOverrides(ctx, profile.ID); err == nil {
		if existing := findOverride(overrides, data.Day); existing != nil {
			current = describeOverride(existing)
		}
	}

	text := fmt.Sprintf("📅 *%s* for *%s*\n%s\n\nWhat should change?",
		weekdayLabel(data.Day), profile.Name, current)
	keyboard := BuildDayActionButtons(data.Profile, data.Day)

	return b.editMessage(message.Chat.ID, message.MessageID, text, keyboard)
}

// daysPromptWindow asks for the day's window as typed text
func (b *Bot) daysPromptWindow(ctx context.Context, message *tgbotapi.Message, data *CallbackData) error {
	profile, err := b.resolveProfile(ctx, data.Profile)
	if err != nil {
		return b.editMessage(message.Chat.ID, message.MessageID, FormatError(err), BuildQuickActionsButtons())
	}

	b.flows.set(message.Chat.ID, &pendingInput{
		Action:    "days",
		ProfileID: profile.ID,
		Name:      profile.Name,
		Day:       data.Day,
	})

	text := fmt.Sprintf("🕐 *%s window for %s*\n\n"+
		"Reply with the window as `start-stop`, for example `10:00-20:00`.\n"+
		"Send `-` alone to make the whole day open.",
		weekdayLabel(data.Day), profile.Name)
	keyboard := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(cancelButton()))

	return b.editMessage(message.Chat.ID, message.MessageID, text, keyboard)
}

// daysPickPoolOrMinutes branches on the profile mode: category-mode
// profiles pick a pool first, simple ones go straight to minutes
func (b *Bot) daysPickPoolOrMinutes(ctx context.Context, message *tgbotapi.Message, data *CallbackData) error {
	profile, err := b.resolveProfile(ctx, data.Profile)
	if err != nil {
		return b.editMessage(message.Chat.ID, message.MessageID, FormatError(err), BuildQuickActionsButtons())
	}

	if profile.Mode == "category" {
		text := fmt.Sprintf("⏳ *%s limit for %s*\n\nWhich pool?", weekdayLabel(data.Day), profile.Name)
		return b.editMessage(message.Chat.ID, message.MessageID, text, BuildDayPoolButtons(data.Profile, data.Day))
	}

	base := CallbackData{Action: "days", SubAction: "limit", Step: 4, Profile: data.Profile, Day: data.Day}
	text := fmt.Sprintf("⏳ *%s limit for %s*\n\nPick the daily minutes:", weekdayLabel(data.Day), profile.Name)

	return b.editMessage(message.Chat.ID, message.MessageID, text, BuildMinutesButtons(base, true))
}

// daysPickMinutes shows the minutes grid after a pool was chosen
func (b *Bot) daysPickMinutes(ctx context.Context, message *tgbotapi.Message, data *CallbackData) error {
	base := CallbackData{Action: "days", SubAction: "limit", Step: 5, Profile: data.Profile, Day: data.Day, Category: data.Category}

	text := fmt.Sprintf("⏳ *%s %s limit*\n\nPick the daily minutes:",
		weekdayLabel(data.Day), poolLabel(data.Category))

	return b.editMessage(message.Chat.ID, message.MessageID, text, BuildMinutesButtons(base, true))
}

// daysApplyLimit writes the day limit, carrying the rest of the stored
// override along
func (b *Bot) daysApplyLimit(ctx context.Context, message *tgbotapi.Message, data *CallbackData) error {
	profile, err := b.resolveProfile(ctx, data.Profile)
	if err != nil {
		return b.editMessage(message.Chat.ID, message.MessageID, FormatError(err), BuildQuickActionsButtons())
	}

	req, err := b.mergeOverrideRequest(ctx, profile.ID, data.Day)
	if err != nil {
		return b.editMessage(message.Chat.ID, message.MessageID, FormatError(err), BuildQuickActionsButtons())
	}

	minutes := data.Minutes
	switch data.Category {
	case "edu":
		req.EduLimit = &minutes
	case "fun":
		req.FunLimit = &minutes
	default:
		req.SimpleLimit = &minutes
	}

	if err := b.client.SetDayOverride(ctx, profile.ID, data.Day, req); err != nil {
		return b.editMessage(message.Chat.ID, message.MessageID, FormatError(err), BuildQuickActionsButtons())
	}

	text := fmt.Sprintf("✅ *%s updated* for *%s*\n%s: %s",
		weekdayLabel(data.Day), profile.Name, poolLabel(data.Category), minutesText(minutes))
	return b.editMessage(message.Chat.ID, message.MessageID, text, BuildQuickActionsButtons())
}

// daysPickCopyTargets checks the source day has something to copy, then
// shows the target groups
func (b *Bot) daysPickCopyTargets(ctx context.Context, message *tgbotapi.Message, data *CallbackData) error {
	profile, err := b.resolveProfile(ctx, data.Profile)
	if err != nil {
		return b.editMessage(message.Chat.ID, message.MessageID, FormatError(err), BuildQuickActionsButtons())
	}

	overrides, err := b.client.GetDayOverrides(ctx, profile.ID)
	if err != nil {
		return b.editMessage(message.Chat.ID, message.MessageID, FormatError(err), BuildQuickActionsButtons())
	}

	if findOverride(overrides, data.Day) == nil {
		text := fmt.Sprintf("❌ *%s* has no override to copy. Set a window or limit first.", weekdayLabel(data.Day))
		return b.editMessage(message.Chat.ID, message.MessageID, text, BuildDayActionButtons(data.Profile, data.Day))
	}

	text := fmt.Sprintf("📋 *Copy %s* for *%s*\n\nCopy to which days?", weekdayLabel(data.Day), profile.Name)
	return b.editMessage(message.Chat.ID, message.MessageID, text, BuildCopyTargetButtons(data.Profile, data.Day))
}

// daysApplyCopy copies the override onto the chosen day group
func (b *Bot) daysApplyCopy(ctx context.Context, message *tgbotapi.Message, data *CallbackData) error {
	profile, err := b.resolveProfile(ctx, data.Profile)
	if err != nil {
		return b.editMessage(message.Chat.ID, message.MessageID, FormatError(err), BuildQuickActionsButtons())
	}

	targets := copyTargets(data.Category, data.Day)
	if len(targets) == 0 {
		return b.editMessage(message.Chat.ID, message.MessageID,
			"❌ Nothing to copy to.", BuildQuickActionsButtons())
	}

	if err := b.client.CopyDayOverride(ctx, profile.ID, data.Day, targets); err != nil {
		return b.editMessage(message.Chat.ID, message.MessageID, FormatError(err), BuildQuickActionsButtons())
	}

	names := make([]string, len(targets))
	for i, target := range targets {
		names[i] = weekdayLabel(target)[:3]
	}

	text := fmt.Sprintf("✅ *%s copied* to %s for *%s*",
		weekdayLabel(data.Day), strings.Join(names, ", "), profile.Name)
	return b.editMessage(message.Chat.ID, message.MessageID, text, BuildQuickActionsButtons())
}

// daysClear removes the day's override
func (b *Bot) daysClear(ctx context.Context, message *tgbotapi.Message, data *CallbackData) error {
	profile, err := b.resolveProfile(ctx, data.Profile)
	if err != nil {
		return b.editMessage(message.Chat.ID, message.MessageID, FormatError(err), BuildQuickActionsButtons())
	}

	if err := b.client.ClearDayOverride(ctx, profile.ID, data.Day); err != nil {
		return b.editMessage(message.Chat.ID, message.MessageID, FormatError(err), BuildQuickActionsButtons())
	}

	text := fmt.Sprintf("✅ *%s override cleared* for *%s*. That day follows the profile defaults again.",
		weekdayLabel(data.Day), profile.Name)
	return b.editMessage(message.Chat.ID, message.MessageID, text, BuildQuickActionsButtons())
}

// handleBonusFlow drives the /bonus wizard: profile, minutes
func (b *Bot) handleBonusFlow(ctx context.Context, message *tgbotapi.Message, data *CallbackData) error {
	switch data.Step {
	case 0:
		return b.showProfilePicker(ctx, message, "bonus", "🎁 *Grant Bonus*", true)
	case 1:
		return b.bonusPickMinutes(ctx, message, data.Profile)
	case 2:
		return b.bonusApply(ctx, message, data)
	default:
		return b.editMessage(message.Chat.ID, message.MessageID,
			"❌ Invalid step in bonus flow.", nil)
	}
}

// bonusPickMinutes shows the bonus minute choices
func (b *Bot) bonusPickMinutes(ctx context.Context, message *tgbotapi.Message, profileIndex int) error {
	profile, err := b.resolveProfile(ctx, profileIndex)
	if err != nil {
		return b.editMessage(message.Chat.ID, message.MessageID, FormatError(err), BuildQuickActionsButtons())
	}

	text := fmt.Sprintf("🎁 *Grant Bonus*\n\n👤 *%s*\nExtra minutes for today:", profile.Name)
	return b.editMessage(message.Chat.ID, message.MessageID, text, BuildBonusButtons(profileIndex))
}

// bonusApply grants the bonus and shows the refreshed budgets
func (b *Bot) bonusApply(ctx context.Context, message *tgbotapi.Message, data *CallbackData) error {
	profile, err := b.resolveProfile(ctx, data.Profile)
	if err != nil {
		return b.editMessage(message.Chat.ID, message.MessageID, FormatError(err), BuildQuickActionsButtons())
	}

	if err := b.client.GrantBonus(ctx, profile.ID, data.Minutes); err != nil {
		return b.editMessage(message.Chat.ID, message.MessageID, FormatError(err), BuildQuickActionsButtons())
	}

	text := fmt.Sprintf("🎁 *Bonus granted*\n\n+%d min for *%s* today\n\n", data.Minutes, profile.Name)
	if status, err := b.client.GetStatus(ctx, profile.ID); err == nil {
		text += FormatProfileBudgets(status)
	}

	return b.editMessage(message.Chat.ID, message.MessageID, text, BuildQuickActionsButtons())
}

// handleFlowInput consumes a typed reply for a waiting wizard. Returns
// false when nothing is waiting so the caller can drop the message.
func (b *Bot) handleFlowInput(ctx context.Context, message *tgbotapi.Message) (bool, error) {
	input := b.flows.take(message.Chat.ID)
	if input == nil {
		return false, nil
	}

	start, stop, err := splitWindow(message.Text)
	if err != nil {
		b.flows.set(message.Chat.ID, input)
		return true, b.sendMessage(message.Chat.ID,
			"❌ Could not read that. Send the window as `start-stop`, for example `16:00-19:30`.", nil)
	}

	switch input.Action {
	case "sched":
		if err := b.client.SetSchedule(ctx, input.ProfileID, start, stop); err != nil {
			// Bad clock input comes back as an API error; keep waiting
			b.flows.set(message.Chat.ID, input)
			return true, b.sendMessage(message.Chat.ID, FormatError(err), nil)
		}

		text := fmt.Sprintf("✅ Window for *%s*: %s", input.Name, describeWindow(start, stop))
		return true, b.sendMessage(message.Chat.ID, text, BuildQuickActionsButtons())

	case "days":
		req, err := b.mergeOverrideRequest(ctx, input.ProfileID, input.Day)
		if err != nil {
			b.flows.set(message.Chat.ID, input)
			return true, b.sendMessage(message.Chat.ID, FormatError(err), nil)
		}
		req.Start = &start
		req.Stop = &stop

		if err := b.client.SetDayOverride(ctx, input.ProfileID, input.Day, req); err != nil {
			b.flows.set(message.Chat.ID, input)
			return true, b.sendMessage(message.Chat.ID, FormatError(err), nil)
		}

		text := fmt.Sprintf("✅ *%s* window for *%s*: %s",
			weekdayLabel(input.Day), input.Name, describeWindow(start, stop))
		return true, b.sendMessage(message.Chat.ID, text, BuildQuickActionsButtons())
	}

	return true, nil
}

// mergeOverrideRequest seeds a request with the stored override so a
// single-field change does not wipe the rest of the day's settings
func (b *Bot) mergeOverrideRequest(ctx context.Context, profileID, day string) (DayOverrideRequest, error) {
	var req DayOverrideRequest

	overrides, err := b.client.GetDayOverrides(ctx, profileID)
	if err != nil {
		return req, err
	}

	if existing := findOverride(overrides, day); existing != nil {
		req.Start = existing.Start
		req.Stop = existing.Stop
		req.SimpleLimit = existing.SimpleLimit
		req.EduLimit = existing.EduLimit
		req.FunLimit = existing.FunLimit
	}

	return req, nil
}

// findOverride returns the stored override for a numeric weekday, or nil
func findOverride(overrides []DayOverride, day string) *DayOverride {
	name := strings.ToLower(weekdayLabel(day))
	for i := range overrides {
		if overrides[i].Weekday == name {
			return &overrides[i]
		}
	}
	return nil
}

// describeOverride renders a stored override in one line
func describeOverride(override *DayOverride) string {
	var parts []string

	if override.Start != nil || override.Stop != nil {
		start, stop := "", ""
		if override.Start != nil {
			start = *override.Start
		}
		if override.Stop != nil {
			stop = *override.Stop
		}
		parts = append(parts, "window "+describeWindow(start, stop))
	}
	if override.SimpleLimit != nil {
		parts = append(parts, "limit "+minutesText(*override.SimpleLimit))
	}
	if override.EduLimit != nil {
		parts = append(parts, "edu "+minutesText(*override.EduLimit))
	}
	if override.FunLimit != nil {
		parts = append(parts, "fun "+minutesText(*override.FunLimit))
	}

	if len(parts) == 0 {
		return "Override set with profile defaults."
	}
	return "Override: " + strings.Join(parts, ", ") + "."
}

// copyTargets expands a target group into numeric weekdays, minus the
// source day
func copyTargets(group, source string) []string {
	var days []string
	switch group {
	case "week":
		days = []string{"1", "2", "3", "4", "5"}
	case "wkend":
		days = []string{"6", "0"}
	case "all":
		days = []string{"1", "2", "3", "4", "5", "6", "0"}
	}

	targets := make([]string, 0, len(days))
	for _, day := range days {
		if day != source {
			targets = append(targets, day)
		}
	}
	return targets
}

// splitWindow splits typed "start-stop" input. Either side may be
// empty; a lone "-" clears both edges.
func splitWindow(text string) (string, string, error) {
	parts := strings.SplitN(strings.TrimSpace(text), "-", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("window must look like start-stop")
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
}

// describeWindow renders a window's edges for display
func describeWindow(start, stop string) string {
	switch {
	case start == "" && stop == "":
		return "open all day"
	case start == "":
		return "until " + stop
	case stop == "":
		return "from " + start
	default:
		return start + " to " + stop
	}
}

// titleWeekday capitalizes a lowercase weekday name for display
func titleWeekday(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
