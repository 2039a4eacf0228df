package bot

import (
	"encoding/json"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// CallbackData is the payload embedded in inline buttons. Telegram
// caps callback data at 64 bytes, so keys are single letters, profiles
// travel as list indexes and weekdays as numeric strings.
type CallbackData struct {
	Action    string `json:"a"`            // flow name (limits, sched, days, bonus)
	SubAction string `json:"sa,omitempty"` // window, limit, copy, clear
	Step      int    `json:"s,omitempty"`  // current step in flow
	Profile   int    `json:"p,omitempty"`  // profile index in list
	Day       string `json:"d,omitempty"`  // weekday, "0" = Sunday
	Category  string `json:"c,omitempty"`  // budget pool or copy-target group
	Minutes   int    `json:"m,omitempty"`  // minutes value
}

// MarshalCallback converts CallbackData to a JSON string
func MarshalCallback(data CallbackData) string {
	b, err := json.Marshal(data)
	if err != nil {
		// Should never happen with simple structs
		return ""
	}
	return string(b)
}

// UnmarshalCallback parses callback data from a JSON string
func UnmarshalCallback(data string) (*CallbackData, error) {
	var cb CallbackData
	if err := json.Unmarshal([]byte(data), &cb); err != nil {
		return nil, fmt.Errorf("failed to unmarshal callback: %w", err)
	}
	return &cb, nil
}

// weekdays in supervisor display order. Num matches time.Weekday, so
// the daemon accepts it verbatim.
var weekdays = []struct {
	Num  string
	Name string
}{
	{"1", "Monday"},
	{"2", "Tuesday"},
	{"3", "Wednesday"},
	{"4", "Thursday"},
	{"5", "Friday"},
	{"6", "Saturday"},
	{"0", "Sunday"},
}

// weekdayLabel returns the display name for a numeric weekday
func weekdayLabel(num string) string {
	for _, day := range weekdays {
		if day.Num == num {
			return day.Name
		}
	}
	return num
}

// BuildProfilesButtons creates buttons for selecting a profile
func BuildProfilesButtons(profiles []Profile, action string, step int) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	// Use the list index instead of the full ID to keep callbacks small
	for i, profile := range profiles {
		callback := MarshalCallback(CallbackData{
			Action:  action,
			Step:    step,
			Profile: i,
		})

		btn := tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("👤 %s", profile.Name),
			callback,
		)
		rows = append(rows, []tgbotapi.InlineKeyboardButton{btn})
	}

	rows = append(rows, []tgbotapi.InlineKeyboardButton{cancelButton()})

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// BuildModeButtons creates buttons for choosing which limit to change
func BuildModeButtons(profileIndex int) tgbotapi.InlineKeyboardMarkup {
	simpleBtn := tgbotapi.NewInlineKeyboardButtonData(
		"⏱ Single daily limit",
		MarshalCallback(CallbackData{Action: "limits", Step: 2, Profile: profileIndex}),
	)

	eduBtn := tgbotapi.NewInlineKeyboardButtonData(
		"📚 Edu pool",
		MarshalCallback(CallbackData{Action: "limits", Step: 2, Profile: profileIndex, Category: "edu"}),
	)

	funBtn := tgbotapi.NewInlineKeyboardButtonData(
		"🎬 Fun pool",
		MarshalCallback(CallbackData{Action: "limits", Step: 2, Profile: profileIndex, Category: "fun"}),
	)

	backBtn := tgbotapi.NewInlineKeyboardButtonData(
		"◀️ Back",
		MarshalCallback(CallbackData{Action: "limits", Step: 0}),
	)

	return tgbotapi.NewInlineKeyboardMarkup(
		[]tgbotapi.InlineKeyboardButton{simpleBtn},
		[]tgbotapi.InlineKeyboardButton{eduBtn, funBtn},
		[]tgbotapi.InlineKeyboardButton{backBtn, cancelButton()},
	)
}

// BuildMinutesButtons creates the minutes grid for a limit change. The
// base callback carries flow position; each button only adds Minutes.
// Zero minutes means no limit, shown as its own row.
func BuildMinutesButtons(base CallbackData, includeUnlimited bool) tgbotapi.InlineKeyboardMarkup {
	durations := []int{15, 30, 45, 60, 90, 120, 180, 240}
	var rows [][]tgbotapi.InlineKeyboardButton

	if includeUnlimited {
		unlimited := base
		unlimited.Minutes = 0
		btn := tgbotapi.NewInlineKeyboardButtonData("♾ No limit", MarshalCallback(unlimited))
		rows = append(rows, []tgbotapi.InlineKeyboardButton{btn})
	}

	row1 := []tgbotapi.InlineKeyboardButton{}
	row2 := []tgbotapi.InlineKeyboardButton{}

	for i, duration := range durations {
		callback := base
		callback.Minutes = duration

		btn := tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("%d", duration),
			MarshalCallback(callback),
		)

		if i < 4 {
			row1 = append(row1, btn)
		} else {
			row2 = append(row2, btn)
		}
	}

	rows = append(rows, row1, row2)

	back := base
	back.Step = back.Step - 2
	back.Category = ""
	back.Minutes = 0
	backBtn := tgbotapi.NewInlineKeyboardButtonData("◀️ Back", MarshalCallback(back))

	rows = append(rows, []tgbotapi.InlineKeyboardButton{backBtn, cancelButton()})

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// BuildBonusButtons creates buttons for selecting bonus minutes
func BuildBonusButtons(profileIndex int) tgbotapi.InlineKeyboardMarkup {
	durations := []int{15, 30, 45, 60, 90, 120}
	var rows [][]tgbotapi.InlineKeyboardButton

	row1 := []tgbotapi.InlineKeyboardButton{}
	row2 := []tgbotapi.InlineKeyboardButton{}

	for i, duration := range durations {
		callback := MarshalCallback(CallbackData{
			Action:  "bonus",
			Step:    2,
			Profile: profileIndex,
			Minutes: duration,
		})

		label := fmt.Sprintf("+%d min", duration)
		btn := tgbotapi.NewInlineKeyboardButtonData(label, callback)

		if i < 3 {
			row1 = append(row1, btn)
		} else {
			row2 = append(row2, btn)
		}
	}

	rows = append(rows, row1, row2)

	backBtn := tgbotapi.NewInlineKeyboardButtonData(
		"◀️ Back",
		MarshalCallback(CallbackData{Action: "bonus", Step: 0}),
	)
	rows = append(rows, []tgbotapi.InlineKeyboardButton{backBtn, cancelButton()})

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// BuildWeekdayButtons creates buttons for selecting a weekday
func BuildWeekdayButtons(profileIndex int) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	row1 := []tgbotapi.InlineKeyboardButton{}
	row2 := []tgbotapi.InlineKeyboardButton{}

	for i, day := range weekdays {
		callback := MarshalCallback(CallbackData{
			Action:  "days",
			Step:    2,
			Profile: profileIndex,
			Day:     day.Num,
		})

		btn := tgbotapi.NewInlineKeyboardButtonData(day.Name[:3], callback)

		if i < 4 {
			row1 = append(row1, btn)
		} else {
			row2 = append(row2, btn)
		}
	}

	rows = append(rows, row1, row2)

	backBtn := tgbotapi.NewInlineKeyboardButtonData(
		"◀️ Back",
		MarshalCallback(CallbackData{Action: "days", Step: 0}),
	)
	rows = append(rows, []tgbotapi.InlineKeyboardButton{backBtn, cancelButton()})

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// BuildDayActionButtons creates buttons for choosing what to change on
// a weekday override
func BuildDayActionButtons(profileIndex int, day string) tgbotapi.InlineKeyboardMarkup {
	windowBtn := tgbotapi.NewInlineKeyboardButtonData(
		"🕐 Window",
		MarshalCallback(CallbackData{Action: "days", SubAction: "window", Step: 3, Profile: profileIndex, Day: day}),
	)

	limitBtn := tgbotapi.NewInlineKeyboardButtonData(
		"⏳ Limit",
		MarshalCallback(CallbackData{Action: "days", SubAction: "limit", Step: 3, Profile: profileIndex, Day: day}),
	)

	copyBtn := tgbotapi.NewInlineKeyboardButtonData(
		"📋 Copy to…",
		MarshalCallback(CallbackData{Action: "days", SubAction: "copy", Step: 3, Profile: profileIndex, Day: day}),
	)

	clearBtn := tgbotapi.NewInlineKeyboardButtonData(
		"🗑 Clear",
		MarshalCallback(CallbackData{Action: "days", SubAction: "clear", Step: 3, Profile: profileIndex, Day: day}),
	)

	backBtn := tgbotapi.NewInlineKeyboardButtonData(
		"◀️ Back",
		MarshalCallback(CallbackData{Action: "days", Step: 1, Profile: profileIndex}),
	)

	return tgbotapi.NewInlineKeyboardMarkup(
		[]tgbotapi.InlineKeyboardButton{windowBtn, limitBtn},
		[]tgbotapi.InlineKeyboardButton{copyBtn, clearBtn},
		[]tgbotapi.InlineKeyboardButton{backBtn, cancelButton()},
	)
}

// BuildDayPoolButtons creates buttons for choosing which category pool
// a weekday limit applies to. Only shown for category-mode profiles.
func BuildDayPoolButtons(profileIndex int, day string) tgbotapi.InlineKeyboardMarkup {
	eduBtn := tgbotapi.NewInlineKeyboardButtonData(
		"📚 Edu pool",
		MarshalCallback(CallbackData{Action: "days", SubAction: "limit", Step: 4, Profile: profileIndex, Day: day, Category: "edu"}),
	)

	funBtn := tgbotapi.NewInlineKeyboardButtonData(
		"🎬 Fun pool",
		MarshalCallback(CallbackData{Action: "days", SubAction: "limit", Step: 4, Profile: profileIndex, Day: day, Category: "fun"}),
	)

	backBtn := tgbotapi.NewInlineKeyboardButtonData(
		"◀️ Back",
		MarshalCallback(CallbackData{Action: "days", Step: 2, Profile: profileIndex, Day: day}),
	)

	return tgbotapi.NewInlineKeyboardMarkup(
		[]tgbotapi.InlineKeyboardButton{eduBtn, funBtn},
		[]tgbotapi.InlineKeyboardButton{backBtn, cancelButton()},
	)
}

// BuildCopyTargetButtons creates buttons for picking which days receive
// a copied override
func BuildCopyTargetButtons(profileIndex int, day string) tgbotapi.InlineKeyboardMarkup {
	schoolBtn := tgbotapi.NewInlineKeyboardButtonData(
		"📅 Mon–Fri",
		MarshalCallback(CallbackData{Action: "days", SubAction: "copy", Step: 4, Profile: profileIndex, Day: day, Category: "week"}),
	)

	weekendBtn := tgbotapi.NewInlineKeyboardButtonData(
		"🛋 Weekend",
		MarshalCallback(CallbackData{Action: "days", SubAction: "copy", Step: 4, Profile: profileIndex, Day: day, Category: "wkend"}),
	)

	allBtn := tgbotapi.NewInlineKeyboardButtonData(
		"🗓 All days",
		MarshalCallback(CallbackData{Action: "days", SubAction: "copy", Step: 4, Profile: profileIndex, Day: day, Category: "all"}),
	)

	backBtn := tgbotapi.NewInlineKeyboardButtonData(
		"◀️ Back",
		MarshalCallback(CallbackData{Action: "days", Step: 2, Profile: profileIndex, Day: day}),
	)

	return tgbotapi.NewInlineKeyboardMarkup(
		[]tgbotapi.InlineKeyboardButton{schoolBtn, weekendBtn},
		[]tgbotapi.InlineKeyboardButton{allBtn},
		[]tgbotapi.InlineKeyboardButton{backBtn, cancelButton()},
	)
}

// BuildScheduleActionButtons creates buttons for the schedule wizard
func BuildScheduleActionButtons(profileIndex int) tgbotapi.InlineKeyboardMarkup {
	setBtn := tgbotapi.NewInlineKeyboardButtonData(
		"🕐 Set window",
		MarshalCallback(CallbackData{Action: "sched", SubAction: "window", Step: 2, Profile: profileIndex}),
	)

	clearBtn := tgbotapi.NewInlineKeyboardButtonData(
		"🗑 Clear window",
		MarshalCallback(CallbackData{Action: "sched", SubAction: "clear", Step: 2, Profile: profileIndex}),
	)

	backBtn := tgbotapi.NewInlineKeyboardButtonData(
		"◀️ Back",
		MarshalCallback(CallbackData{Action: "sched", Step: 0}),
	)

	return tgbotapi.NewInlineKeyboardMarkup(
		[]tgbotapi.InlineKeyboardButton{setBtn, clearBtn},
		[]tgbotapi.InlineKeyboardButton{backBtn, cancelButton()},
	)
}

// BuildMainMenuButtons creates the main menu shortcut buttons
func BuildMainMenuButtons() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📡 Status", "/status"),
			tgbotapi.NewInlineKeyboardButtonData("📊 Today", "/today"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏳ Limits", "/limits"),
			tgbotapi.NewInlineKeyboardButtonData("🕐 Schedule", "/schedule"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📅 Days", "/days"),
			tgbotapi.NewInlineKeyboardButtonData("🎁 Bonus", "/bonus"),
		),
	)
}

// BuildQuickActionsButtons creates compact action buttons for attaching
// to responses
func BuildQuickActionsButtons() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📡 Status", "/status"),
			tgbotapi.NewInlineKeyboardButtonData("📊 Today", "/today"),
			tgbotapi.NewInlineKeyboardButtonData("🎁 Bonus", "/bonus"),
		),
	)
}

// cancelButton returns the shared cancel button
func cancelButton() tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(
		"❌ Cancel",
		MarshalCallback(CallbackData{Action: "cancel"}),
	)
}
