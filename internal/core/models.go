package core

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// LimitMode selects which budget pools apply to a profile
type LimitMode string

const (
	LimitModeSimple   LimitMode = "simple"
	LimitModeCategory LimitMode = "category"
)

// Category classifies watched content for per-category budgets
type Category string

const (
	CategoryEducational   Category = "edu"
	CategoryEntertainment Category = "fun"
)

// WatchSessionStatus represents the current state of a watch session
type WatchSessionStatus string

const (
	WatchSessionActive  WatchSessionStatus = "active"
	WatchSessionEnded   WatchSessionStatus = "ended"
	WatchSessionExpired WatchSessionStatus = "expired"
)

// BlockedReason explains why a heartbeat did not extend playback
type BlockedReason string

const (
	BlockedOutsideSchedule BlockedReason = "outside_schedule"
	BlockedBudgetExhausted BlockedReason = "budget_exhausted"
)

// Profile represents a watcher whose screen time is budgeted
type Profile struct {
	ID            string
	Name          string
	Timezone      string // IANA zone name, empty means UTC
	Mode          LimitMode
	SimpleLimit   int // minutes per day in simple mode, 0 = unlimited
	EduLimit      int // minutes per day for edu content, 0 = unlimited
	FunLimit      int // minutes per day for fun content, 0 = unlimited
	ScheduleStart string // "HH:MM", empty = no lower edge
	ScheduleStop  string // "HH:MM", empty = no upper edge
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DayOverride replaces parts of a profile's settings on one weekday.
// Nil fields fall through to the profile's globals. Limit fields are
// only ever stored for the mode the profile is currently in.
type DayOverride struct {
	ProfileID     string
	Weekday       time.Weekday
	ScheduleStart *string
	ScheduleStop  *string
	SimpleLimit   *int
	EduLimit      *int
	FunLimit      *int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// WatchSession binds a playback session to one profile, video and
// category. The binding is immutable for the session's lifetime.
type WatchSession struct {
	ID              string
	ProfileID       string
	VideoID         string
	Category        Category
	Status          WatchSessionStatus
	StartedAt       time.Time
	LastHeartbeatAt *time.Time
	EndedAt         *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// LedgerEntry accumulates watched seconds for one profile, local
// calendar date and category. The counter only ever increases.
type LedgerEntry struct {
	ProfileID string
	Date      time.Time // normalized to start of day in the profile's zone
	Category  Category
	Seconds   int
	UpdatedAt time.Time
}

// Validation and lookup errors
var (
	ErrProfileNotFound   = errors.New("profile not found")
	ErrSessionNotFound   = errors.New("watch session not found")
	ErrOverrideNotFound  = errors.New("day override not found")
	ErrSessionMismatch   = errors.New("heartbeat does not match the bound session")
	ErrSessionNotActive  = errors.New("watch session is not active")
	ErrConfigConflict    = errors.New("limit fields conflict with the profile's mode")
	ErrInvalidName       = errors.New("profile name cannot be empty")
	ErrInvalidCategory   = errors.New("unknown category")
	ErrInvalidWeekday    = errors.New("invalid weekday")
	ErrInvalidLimit      = errors.New("limit minutes cannot be negative")
	ErrInvalidBonus      = errors.New("bonus minutes out of range")
	ErrInvalidTimeFormat = errors.New("time must look like 800, 8:00 or 8:00pm")
	ErrInvalidTimezone   = errors.New("invalid timezone")
	ErrInvalidVideoID    = errors.New("video ID cannot be empty")
)

// Validate validates a Profile
func (p *Profile) Validate() error {
	if p.Name == "" {
		return ErrInvalidName
	}
	if p.Mode != LimitModeSimple && p.Mode != LimitModeCategory {
		return fmt.Errorf("%w: %q", ErrConfigConflict, p.Mode)
	}
	if p.SimpleLimit < 0 || p.EduLimit < 0 || p.FunLimit < 0 {
		return ErrInvalidLimit
	}
	if p.Timezone != "" {
		if _, err := time.LoadLocation(p.Timezone); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidTimezone, p.Timezone)
		}
	}
	return nil
}

// Location resolves the profile's timezone. On an invalid zone it
// returns UTC together with the error so callers can keep going.
func (p *Profile) Location() (*time.Location, error) {
	if p.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC, fmt.Errorf("%w: %q", ErrInvalidTimezone, p.Timezone)
	}
	return loc, nil
}

// PoolLimit returns the profile's global limit in minutes for the pool
// the given category draws from. 0 means unlimited.
func (p *Profile) PoolLimit(category Category) int {
	if p.Mode == LimitModeSimple {
		return p.SimpleLimit
	}
	if category == CategoryEducational {
		return p.EduLimit
	}
	return p.FunLimit
}

// PoolLimit returns the override's limit for the pool the category
// draws from under the given mode, or nil when not overridden.
func (o *DayOverride) PoolLimit(mode LimitMode, category Category) *int {
	if o == nil {
		return nil
	}
	if mode == LimitModeSimple {
		return o.SimpleLimit
	}
	if category == CategoryEducational {
		return o.EduLimit
	}
	return o.FunLimit
}

// HasWindow reports whether the override sets either schedule edge
func (o *DayOverride) HasWindow() bool {
	return o != nil && (o.ScheduleStart != nil || o.ScheduleStop != nil)
}

// Window returns the override's schedule edges, mapping nil to empty
func (o *DayOverride) Window() (start, stop string) {
	if o.ScheduleStart != nil {
		start = *o.ScheduleStart
	}
	if o.ScheduleStop != nil {
		stop = *o.ScheduleStop
	}
	return start, stop
}

// IsActive returns true if the session is still accepting heartbeats
func (s *WatchSession) IsActive() bool {
	return s.Status == WatchSessionActive
}

// Validate validates a WatchSession before it is persisted
func (s *WatchSession) Validate() error {
	if s.ProfileID == "" {
		return ErrProfileNotFound
	}
	if s.VideoID == "" {
		return ErrInvalidVideoID
	}
	if s.Category != CategoryEducational && s.Category != CategoryEntertainment {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, s.Category)
	}
	return nil
}

// ParseCategory normalizes user input to a known category. Empty input
// falls back to fun, which also absorbs uncategorized content.
func ParseCategory(s string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return CategoryEntertainment, nil
	case CategoryEducational:
		return CategoryEducational, nil
	case CategoryEntertainment:
		return CategoryEntertainment, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday accepts a lowercase day name ("monday") or a numeric
// weekday (0 = Sunday, matching time.Weekday).
func ParseWeekday(s string) (time.Weekday, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if d, ok := weekdayNames[key]; ok {
		return d, nil
	}
	if len(key) == 1 && key[0] >= '0' && key[0] <= '6' {
		return time.Weekday(key[0] - '0'), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, s)
}

// Matches: 800, 0800, 8:00, 800am, 8:00am, 800pm, 8:00PM, 2000, 20:00
var clockTimeRe = regexp.MustCompile(`(?i)^(\d{1,2}):?(\d{2})\s*(am|pm)?$`)

// ParseClockTime parses flexible time input into 24-hour "HH:MM"
func ParseClockTime(raw string) (string, error) {
	m := clockTimeRe.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidTimeFormat, raw)
	}
	hour := int(m[1][0] - '0')
	if len(m[1]) == 2 {
		hour = hour*10 + int(m[1][1]-'0')
	}
	minute := int(m[2][0]-'0')*10 + int(m[2][1]-'0')

	switch strings.ToLower(m[3]) {
	case "am":
		if hour == 12 {
			hour = 0
		} else if hour > 12 {
			return "", fmt.Errorf("%w: %q", ErrInvalidTimeFormat, raw)
		}
	case "pm":
		if hour > 12 {
			return "", fmt.Errorf("%w: %q", ErrInvalidTimeFormat, raw)
		}
		if hour != 12 {
			hour += 12
		}
	default:
		if hour > 23 {
			return "", fmt.Errorf("%w: %q", ErrInvalidTimeFormat, raw)
		}
	}
	if minute > 59 {
		return "", fmt.Errorf("%w: %q", ErrInvalidTimeFormat, raw)
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}

// FormatClock12h renders "HH:MM" as "8:00 AM" style text for humans
func FormatClock12h(hhmm string) string {
	minutes, err := minutesOfDay(hhmm)
	if err != nil {
		return hhmm
	}
	h, m := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("12:%02d AM", m)
	case h < 12:
		return fmt.Sprintf("%d:%02d AM", h, m)
	case h == 12:
		return fmt.Sprintf("12:%02d PM", m)
	default:
		return fmt.Sprintf("%d:%02d PM", h-12, m)
	}
}

// minutesOfDay converts a normalized "HH:MM" string to minutes since
// midnight
func minutesOfDay(hhmm string) (int, error) {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, hhmm)
	}
	var h, m int
	if _, err := fmt.Sscanf(hhmm, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, hhmm)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, hhmm)
	}
	return h*60 + m, nil
}
