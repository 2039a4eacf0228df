package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Bounds for a single bonus grant, in minutes
const (
	MinBonusMinutes = 1
	MaxBonusMinutes = 480
)

// LimitStorage defines the storage operations the configuration
// mutators need
type LimitStorage interface {
	GetProfile(ctx context.Context, id string) (*Profile, error)
	UpdateProfile(ctx context.Context, profile *Profile) error

	GetDayOverride(ctx context.Context, profileID string, weekday time.Weekday) (*DayOverride, error)
	UpsertDayOverride(ctx context.Context, override *DayOverride) error
	DeleteDayOverride(ctx context.Context, profileID string, weekday time.Weekday) error
	// ClearOverrideLimits nulls the limit fields belonging to the given
	// mode on every override of the profile.
	ClearOverrideLimits(ctx context.Context, profileID string, mode LimitMode) error

	AddBonusMinutes(ctx context.Context, profileID string, date time.Time, minutes int) error
}

// LimitService applies configuration changes: limits, schedules, day
// overrides and bonus grants. Changes are plain storage writes that
// take effect on the next schedule or budget evaluation.
type LimitService struct {
	storage   LimitStorage
	clock     Clock
	logger    *slog.Logger
	locations *locationCache
}

// NewLimitService creates a new limit service
func NewLimitService(storage LimitStorage, clock Clock, logger *slog.Logger) *LimitService {
	if clock == nil {
		clock = RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LimitService{
		storage:   storage,
		clock:     clock,
		logger:    logger,
		locations: newLocationCache(logger),
	}
}

// SetSimpleLimit stores a flat daily limit (0 = unlimited), switches
// the profile to simple mode and scrubs both category pools, global
// and per-day alike
func (l *LimitService) SetSimpleLimit(ctx context.Context, profileID string, minutes int) error {
	if minutes < 0 {
		return ErrInvalidLimit
	}
	profile, err := l.storage.GetProfile(ctx, profileID)
	if err != nil {
		return err
	}

	profile.Mode = LimitModeSimple
	profile.SimpleLimit = minutes
	profile.EduLimit = 0
	profile.FunLimit = 0
	if err := l.storage.UpdateProfile(ctx, profile); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if err := l.storage.ClearOverrideLimits(ctx, profileID, LimitModeCategory); err != nil {
		return fmt.Errorf("failed to scrub category overrides: %w", err)
	}

	l.logger.Info("Simple limit set",
		"profile_id", profileID,
		"minutes", minutes)
	return nil
}

// SetCategoryLimit stores one category pool's daily limit (0 =
// unlimited). The first category set while in simple mode switches the
// profile over and scrubs the simple limit everywhere; setting the
// other pool later leaves the first untouched.
func (l *LimitService) SetCategoryLimit(ctx context.Context, profileID, category string, minutes int) error {
	if strings.TrimSpace(category) == "" {
		return fmt.Errorf("%w: category is required", ErrInvalidCategory)
	}
	cat, err := ParseCategory(category)
	if err != nil {
		return err
	}
	if minutes < 0 {
		return ErrInvalidLimit
	}

	profile, err := l.storage.GetProfile(ctx, profileID)
	if err != nil {
		return err
	}

	switched := profile.Mode != LimitModeCategory
	if switched {
		profile.Mode = LimitModeCategory
		profile.SimpleLimit = 0
		profile.EduLimit = 0
		profile.FunLimit = 0
	}
	if cat == CategoryEducational {
		profile.EduLimit = minutes
	} else {
		profile.FunLimit = minutes
	}
	if err := l.storage.UpdateProfile(ctx, profile); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if switched {
		if err := l.storage.ClearOverrideLimits(ctx, profileID, LimitModeSimple); err != nil {
			return fmt.Errorf("failed to scrub simple overrides: %w", err)
		}
	}

	l.logger.Info("Category limit set",
		"profile_id", profileID,
		"category", string(cat),
		"minutes", minutes)
	return nil
}

// SetSchedule replaces the profile's global window. Either edge may be
// empty to leave that side of the day unbounded; non-empty edges
// accept flexible input (800, 8:00, 8:00pm).
func (l *LimitService) SetSchedule(ctx context.Context, profileID, start, stop string) error {
	normStart, normStop, err := normalizeWindow(start, stop)
	if err != nil {
		return err
	}
	profile, err := l.storage.GetProfile(ctx, profileID)
	if err != nil {
		return err
	}

	profile.ScheduleStart = normStart
	profile.ScheduleStop = normStop
	if err := l.storage.UpdateProfile(ctx, profile); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	l.logger.Info("Schedule window set",
		"profile_id", profileID,
		"start", normStart,
		"stop", normStop)
	return nil
}

// ClearSchedule removes the profile's global window
func (l *LimitService) ClearSchedule(ctx context.Context, profileID string) error {
	return l.SetSchedule(ctx, profileID, "", "")
}

// SetDayOverride upserts the override for one weekday. Limit fields
// that belong to the mode the profile is not in are rejected with
// ErrConfigConflict before anything is written, so the store never
// holds mixed-mode overrides.
func (l *LimitService) SetDayOverride(ctx context.Context, profileID string, override *DayOverride) error {
	if override == nil {
		return ErrOverrideNotFound
	}
	if override.Weekday < time.Sunday || override.Weekday > time.Saturday {
		return fmt.Errorf("%w: %d", ErrInvalidWeekday, override.Weekday)
	}
	for _, limit := range []*int{override.SimpleLimit, override.EduLimit, override.FunLimit} {
		if limit != nil && *limit < 0 {
			return ErrInvalidLimit
		}
	}
	if override.ScheduleStart != nil || override.ScheduleStop != nil {
		start, stop := override.Window()
		normStart, normStop, err := normalizeWindow(start, stop)
		if err != nil {
			return err
		}
		if override.ScheduleStart != nil {
			*override.ScheduleStart = normStart
		}
		if override.ScheduleStop != nil {
			*override.ScheduleStop = normStop
		}
	}

	profile, err := l.storage.GetProfile(ctx, profileID)
	if err != nil {
		return err
	}
	if profile.Mode == LimitModeSimple && (override.EduLimit != nil || override.FunLimit != nil) {
		return fmt.Errorf("%w: profile is in simple mode", ErrConfigConflict)
	}
	if profile.Mode == LimitModeCategory && override.SimpleLimit != nil {
		return fmt.Errorf("%w: profile is in category mode", ErrConfigConflict)
	}

	override.ProfileID = profileID
	if err := l.storage.UpsertDayOverride(ctx, override); err != nil {
		return fmt.Errorf("failed to save day override: %w", err)
	}

	l.logger.Info("Day override set",
		"profile_id", profileID,
		"weekday", override.Weekday.String())
	return nil
}

// ClearDayOverride removes one weekday's override; that day reverts to
// the profile's globals on the next evaluation
func (l *LimitService) ClearDayOverride(ctx context.Context, profileID string, weekday time.Weekday) error {
	if weekday < time.Sunday || weekday > time.Saturday {
		return fmt.Errorf("%w: %d", ErrInvalidWeekday, weekday)
	}
	if err := l.storage.DeleteDayOverride(ctx, profileID, weekday); err != nil {
		return err
	}

	l.logger.Info("Day override cleared",
		"profile_id", profileID,
		"weekday", weekday.String())
	return nil
}

// CopyDayOverride copies the source weekday's override to each target
// as an independent value copy; later edits to the source do not
// ripple. The source itself and duplicate targets are skipped.
func (l *LimitService) CopyDayOverride(ctx context.Context, profileID string, from time.Weekday, to []time.Weekday) error {
	src, err := l.storage.GetDayOverride(ctx, profileID, from)
	if err != nil {
		return err
	}

	seen := map[time.Weekday]bool{from: true}
	for _, target := range to {
		if target < time.Sunday || target > time.Saturday {
			return fmt.Errorf("%w: %d", ErrInvalidWeekday, target)
		}
		if seen[target] {
			continue
		}
		seen[target] = true

		copied := cloneOverride(src)
		copied.Weekday = target
		if err := l.storage.UpsertDayOverride(ctx, copied); err != nil {
			return fmt.Errorf("failed to copy override to %s: %w", target, err)
		}
	}

	l.logger.Info("Day override copied",
		"profile_id", profileID,
		"from", from.String(),
		"targets", len(seen)-1)
	return nil
}

// GrantBonus stacks extra minutes on the profile-local today. Grants
// accumulate; there is no expiry beyond the date rollover.
func (l *LimitService) GrantBonus(ctx context.Context, profileID string, minutes int) error {
	if minutes < MinBonusMinutes || minutes > MaxBonusMinutes {
		return fmt.Errorf("%w: %d", ErrInvalidBonus, minutes)
	}
	profile, err := l.storage.GetProfile(ctx, profileID)
	if err != nil {
		return err
	}

	date := localDate(l.clock.Now(), l.locations.Resolve(profile))
	if err := l.storage.AddBonusMinutes(ctx, profileID, date, minutes); err != nil {
		return fmt.Errorf("failed to add bonus minutes: %w", err)
	}

	l.logger.Info("Bonus granted",
		"profile_id", profileID,
		"minutes", minutes,
		"date", date.Format("2006-01-02"))
	return nil
}

// normalizeWindow validates and normalizes both window edges. Empty
// edges stay empty.
func normalizeWindow(start, stop string) (string, string, error) {
	var err error
	if strings.TrimSpace(start) != "" {
		if start, err = ParseClockTime(start); err != nil {
			return "", "", err
		}
	} else {
		start = ""
	}
	if strings.TrimSpace(stop) != "" {
		if stop, err = ParseClockTime(stop); err != nil {
			return "", "", err
		}
	} else {
		stop = ""
	}
	return start, stop, nil
}

// cloneOverride deep-copies an override so pointer fields are not
// shared between weekdays
func cloneOverride(src *DayOverride) *DayOverride {
	copied := &DayOverride{
		ProfileID: src.ProfileID,
		Weekday:   src.Weekday,
	}
	if src.ScheduleStart != nil {
		v := *src.ScheduleStart
		copied.ScheduleStart = &v
	}
	if src.ScheduleStop != nil {
		v := *src.ScheduleStop
		copied.ScheduleStop = &v
	}
	if src.SimpleLimit != nil {
		v := *src.SimpleLimit
		copied.SimpleLimit = &v
	}
	if src.EduLimit != nil {
		v := *src.EduLimit
		copied.EduLimit = &v
	}
	if src.FunLimit != nil {
		v := *src.FunLimit
		copied.FunLimit = &v
	}
	return copied
}
