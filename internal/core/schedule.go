package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ScheduleStorage defines the storage operations the schedule
// resolver needs
type ScheduleStorage interface {
	ListDayOverrides(ctx context.Context, profileID string) ([]*DayOverride, error)
}

// ScheduleStatus reports whether a profile's schedule allows watching
// right now
type ScheduleStatus struct {
	Open       bool
	Start      string     // effective window start for today, empty if unset
	Stop       string     // effective window stop for today, empty if unset
	NextOpenAt *time.Time // nil when nothing opens within the lookahead
}

// nextOpenLookaheadDays bounds the search for the next opening to one
// week including the current day
const nextOpenLookaheadDays = 7

// ScheduleService resolves access windows against profile-local time
type ScheduleService struct {
	storage   ScheduleStorage
	clock     Clock
	logger    *slog.Logger
	locations *locationCache
}

// NewScheduleService creates a new schedule service
func NewScheduleService(storage ScheduleStorage, clock Clock, logger *slog.Logger) *ScheduleService {
	if clock == nil {
		clock = RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ScheduleService{
		storage:   storage,
		clock:     clock,
		logger:    logger,
		locations: newLocationCache(logger),
	}
}

// CheckSchedule evaluates the profile's effective window at the
// current time. The read takes no locks; a concurrent configuration
// write may make the answer stale by one call.
func (s *ScheduleService) CheckSchedule(ctx context.Context, profile *Profile) (*ScheduleStatus, error) {
	overrides, err := s.storage.ListDayOverrides(ctx, profile.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load day overrides: %w", err)
	}
	return s.evaluate(profile, overridesByWeekday(overrides), s.clock.Now()), nil
}

func (s *ScheduleService) evaluate(profile *Profile, byDay map[time.Weekday]*DayOverride, now time.Time) *ScheduleStatus {
	loc := s.locations.Resolve(profile)
	local := now.In(loc)
	nowMinutes := local.Hour()*60 + local.Minute()

	start, stop := effectiveWindow(profile, byDay[local.Weekday()])
	status := &ScheduleStatus{
		Open:  windowOpen(start, stop, nowMinutes),
		Start: start,
		Stop:  stop,
	}
	if !status.Open {
		status.NextOpenAt = nextOpening(profile, byDay, local, loc)
	}
	return status
}

// effectiveWindow picks the window for one local day: an override that
// sets either edge replaces the whole window, otherwise the profile's
// global window applies
func effectiveWindow(profile *Profile, override *DayOverride) (start, stop string) {
	if override.HasWindow() {
		return override.Window()
	}
	return profile.ScheduleStart, profile.ScheduleStop
}

// windowOpen checks a window against minutes since local midnight.
// Both edges empty means no restriction. A single edge bounds one side
// of the day. With both edges set, start > stop wraps past midnight
// and start == stop is an empty window that never opens.
func windowOpen(start, stop string, nowMinutes int) bool {
	startMin, errStart := minutesOfDay(start)
	stopMin, errStop := minutesOfDay(stop)
	hasStart := start != "" && errStart == nil
	hasStop := stop != "" && errStop == nil

	switch {
	case !hasStart && !hasStop:
		return true
	case hasStart && !hasStop:
		return nowMinutes >= startMin
	case !hasStart && hasStop:
		return nowMinutes < stopMin
	case startMin == stopMin:
		return false
	case startMin < stopMin:
		return nowMinutes >= startMin && nowMinutes < stopMin
	default:
		// Overnight wrap (e.g. 22:00 - 06:00)
		return nowMinutes >= startMin || nowMinutes < stopMin
	}
}

// openIntervals expands a window into the open [start, stop) minute
// ranges it produces within a single day, in ascending order
func openIntervals(start, stop string) [][2]int {
	startMin, errStart := minutesOfDay(start)
	stopMin, errStop := minutesOfDay(stop)
	hasStart := start != "" && errStart == nil
	hasStop := stop != "" && errStop == nil

	switch {
	case !hasStart && !hasStop:
		return [][2]int{{0, 24 * 60}}
	case hasStart && !hasStop:
		return [][2]int{{startMin, 24 * 60}}
	case !hasStart && hasStop:
		return [][2]int{{0, stopMin}}
	case startMin == stopMin:
		return nil
	case startMin < stopMin:
		return [][2]int{{startMin, stopMin}}
	default:
		return [][2]int{{0, stopMin}, {startMin, 24 * 60}}
	}
}

// nextOpening walks forward day by day looking for the first moment
// the effective window opens. Returns nil when no day within the
// lookahead has a scheduled opening.
func nextOpening(profile *Profile, byDay map[time.Weekday]*DayOverride, localNow time.Time, loc *time.Location) *time.Time {
	nowMinutes := localNow.Hour()*60 + localNow.Minute()

	for offset := 0; offset < nextOpenLookaheadDays; offset++ {
		day := localNow.AddDate(0, 0, offset)
		start, stop := effectiveWindow(profile, byDay[day.Weekday()])
		for _, interval := range openIntervals(start, stop) {
			if offset == 0 && interval[0] <= nowMinutes {
				continue
			}
			openAt := time.Date(day.Year(), day.Month(), day.Day(),
				interval[0]/60, interval[0]%60, 0, 0, loc)
			return &openAt
		}
	}
	return nil
}

func overridesByWeekday(overrides []*DayOverride) map[time.Weekday]*DayOverride {
	byDay := make(map[time.Weekday]*DayOverride, len(overrides))
	for _, o := range overrides {
		byDay[o.Weekday] = o
	}
	return byDay
}
