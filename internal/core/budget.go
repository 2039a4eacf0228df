package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// BudgetStorage defines the storage operations budget evaluation needs
type BudgetStorage interface {
	GetDayOverride(ctx context.Context, profileID string, weekday time.Weekday) (*DayOverride, error)
	GetDailyWatchSeconds(ctx context.Context, profileID string, date time.Time) ([]*LedgerEntry, error)
	GetBonusMinutes(ctx context.Context, profileID string, date time.Time) (int, error)
}

// BudgetStatus reports one pool's standing for one local day.
// Category is empty for the simple-mode pool.
type BudgetStatus struct {
	Category         Category
	Date             time.Time
	Unlimited        bool
	LimitMinutes     int // effective limit including bonus, 0 when unlimited
	BonusMinutes     int
	UsedSeconds      int
	RemainingSeconds int // -1 when unlimited
	Exhausted        bool
}

// DailyReport aggregates a profile's budget standing for one local day
type DailyReport struct {
	Date         time.Time
	Mode         LimitMode
	Budgets      []*BudgetStatus
	TotalSeconds int
	BonusMinutes int
}

// BudgetService evaluates remaining watch budgets against the ledger
type BudgetService struct {
	storage   BudgetStorage
	clock     Clock
	logger    *slog.Logger
	locations *locationCache
}

// NewBudgetService creates a new budget service
func NewBudgetService(storage BudgetStorage, clock Clock, logger *slog.Logger) *BudgetService {
	if clock == nil {
		clock = RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BudgetService{
		storage:   storage,
		clock:     clock,
		logger:    logger,
		locations: newLocationCache(logger),
	}
}

// RemainingBudget evaluates the pool the category draws from, for the
// profile-local today
func (b *BudgetService) RemainingBudget(ctx context.Context, profile *Profile, category Category) (*BudgetStatus, error) {
	loc := b.locations.Resolve(profile)
	return b.statusFor(ctx, profile, category, localDate(b.clock.Now(), loc))
}

// DailyReport evaluates every active pool for the profile-local today
func (b *BudgetService) DailyReport(ctx context.Context, profile *Profile) (*DailyReport, error) {
	loc := b.locations.Resolve(profile)
	date := localDate(b.clock.Now(), loc)

	pools := []Category{CategoryEntertainment}
	if profile.Mode == LimitModeCategory {
		pools = []Category{CategoryEducational, CategoryEntertainment}
	}

	report := &DailyReport{Date: date, Mode: profile.Mode}
	for _, pool := range pools {
		status, err := b.statusFor(ctx, profile, pool, date)
		if err != nil {
			return nil, err
		}
		report.Budgets = append(report.Budgets, status)
		report.BonusMinutes = status.BonusMinutes
		report.TotalSeconds += status.UsedSeconds
	}
	if profile.Mode == LimitModeSimple {
		// The simple pool already absorbs every category
		report.TotalSeconds = report.Budgets[0].UsedSeconds
	}
	return report, nil
}

// statusFor computes one pool's standing for a given local date:
// remaining = (effective limit + bonus) - accumulated, floored at zero.
// The stored counter itself is never clamped.
func (b *BudgetService) statusFor(ctx context.Context, profile *Profile, category Category, date time.Time) (*BudgetStatus, error) {
	override, err := b.storage.GetDayOverride(ctx, profile.ID, date.Weekday())
	if err != nil && !errors.Is(err, ErrOverrideNotFound) {
		return nil, fmt.Errorf("failed to load day override: %w", err)
	}

	entries, err := b.storage.GetDailyWatchSeconds(ctx, profile.ID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load watch ledger: %w", err)
	}
	bonus, err := b.storage.GetBonusMinutes(ctx, profile.ID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load bonus minutes: %w", err)
	}

	status := &BudgetStatus{
		Category:     category,
		Date:         date,
		BonusMinutes: bonus,
		UsedSeconds:  usedSeconds(profile.Mode, category, entries),
	}
	if profile.Mode == LimitModeSimple {
		status.Category = ""
	}

	limit := profile.PoolLimit(category)
	if p := override.PoolLimit(profile.Mode, category); p != nil {
		limit = *p
	}
	if limit == 0 {
		// The zero sentinel means unlimited: usage is still recorded
		// but is never a reason to block
		status.Unlimited = true
		status.RemainingSeconds = -1
		return status, nil
	}

	status.LimitMinutes = limit + bonus
	remaining := status.LimitMinutes*60 - status.UsedSeconds
	if remaining < 0 {
		remaining = 0
	}
	status.RemainingSeconds = remaining
	status.Exhausted = remaining == 0
	return status, nil
}

// usedSeconds sums the ledger entries the pool is charged for. The
// simple pool absorbs every category; the fun pool absorbs anything
// not explicitly educational.
func usedSeconds(mode LimitMode, category Category, entries []*LedgerEntry) int {
	total := 0
	for _, e := range entries {
		switch {
		case mode == LimitModeSimple:
			total += e.Seconds
		case category == CategoryEducational && e.Category == CategoryEducational:
			total += e.Seconds
		case category != CategoryEducational && e.Category != CategoryEducational:
			total += e.Seconds
		}
	}
	return total
}
