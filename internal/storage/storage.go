package storage

import (
	"context"
	"time"

	"vigil/internal/core"
)

// Storage defines the interface for data persistence
type Storage interface {
	// Profiles
	CreateProfile(ctx context.Context, profile *core.Profile) error
	GetProfile(ctx context.Context, id string) (*core.Profile, error)
	ListProfiles(ctx context.Context) ([]*core.Profile, error)
	UpdateProfile(ctx context.Context, profile *core.Profile) error
	DeleteProfile(ctx context.Context, id string) error

	// Day overrides
	GetDayOverride(ctx context.Context, profileID string, weekday time.Weekday) (*core.DayOverride, error)
	ListDayOverrides(ctx context.Context, profileID string) ([]*core.DayOverride, error)
	UpsertDayOverride(ctx context.Context, override *core.DayOverride) error
	DeleteDayOverride(ctx context.Context, profileID string, weekday time.Weekday) error
	ClearOverrideLimits(ctx context.Context, profileID string, mode core.LimitMode) error

	// Watch sessions
	CreateWatchSession(ctx context.Context, session *core.WatchSession) error
	GetWatchSession(ctx context.Context, id string) (*core.WatchSession, error)
	ListActiveSessions(ctx context.Context) ([]*core.WatchSession, error)
	ListSessionsByProfile(ctx context.Context, profileID string) ([]*core.WatchSession, error)
	UpdateWatchSession(ctx context.Context, session *core.WatchSession) error

	// ApplyWatchDelta commits one heartbeat: the session's
	// last-heartbeat timestamp and the ledger increment in one
	// transaction.
	ApplyWatchDelta(ctx context.Context, session *core.WatchSession, date time.Time, beatAt time.Time, seconds int) error

	// Watch ledger and bonus minutes, keyed by profile-local date
	GetDailyWatchSeconds(ctx context.Context, profileID string, date time.Time) ([]*core.LedgerEntry, error)
	GetBonusMinutes(ctx context.Context, profileID string, date time.Time) (int, error)
	AddBonusMinutes(ctx context.Context, profileID string, date time.Time, minutes int) error

	// Notification flags
	TrySetNotificationFlag(ctx context.Context, profileID string, date time.Time, category core.Category) (bool, error)

	// Maintenance
	ExpireStaleSessions(ctx context.Context, cutoff time.Time) (int64, error)
	PruneLedger(ctx context.Context, before time.Time) (int64, error)
	PruneSessions(ctx context.Context, before time.Time) (int64, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}
