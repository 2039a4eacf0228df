package scheduler

import (
	"context"
	"log/slog"
	"time"

	"vigil/internal/core"
)

// Storage interface for maintenance operations
type Storage interface {
	ExpireStaleSessions(ctx context.Context, cutoff time.Time) (int64, error)
	PruneLedger(ctx context.Context, before time.Time) (int64, error)
	PruneSessions(ctx context.Context, before time.Time) (int64, error)
}

// Config tunes the maintenance cadence and retention windows
type Config struct {
	Interval    time.Duration // how often to look for stale sessions
	StaleAfter  time.Duration // sessions silent for this long get expired
	LedgerDays  int           // watch history retention
	SessionDays int           // finished session retention
}

// DefaultConfig matches a 15-second heartbeat cadence: a player that
// misses eight beats in a row is gone.
func DefaultConfig() Config {
	return Config{
		Interval:    time.Minute,
		StaleAfter:  2 * time.Minute,
		LedgerDays:  180,
		SessionDays: 90,
	}
}

// Scheduler runs periodic maintenance: expiring watch sessions whose
// player went away without ending them, and pruning data past the
// retention windows. A session nobody heartbeats stops counting by
// itself, so expiry only keeps the active list honest.
type Scheduler struct {
	storage   Storage
	config    Config
	clock     core.Clock
	stopChan  chan struct{}
	logger    *slog.Logger
	lastPrune time.Time
}

// NewScheduler creates a new maintenance scheduler. Zero-value config
// fields fall back to DefaultConfig.
func NewScheduler(storage Storage, config Config, clock core.Clock, logger *slog.Logger) *Scheduler {
	defaults := DefaultConfig()
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.StaleAfter <= 0 {
		config.StaleAfter = defaults.StaleAfter
	}
	if config.LedgerDays <= 0 {
		config.LedgerDays = defaults.LedgerDays
	}
	if config.SessionDays <= 0 {
		config.SessionDays = defaults.SessionDays
	}
	if clock == nil {
		clock = core.RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		storage:  storage,
		config:   config,
		clock:    clock,
		stopChan: make(chan struct{}),
		logger:   logger,
	}
}

// Start begins the scheduler loop
func (s *Scheduler) Start() {
	s.logger.Info("Scheduler started",
		"interval", s.config.Interval.String(),
		"stale_after", s.config.StaleAfter.String())
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick()
		case <-s.stopChan:
			s.logger.Info("Scheduler stopped")
			return
		}
	}
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	close(s.stopChan)
}

// tick performs one cycle of the scheduler
func (s *Scheduler) tick() {
	ctx := context.Background()
	now := s.clock.Now()

	s.expireStale(ctx, now)

	// Retention pruning once a day is plenty
	if now.Sub(s.lastPrune) >= 24*time.Hour {
		s.prune(ctx, now)
		s.lastPrune = now
	}
}

// expireStale expires sessions whose last sign of life is too old
func (s *Scheduler) expireStale(ctx context.Context, now time.Time) {
	cutoff := now.Add(-s.config.StaleAfter)

	expired, err := s.storage.ExpireStaleSessions(ctx, cutoff)
	if err != nil {
		s.logger.Error("Failed to expire stale sessions", "error", err)
		return
	}
	if expired > 0 {
		s.logger.Info("Expired stale watch sessions",
			"count", expired,
			"cutoff", cutoff.Format(time.RFC3339))
	}
}

// prune drops ledger history and finished sessions past retention
func (s *Scheduler) prune(ctx context.Context, now time.Time) {
	ledgerBefore := now.AddDate(0, 0, -s.config.LedgerDays)
	sessionsBefore := now.AddDate(0, 0, -s.config.SessionDays)

	pruned, err := s.storage.PruneLedger(ctx, ledgerBefore)
	if err != nil {
		s.logger.Error("Failed to prune ledger history", "error", err)
	} else if pruned > 0 {
		s.logger.Info("Pruned ledger history",
			"rows", pruned,
			"before", ledgerBefore.Format("2006-01-02"))
	}

	deleted, err := s.storage.PruneSessions(ctx, sessionsBefore)
	if err != nil {
		s.logger.Error("Failed to prune old sessions", "error", err)
	} else if deleted > 0 {
		s.logger.Info("Pruned finished sessions",
			"rows", deleted,
			"before", sessionsBefore.Format("2006-01-02"))
	}
}
