package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"vigil/internal/idgen"
)

// HeartbeatStorage defines the storage operations heartbeat handling
// needs
type HeartbeatStorage interface {
	GetProfile(ctx context.Context, id string) (*Profile, error)
	CreateWatchSession(ctx context.Context, session *WatchSession) error
	GetWatchSession(ctx context.Context, id string) (*WatchSession, error)
	UpdateWatchSession(ctx context.Context, session *WatchSession) error

	// ApplyWatchDelta commits one heartbeat atomically: the session's
	// last-heartbeat timestamp and the ledger increment move together
	// or not at all.
	ApplyWatchDelta(ctx context.Context, session *WatchSession, date time.Time, beatAt time.Time, seconds int) error
}

// HeartbeatLimits tunes claim clamping and duplicate detection
type HeartbeatLimits struct {
	MaxClaimSeconds int           // upper clamp for a single claim
	MinGap          time.Duration // arrivals closer than this count zero
}

// DefaultHeartbeatLimits matches a 15-second player cadence
func DefaultHeartbeatLimits() HeartbeatLimits {
	return HeartbeatLimits{
		MaxClaimSeconds: 60,
		MinGap:          10 * time.Second,
	}
}

// HeartbeatInput carries one playback heartbeat claim
type HeartbeatInput struct {
	ProfileID string
	SessionID string
	VideoID   string
	Category  string // claimed by the player; the bound category governs
	Seconds   int
}

// HeartbeatResult reports what one heartbeat did
type HeartbeatResult struct {
	RecordedSeconds  int
	RemainingSeconds int // -1 when the pool is unlimited
	Unlimited        bool
	Blocked          BlockedReason // empty when playback may continue
	NextOpenAt       *time.Time
}

// profileLocks hands out one mutex per profile so heartbeats for
// different profiles never contend
type profileLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newProfileLocks() *profileLocks {
	return &profileLocks{locks: make(map[string]*sync.Mutex)}
}

func (p *profileLocks) get(profileID string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	lock, ok := p.locks[profileID]
	if !ok {
		lock = &sync.Mutex{}
		p.locks[profileID] = lock
	}
	return lock
}

// HeartbeatService turns raw playback heartbeats into ledger time.
// It owns the per-profile critical section: schedule gate, ledger
// commit, budget evaluation and the notification claim run as one
// sequence per profile.
type HeartbeatService struct {
	storage   HeartbeatStorage
	schedule  *ScheduleService
	budget    *BudgetService
	notify    *NotificationService
	limits    HeartbeatLimits
	clock     Clock
	logger    *slog.Logger
	locations *locationCache
	locks     *profileLocks
}

// NewHeartbeatService creates a new heartbeat service. Zero-value
// limits fall back to DefaultHeartbeatLimits.
func NewHeartbeatService(storage HeartbeatStorage, schedule *ScheduleService, budget *BudgetService, notify *NotificationService, limits HeartbeatLimits, clock Clock, logger *slog.Logger) *HeartbeatService {
	if limits.MaxClaimSeconds <= 0 {
		limits.MaxClaimSeconds = DefaultHeartbeatLimits().MaxClaimSeconds
	}
	if limits.MinGap <= 0 {
		limits.MinGap = DefaultHeartbeatLimits().MinGap
	}
	if clock == nil {
		clock = RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HeartbeatService{
		storage:   storage,
		schedule:  schedule,
		budget:    budget,
		notify:    notify,
		limits:    limits,
		clock:     clock,
		logger:    logger,
		locations: newLocationCache(logger),
		locks:     newProfileLocks(),
	}
}

// StartSession binds a new watch session to a profile, video and
// category. The binding cannot change afterwards; a new video needs a
// new session.
func (h *HeartbeatService) StartSession(ctx context.Context, profileID, videoID, category string) (*WatchSession, error) {
	if videoID == "" {
		return nil, ErrInvalidVideoID
	}
	cat, err := ParseCategory(category)
	if err != nil {
		return nil, err
	}

	profile, err := h.storage.GetProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}

	session := &WatchSession{
		ID:        idgen.NewSession(),
		ProfileID: profile.ID,
		VideoID:   videoID,
		Category:  cat,
		Status:    WatchSessionActive,
		StartedAt: h.clock.Now(),
	}
	if err := h.storage.CreateWatchSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save watch session: %w", err)
	}

	h.logger.Info("Watch session started",
		"session_id", session.ID,
		"profile_id", profile.ID,
		"video_id", videoID,
		"category", string(cat))
	return session, nil
}

// RecordHeartbeat processes one heartbeat claim:
//  1. the claim must match the session binding, otherwise it is a
//     tamper signal worth zero seconds
//  2. the claimed seconds are clamped into [0, MaxClaimSeconds], and
//     arrivals faster than MinGap since the durable last heartbeat
//     become zero-second duplicates
//  3. a closed schedule blocks without touching any state
//  4. the delta is committed, and an exhausted pool blocks further
//     playback and claims the daily notice
func (h *HeartbeatService) RecordHeartbeat(ctx context.Context, in HeartbeatInput) (*HeartbeatResult, error) {
	lock := h.locks.get(in.ProfileID)
	lock.Lock()
	defer lock.Unlock()

	session, err := h.storage.GetWatchSession(ctx, in.SessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			h.logger.Warn("Heartbeat for unknown session",
				"session_id", in.SessionID,
				"profile_id", in.ProfileID)
			return nil, fmt.Errorf("%w: unknown session", ErrSessionMismatch)
		}
		return nil, err
	}
	if session.ProfileID != in.ProfileID || session.VideoID != in.VideoID {
		// Possible tampering: the claim contradicts the binding
		h.logger.Warn("Heartbeat does not match session binding",
			"session_id", session.ID,
			"claimed_profile", in.ProfileID,
			"claimed_video", in.VideoID)
		return nil, ErrSessionMismatch
	}
	if !session.IsActive() {
		return nil, ErrSessionNotActive
	}
	if in.Category != "" {
		if claimed, err := ParseCategory(in.Category); err != nil || claimed != session.Category {
			h.logger.Warn("Heartbeat claims a different category, keeping the bound one",
				"session_id", session.ID,
				"claimed", in.Category,
				"bound", string(session.Category))
		}
	}

	profile, err := h.storage.GetProfile(ctx, session.ProfileID)
	if err != nil {
		return nil, err
	}

	now := h.clock.Now()
	delta := in.Seconds
	if delta < 0 {
		delta = 0
	}
	if delta > h.limits.MaxClaimSeconds {
		h.logger.Warn("Clamping implausible heartbeat claim",
			"session_id", session.ID,
			"claimed_seconds", in.Seconds,
			"max_seconds", h.limits.MaxClaimSeconds)
		delta = h.limits.MaxClaimSeconds
	}
	if session.LastHeartbeatAt != nil && now.Sub(*session.LastHeartbeatAt) < h.limits.MinGap {
		delta = 0
	}

	sched, err := h.schedule.CheckSchedule(ctx, profile)
	if err != nil {
		return nil, err
	}
	if !sched.Open {
		return &HeartbeatResult{
			Blocked:    BlockedOutsideSchedule,
			NextOpenAt: sched.NextOpenAt,
		}, nil
	}

	date := localDate(now, h.locations.Resolve(profile))
	if err := h.storage.ApplyWatchDelta(ctx, session, date, now, delta); err != nil {
		return nil, fmt.Errorf("failed to commit heartbeat: %w", err)
	}

	status, err := h.budget.statusFor(ctx, profile, session.Category, date)
	if err != nil {
		return nil, err
	}

	result := &HeartbeatResult{
		RecordedSeconds:  delta,
		RemainingSeconds: status.RemainingSeconds,
		Unlimited:        status.Unlimited,
	}
	if status.Exhausted {
		result.Blocked = BlockedBudgetExhausted
		notice := &LimitNotice{
			ProfileID:    profile.ID,
			ProfileName:  profile.Name,
			Category:     status.Category,
			Date:         date,
			UsedMinutes:  status.UsedSeconds / 60,
			LimitMinutes: status.LimitMinutes,
		}
		if _, err := h.notify.NotifyLimitReached(ctx, notice); err != nil {
			// The heartbeat itself is committed; the claim can retry
			// on the next exhausted heartbeat
			h.logger.Error("Failed to claim limit notice",
				"profile_id", profile.ID,
				"error", err)
		}
	}
	return result, nil
}

// EndSession marks an active session as ended
func (h *HeartbeatService) EndSession(ctx context.Context, profileID, sessionID string) error {
	session, err := h.storage.GetWatchSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.ProfileID != profileID {
		return ErrSessionMismatch
	}
	if !session.IsActive() {
		return ErrSessionNotActive
	}

	now := h.clock.Now()
	session.Status = WatchSessionEnded
	session.EndedAt = &now
	if err := h.storage.UpdateWatchSession(ctx, session); err != nil {
		return fmt.Errorf("failed to update watch session: %w", err)
	}

	h.logger.Info("Watch session ended",
		"session_id", session.ID,
		"profile_id", session.ProfileID)
	return nil
}
