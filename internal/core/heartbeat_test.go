package core

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockGuardStore backs the full heartbeat stack: sessions, ledger,
// overrides, bonus and notification flags in maps.
type mockGuardStore struct {
	profiles map[string]*Profile
	sessions map[string]*WatchSession
	byDay    map[string][]*DayOverride
	ledger   map[string]map[Category]int // profileID-date
	bonus    map[string]int
	flags    map[string]bool
	applyErr error
}

func newMockGuardStore() *mockGuardStore {
	return &mockGuardStore{
		profiles: make(map[string]*Profile),
		sessions: make(map[string]*WatchSession),
		byDay:    make(map[string][]*DayOverride),
		ledger:   make(map[string]map[Category]int),
		bonus:    make(map[string]int),
		flags:    make(map[string]bool),
	}
}

func (m *mockGuardStore) GetProfile(ctx context.Context, id string) (*Profile, error) {
	profile, ok := m.profiles[id]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

func (m *mockGuardStore) CreateWatchSession(ctx context.Context, session *WatchSession) error {
	m.sessions[session.ID] = session
	return nil
}

func (m *mockGuardStore) GetWatchSession(ctx context.Context, id string) (*WatchSession, error) {
	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (m *mockGuardStore) UpdateWatchSession(ctx context.Context, session *WatchSession) error {
	m.sessions[session.ID] = session
	return nil
}

func (m *mockGuardStore) ApplyWatchDelta(ctx context.Context, session *WatchSession, date time.Time, beatAt time.Time, seconds int) error {
	if m.applyErr != nil {
		return m.applyErr
	}
	stored := m.sessions[session.ID]
	at := beatAt
	stored.LastHeartbeatAt = &at

	key := dateKey(session.ProfileID, date)
	if m.ledger[key] == nil {
		m.ledger[key] = make(map[Category]int)
	}
	m.ledger[key][session.Category] += seconds
	return nil
}

func (m *mockGuardStore) ListDayOverrides(ctx context.Context, profileID string) ([]*DayOverride, error) {
	return m.byDay[profileID], nil
}

func (m *mockGuardStore) GetDayOverride(ctx context.Context, profileID string, weekday time.Weekday) (*DayOverride, error) {
	for _, override := range m.byDay[profileID] {
		if override.Weekday == weekday {
			return override, nil
		}
	}
	return nil, ErrOverrideNotFound
}

func (m *mockGuardStore) GetDailyWatchSeconds(ctx context.Context, profileID string, date time.Time) ([]*LedgerEntry, error) {
	var entries []*LedgerEntry
	for category, seconds := range m.ledger[dateKey(profileID, date)] {
		entries = append(entries, &LedgerEntry{
			ProfileID: profileID,
			Date:      date,
			Category:  category,
			Seconds:   seconds,
		})
	}
	return entries, nil
}

func (m *mockGuardStore) GetBonusMinutes(ctx context.Context, profileID string, date time.Time) (int, error) {
	return m.bonus[dateKey(profileID, date)], nil
}

func (m *mockGuardStore) TrySetNotificationFlag(ctx context.Context, profileID string, date time.Time, category Category) (bool, error) {
	key := dateKey(profileID, date) + "-" + string(category)
	if m.flags[key] {
		return false, nil
	}
	m.flags[key] = true
	return true, nil
}

// watchedSeconds tallies every pool for one profile-local day
func (m *mockGuardStore) watchedSeconds(profileID string, date time.Time) int {
	total := 0
	for _, seconds := range m.ledger[dateKey(profileID, date)] {
		total += seconds
	}
	return total
}

type recordingMessenger struct {
	notices chan *LimitNotice
}

func newRecordingMessenger() *recordingMessenger {
	return &recordingMessenger{notices: make(chan *LimitNotice, 8)}
}

func (m *recordingMessenger) SendLimitNotice(notice *LimitNotice) error {
	m.notices <- notice
	return nil
}

func (m *recordingMessenger) waitNotice(t *testing.T) *LimitNotice {
	t.Helper()
	select {
	case notice := <-m.notices:
		return notice
	case <-time.After(2 * time.Second):
		t.Fatal("expected a limit notice, got none")
		return nil
	}
}

func (m *recordingMessenger) assertNoNotice(t *testing.T) {
	t.Helper()
	select {
	case notice := <-m.notices:
		t.Fatalf("unexpected limit notice for %s", notice.ProfileID)
	case <-time.After(100 * time.Millisecond):
	}
}

func newTestHeartbeat(store *mockGuardStore, clock Clock, messenger Messenger) *HeartbeatService {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	schedule := NewScheduleService(store, clock, logger)
	budget := NewBudgetService(store, clock, logger)
	notify := NewNotificationService(store, messenger, logger)
	return NewHeartbeatService(store, schedule, budget, notify, HeartbeatLimits{}, clock, logger)
}

func simpleProfile(id string, limitMinutes int) *Profile {
	return &Profile{ID: id, Name: "Alice", Mode: LimitModeSimple, SimpleLimit: limitMinutes}
}

func TestStartSession(t *testing.T) {
	store := newMockGuardStore()
	store.profiles["prof_1"] = simpleProfile("prof_1", 60)
	clock := &MockClock{CurrentTime: makeDay(time.Monday, 10, 0, time.UTC)}
	svc := newTestHeartbeat(store, clock, nil)

	session, err := svc.StartSession(context.Background(), "prof_1", "vid-123", "edu")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(session.ID, "sess_"))
	assert.Equal(t, "prof_1", session.ProfileID)
	assert.Equal(t, "vid-123", session.VideoID)
	assert.Equal(t, CategoryEducational, session.Category)
	assert.Equal(t, WatchSessionActive, session.Status)
	assert.Equal(t, clock.CurrentTime, session.StartedAt)

	// Uncategorized playback is charged as entertainment
	session, err = svc.StartSession(context.Background(), "prof_1", "vid-456", "")
	require.NoError(t, err)
	assert.Equal(t, CategoryEntertainment, session.Category)

	_, err = svc.StartSession(context.Background(), "prof_1", "", "edu")
	assert.ErrorIs(t, err, ErrInvalidVideoID)

	_, err = svc.StartSession(context.Background(), "prof_1", "vid-789", "gaming")
	assert.ErrorIs(t, err, ErrInvalidCategory)

	_, err = svc.StartSession(context.Background(), "prof_missing", "vid-123", "edu")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestRecordHeartbeat_AcceptsAndDebits(t *testing.T) {
	store := newMockGuardStore()
	store.profiles["prof_1"] = simpleProfile("prof_1", 60)
	clock := &MockClock{CurrentTime: makeDay(time.Monday, 10, 0, time.UTC)}
	svc := newTestHeartbeat(store, clock, nil)

	session, err := svc.StartSession(context.Background(), "prof_1", "vid-123", "fun")
	require.NoError(t, err)

	result, err := svc.RecordHeartbeat(context.Background(), HeartbeatInput{
		ProfileID: "prof_1",
		SessionID: session.ID,
		VideoID:   "vid-123",
		Seconds:   15,
	})
	require.NoError(t, err)
	assert.Equal(t, 15, result.RecordedSeconds)
	assert.Equal(t, 3585, result.RemainingSeconds)
	assert.Empty(t, result.Blocked)

	stored := store.sessions[session.ID]
	require.NotNil(t, stored.LastHeartbeatAt, "the last heartbeat is durable")
	assert.Equal(t, clock.CurrentTime, *stored.LastHeartbeatAt)
}

func TestRecordHeartbeat_RejectsMismatches(t *testing.T) {
	store := newMockGuardStore()
	store.profiles["prof_1"] = simpleProfile("prof_1", 60)
	clock := &MockClock{CurrentTime: makeDay(time.Monday, 10, 0, time.UTC)}
	svc := newTestHeartbeat(store, clock, nil)

	session, err := svc.StartSession(context.Background(), "prof_1", "vid-123", "fun")
	require.NoError(t, err)
	today := makeDay(time.Monday, 0, 0, time.UTC)

	_, err = svc.RecordHeartbeat(context.Background(), HeartbeatInput{
		ProfileID: "prof_1",
		SessionID: "sess_unknown",
		VideoID:   "vid-123",
		Seconds:   15,
	})
	assert.ErrorIs(t, err, ErrSessionMismatch, "unknown session is reported as a mismatch")

	_, err = svc.RecordHeartbeat(context.Background(), HeartbeatInput{
		ProfileID: "prof_1",
		SessionID: session.ID,
		VideoID:   "vid-other",
		Seconds:   15,
	})
	assert.ErrorIs(t, err, ErrSessionMismatch)

	_, err = svc.RecordHeartbeat(context.Background(), HeartbeatInput{
		ProfileID: "prof_other",
		SessionID: session.ID,
		VideoID:   "vid-123",
		Seconds:   15,
	})
	assert.ErrorIs(t, err, ErrSessionMismatch)

	assert.Equal(t, 0, store.watchedSeconds("prof_1", today), "rejected claims charge nothing")
	assert.Nil(t, store.sessions[session.ID].LastHeartbeatAt)
}

func TestRecordHeartbeat_ClampsClaims(t *testing.T) {
	store := newMockGuardStore()
	store.profiles["prof_1"] = simpleProfile("prof_1", 60)
	clock := &MockClock{CurrentTime: makeDay(time.Monday, 10, 0, time.UTC)}
	svc := newTestHeartbeat(store, clock, nil)

	session, err := svc.StartSession(context.Background(), "prof_1", "vid-123", "fun")
	require.NoError(t, err)
	today := makeDay(time.Monday, 0, 0, time.UTC)

	result, err := svc.RecordHeartbeat(context.Background(), HeartbeatInput{
		ProfileID: "prof_1",
		SessionID: session.ID,
		VideoID:   "vid-123",
		Seconds:   10000,
	})
	require.NoError(t, err)
	assert.Equal(t, 60, result.RecordedSeconds, "claims are clamped to the per-beat maximum")
	assert.Equal(t, 60, store.watchedSeconds("prof_1", today))

	clock.Advance(15 * time.Second)
	result, err = svc.RecordHeartbeat(context.Background(), HeartbeatInput{
		ProfileID: "prof_1",
		SessionID: session.ID,
		VideoID:   "vid-123",
		Seconds:   -5,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.RecordedSeconds, "negative claims are worth zero")
	assert.Equal(t, 60, store.watchedSeconds("prof_1", today))
}

func TestRecordHeartbeat_DuplicateWithinGap(t *testing.T) {
	store := newMockGuardStore()
	store.profiles["prof_1"] = simpleProfile("prof_1", 60)
	clock := &MockClock{CurrentTime: makeDay(time.Monday, 10, 0, time.UTC)}
	svc := newTestHeartbeat(store, clock, nil)

	session, err := svc.StartSession(context.Background(), "prof_1", "vid-123", "fun")
	require.NoError(t, err)
	today := makeDay(time.Monday, 0, 0, time.UTC)

	beat := HeartbeatInput{ProfileID: "prof_1", SessionID: session.ID, VideoID: "vid-123", Seconds: 15}

	result, err := svc.RecordHeartbeat(context.Background(), beat)
	require.NoError(t, err)
	assert.Equal(t, 15, result.RecordedSeconds)

	// A retry 5 seconds later is a duplicate, not new watch time
	clock.Advance(5 * time.Second)
	result, err = svc.RecordHeartbeat(context.Background(), beat)
	require.NoError(t, err)
	assert.Equal(t, 0, result.RecordedSeconds)
	assert.Equal(t, 3585, result.RemainingSeconds)
	assert.Equal(t, 15, store.watchedSeconds("prof_1", today))
	assert.Equal(t, clock.CurrentTime, *store.sessions[session.ID].LastHeartbeatAt,
		"the duplicate still refreshes the durable timestamp")

	// Once the gap has passed, claims count again
	clock.Advance(10 * time.Second)
	result, err = svc.RecordHeartbeat(context.Background(), beat)
	require.NoError(t, err)
	assert.Equal(t, 15, result.RecordedSeconds)
	assert.Equal(t, 30, store.watchedSeconds("prof_1", today))
}

func TestRecordHeartbeat_DedupSurvivesRestart(t *testing.T) {
	store := newMockGuardStore()
	store.profiles["prof_1"] = simpleProfile("prof_1", 60)
	clock := &MockClock{CurrentTime: makeDay(time.Monday, 10, 0, time.UTC)}
	svc := newTestHeartbeat(store, clock, nil)

	session, err := svc.StartSession(context.Background(), "prof_1", "vid-123", "fun")
	require.NoError(t, err)
	beat := HeartbeatInput{ProfileID: "prof_1", SessionID: session.ID, VideoID: "vid-123", Seconds: 15}

	_, err = svc.RecordHeartbeat(context.Background(), beat)
	require.NoError(t, err)

	// A fresh service over the same store still sees the last heartbeat
	restarted := newTestHeartbeat(store, clock, nil)
	clock.Advance(5 * time.Second)
	result, err := restarted.RecordHeartbeat(context.Background(), beat)
	require.NoError(t, err)
	assert.Equal(t, 0, result.RecordedSeconds)
}

func TestRecordHeartbeat_OutsideSchedule(t *testing.T) {
	store := newMockGuardStore()
	profile := simpleProfile("prof_1", 60)
	profile.ScheduleStart = "08:00"
	profile.ScheduleStop = "19:00"
	store.profiles["prof_1"] = profile
	clock := &MockClock{CurrentTime: makeDay(time.Monday, 10, 0, time.UTC)}
	svc := newTestHeartbeat(store, clock, nil)

	session, err := svc.StartSession(context.Background(), "prof_1", "vid-123", "fun")
	require.NoError(t, err)
	today := makeDay(time.Monday, 0, 0, time.UTC)

	clock.Set(makeDay(time.Monday, 21, 0, time.UTC))
	result, err := svc.RecordHeartbeat(context.Background(), HeartbeatInput{
		ProfileID: "prof_1",
		SessionID: session.ID,
		VideoID:   "vid-123",
		Seconds:   15,
	})
	require.NoError(t, err)
	assert.Equal(t, BlockedOutsideSchedule, result.Blocked)
	assert.Equal(t, 0, result.RecordedSeconds)
	require.NotNil(t, result.NextOpenAt)
	assert.Equal(t, makeDay(time.Tuesday, 8, 0, time.UTC), *result.NextOpenAt)

	assert.Equal(t, 0, store.watchedSeconds("prof_1", today), "a blocked beat charges nothing")
	assert.Nil(t, store.sessions[session.ID].LastHeartbeatAt, "a blocked beat writes nothing")
}

func TestRecordHeartbeat_UnlimitedPool(t *testing.T) {
	store := newMockGuardStore()
	store.profiles["prof_1"] = simpleProfile("prof_1", 0)
	clock := &MockClock{CurrentTime: makeDay(time.Monday, 10, 0, time.UTC)}
	svc := newTestHeartbeat(store, clock, nil)

	session, err := svc.StartSession(context.Background(), "prof_1", "vid-123", "fun")
	require.NoError(t, err)
	today := makeDay(time.Monday, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		result, err := svc.RecordHeartbeat(context.Background(), HeartbeatInput{
			ProfileID: "prof_1",
			SessionID: session.ID,
			VideoID:   "vid-123",
			Seconds:   60,
		})
		require.NoError(t, err)
		assert.True(t, result.Unlimited)
		assert.Equal(t, -1, result.RemainingSeconds)
		assert.Empty(t, result.Blocked)
		clock.Advance(15 * time.Second)
	}
	assert.Equal(t, 180, store.watchedSeconds("prof_1", today), "unlimited time is still recorded")
}

func TestRecordHeartbeat_ExhaustionNotifiesOnce(t *testing.T) {
	store := newMockGuardStore()
	store.profiles["prof_1"] = simpleProfile("prof_1", 1)
	clock := &MockClock{CurrentTime: makeDay(time.Monday, 10, 0, time.UTC)}
	messenger := newRecordingMessenger()
	svc := newTestHeartbeat(store, clock, messenger)

	session, err := svc.StartSession(context.Background(), "prof_1", "vid-123", "fun")
	require.NoError(t, err)
	today := makeDay(time.Monday, 0, 0, time.UTC)

	beat := HeartbeatInput{ProfileID: "prof_1", SessionID: session.ID, VideoID: "vid-123", Seconds: 60}

	result, err := svc.RecordHeartbeat(context.Background(), beat)
	require.NoError(t, err)
	assert.Equal(t, BlockedBudgetExhausted, result.Blocked)
	assert.Equal(t, 0, result.RemainingSeconds)

	notice := messenger.waitNotice(t)
	assert.Equal(t, "prof_1", notice.ProfileID)
	assert.Equal(t, "Alice", notice.ProfileName)
	assert.Equal(t, 1, notice.UsedMinutes)
	assert.Equal(t, 1, notice.LimitMinutes)

	// Still blocked, still counted, but never announced twice
	clock.Advance(15 * time.Second)
	result, err = svc.RecordHeartbeat(context.Background(), beat)
	require.NoError(t, err)
	assert.Equal(t, BlockedBudgetExhausted, result.Blocked)
	assert.Equal(t, 60, result.RecordedSeconds)
	assert.Equal(t, 120, store.watchedSeconds("prof_1", today), "the counter keeps the overshoot")
	messenger.assertNoNotice(t)
}

func TestRecordHeartbeat_CategoryPoolBinding(t *testing.T) {
	store := newMockGuardStore()
	store.profiles["prof_1"] = &Profile{
		ID:       "prof_1",
		Name:     "Alice",
		Mode:     LimitModeCategory,
		EduLimit: 30,
		FunLimit: 1,
	}
	clock := &MockClock{CurrentTime: makeDay(time.Monday, 10, 0, time.UTC)}
	messenger := newRecordingMessenger()
	svc := newTestHeartbeat(store, clock, messenger)

	funSession, err := svc.StartSession(context.Background(), "prof_1", "vid-fun", "fun")
	require.NoError(t, err)
	eduSession, err := svc.StartSession(context.Background(), "prof_1", "vid-edu", "edu")
	require.NoError(t, err)

	result, err := svc.RecordHeartbeat(context.Background(), HeartbeatInput{
		ProfileID: "prof_1",
		SessionID: funSession.ID,
		VideoID:   "vid-fun",
		Seconds:   60,
	})
	require.NoError(t, err)
	assert.Equal(t, BlockedBudgetExhausted, result.Blocked, "the fun pool is spent")

	notice := messenger.waitNotice(t)
	assert.Equal(t, CategoryEntertainment, notice.Category)

	// The edu pool is untouched by fun playback
	clock.Advance(15 * time.Second)
	result, err = svc.RecordHeartbeat(context.Background(), HeartbeatInput{
		ProfileID: "prof_1",
		SessionID: eduSession.ID,
		VideoID:   "vid-edu",
		Seconds:   60,
	})
	require.NoError(t, err)
	assert.Empty(t, result.Blocked)
	assert.Equal(t, 30*60-60, result.RemainingSeconds)
}

func TestRecordHeartbeat_StorageFailure(t *testing.T) {
	store := newMockGuardStore()
	store.profiles["prof_1"] = simpleProfile("prof_1", 60)
	clock := &MockClock{CurrentTime: makeDay(time.Monday, 10, 0, time.UTC)}
	svc := newTestHeartbeat(store, clock, nil)

	session, err := svc.StartSession(context.Background(), "prof_1", "vid-123", "fun")
	require.NoError(t, err)
	today := makeDay(time.Monday, 0, 0, time.UTC)

	store.applyErr = errors.New("disk full")
	_, err = svc.RecordHeartbeat(context.Background(), HeartbeatInput{
		ProfileID: "prof_1",
		SessionID: session.ID,
		VideoID:   "vid-123",
		Seconds:   15,
	})
	require.Error(t, err)
	assert.Equal(t, 0, store.watchedSeconds("prof_1", today), "a failed commit changes nothing")
	assert.Nil(t, store.sessions[session.ID].LastHeartbeatAt)
}

func TestEndSession(t *testing.T) {
	store := newMockGuardStore()
	store.profiles["prof_1"] = simpleProfile("prof_1", 60)
	clock := &MockClock{CurrentTime: makeDay(time.Monday, 10, 0, time.UTC)}
	svc := newTestHeartbeat(store, clock, nil)

	session, err := svc.StartSession(context.Background(), "prof_1", "vid-123", "fun")
	require.NoError(t, err)

	err = svc.EndSession(context.Background(), "prof_other", session.ID)
	assert.ErrorIs(t, err, ErrSessionMismatch)

	err = svc.EndSession(context.Background(), "prof_1", session.ID)
	require.NoError(t, err)
	stored := store.sessions[session.ID]
	assert.Equal(t, WatchSessionEnded, stored.Status)
	require.NotNil(t, stored.EndedAt)
	assert.Equal(t, clock.CurrentTime, *stored.EndedAt)

	err = svc.EndSession(context.Background(), "prof_1", session.ID)
	assert.ErrorIs(t, err, ErrSessionNotActive)

	_, err = svc.RecordHeartbeat(context.Background(), HeartbeatInput{
		ProfileID: "prof_1",
		SessionID: session.ID,
		VideoID:   "vid-123",
		Seconds:   15,
	})
	assert.ErrorIs(t, err, ErrSessionNotActive, "ended sessions take no more heartbeats")
}

func TestRecordHeartbeat_MidnightBuckets(t *testing.T) {
	store := newMockGuardStore()
	store.profiles["prof_1"] = simpleProfile("prof_1", 60)
	clock := &MockClock{CurrentTime: time.Date(2025, 3, 10, 23, 59, 50, 0, time.UTC)}
	svc := newTestHeartbeat(store, clock, nil)

	session, err := svc.StartSession(context.Background(), "prof_1", "vid-123", "fun")
	require.NoError(t, err)

	beat := HeartbeatInput{ProfileID: "prof_1", SessionID: session.ID, VideoID: "vid-123", Seconds: 60}

	_, err = svc.RecordHeartbeat(context.Background(), beat)
	require.NoError(t, err)

	// The next beat arrives after midnight and lands whole on the new day
	clock.Advance(20 * time.Second)
	result, err := svc.RecordHeartbeat(context.Background(), beat)
	require.NoError(t, err)

	monday := makeDay(time.Monday, 0, 0, time.UTC)
	tuesday := makeDay(time.Tuesday, 0, 0, time.UTC)
	assert.Equal(t, 60, store.watchedSeconds("prof_1", monday))
	assert.Equal(t, 60, store.watchedSeconds("prof_1", tuesday), "no splitting across the boundary")
	assert.Equal(t, 3540, result.RemainingSeconds, "the new day starts from its own ledger")
}

// A whole day in the life of one profile: blocked before the window,
// an hour of playback in 15-second cadence, exhaustion with a single
// notice, then blocked again by the evening edge.
func TestRecordHeartbeat_FullDay(t *testing.T) {
	store := newMockGuardStore()
	profile := simpleProfile("prof_1", 60)
	profile.ScheduleStart = "08:00"
	profile.ScheduleStop = "19:00"
	store.profiles["prof_1"] = profile

	clock := &MockClock{CurrentTime: makeDay(time.Monday, 7, 59, time.UTC)}
	messenger := newRecordingMessenger()
	svc := newTestHeartbeat(store, clock, messenger)

	session, err := svc.StartSession(context.Background(), "prof_1", "vid-123", "fun")
	require.NoError(t, err)
	today := makeDay(time.Monday, 0, 0, time.UTC)
	beat := HeartbeatInput{ProfileID: "prof_1", SessionID: session.ID, VideoID: "vid-123", Seconds: 60}

	result, err := svc.RecordHeartbeat(context.Background(), beat)
	require.NoError(t, err)
	assert.Equal(t, BlockedOutsideSchedule, result.Blocked)
	require.NotNil(t, result.NextOpenAt)
	assert.Equal(t, makeDay(time.Monday, 8, 0, time.UTC), *result.NextOpenAt)

	clock.Set(makeDay(time.Monday, 8, 0, time.UTC))
	for i := 1; i <= 60; i++ {
		result, err = svc.RecordHeartbeat(context.Background(), beat)
		require.NoError(t, err)
		assert.Equal(t, 60, result.RecordedSeconds)
		assert.Equal(t, 3600-i*60, result.RemainingSeconds)
		clock.Advance(15 * time.Second)
	}
	assert.Equal(t, BlockedBudgetExhausted, result.Blocked)
	notice := messenger.waitNotice(t)
	assert.Equal(t, 60, notice.UsedMinutes)

	// Further beats stay blocked and never re-announce
	result, err = svc.RecordHeartbeat(context.Background(), beat)
	require.NoError(t, err)
	assert.Equal(t, BlockedBudgetExhausted, result.Blocked)
	assert.Equal(t, 0, result.RemainingSeconds)
	messenger.assertNoNotice(t)

	assert.Equal(t, 3660, store.watchedSeconds("prof_1", today))

	clock.Set(makeDay(time.Monday, 19, 30, time.UTC))
	result, err = svc.RecordHeartbeat(context.Background(), beat)
	require.NoError(t, err)
	assert.Equal(t, BlockedOutsideSchedule, result.Blocked)
}
