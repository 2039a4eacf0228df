package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockScheduleStore struct {
	overrides map[string][]*DayOverride
}

func newMockScheduleStore() *mockScheduleStore {
	return &mockScheduleStore{overrides: make(map[string][]*DayOverride)}
}

func (m *mockScheduleStore) ListDayOverrides(ctx context.Context, profileID string) ([]*DayOverride, error) {
	return m.overrides[profileID], nil
}

// makeDay returns the given weekday of the week starting Monday
// 2025-03-10, at the given local time
func makeDay(weekday time.Weekday, hour, minute int, loc *time.Location) time.Time {
	base := time.Date(2025, 3, 10, hour, minute, 0, 0, loc) // a Monday
	offset := (int(weekday) - int(time.Monday) + 7) % 7
	return base.AddDate(0, 0, offset)
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestScheduleService_NoWindowAlwaysOpen(t *testing.T) {
	store := newMockScheduleStore()
	clock := &MockClock{CurrentTime: makeDay(time.Monday, 3, 0, time.UTC)}
	svc := NewScheduleService(store, clock, nil)

	profile := &Profile{ID: "prof_1", Name: "Alice", Mode: LimitModeSimple}

	status, err := svc.CheckSchedule(context.Background(), profile)
	require.NoError(t, err)
	assert.True(t, status.Open, "no window means no restriction")
	assert.Nil(t, status.NextOpenAt)
}

func TestScheduleService_DaytimeWindow(t *testing.T) {
	store := newMockScheduleStore()
	clock := &MockClock{}
	svc := NewScheduleService(store, clock, nil)

	profile := &Profile{
		ID:            "prof_1",
		Name:          "Alice",
		Mode:          LimitModeSimple,
		ScheduleStart: "08:00",
		ScheduleStop:  "19:00",
	}

	tests := []struct {
		name string
		at   time.Time
		open bool
	}{
		{"before start", makeDay(time.Monday, 7, 59, time.UTC), false},
		{"at start", makeDay(time.Monday, 8, 0, time.UTC), true},
		{"midday", makeDay(time.Monday, 12, 0, time.UTC), true},
		{"just before stop", makeDay(time.Monday, 18, 59, time.UTC), true},
		{"at stop", makeDay(time.Monday, 19, 0, time.UTC), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock.Set(tt.at)
			status, err := svc.CheckSchedule(context.Background(), profile)
			require.NoError(t, err)
			assert.Equal(t, tt.open, status.Open)
		})
	}

	// Closed before the window opens: next opening is later today
	clock.Set(makeDay(time.Monday, 7, 59, time.UTC))
	status, err := svc.CheckSchedule(context.Background(), profile)
	require.NoError(t, err)
	require.NotNil(t, status.NextOpenAt)
	assert.Equal(t, makeDay(time.Monday, 8, 0, time.UTC), *status.NextOpenAt)

	// Closed after the window: next opening is tomorrow morning
	clock.Set(makeDay(time.Monday, 21, 0, time.UTC))
	status, err = svc.CheckSchedule(context.Background(), profile)
	require.NoError(t, err)
	require.NotNil(t, status.NextOpenAt)
	assert.Equal(t, makeDay(time.Tuesday, 8, 0, time.UTC), *status.NextOpenAt)
}

func TestScheduleService_OvernightWindow(t *testing.T) {
	store := newMockScheduleStore()
	clock := &MockClock{}
	svc := NewScheduleService(store, clock, nil)

	profile := &Profile{
		ID:            "prof_1",
		Name:          "Alice",
		Mode:          LimitModeSimple,
		ScheduleStart: "22:00",
		ScheduleStop:  "06:00",
	}

	tests := []struct {
		name string
		at   time.Time
		open bool
	}{
		{"late evening", makeDay(time.Monday, 23, 30, time.UTC), true},
		{"small hours", makeDay(time.Tuesday, 2, 0, time.UTC), true},
		{"just before stop", makeDay(time.Tuesday, 5, 59, time.UTC), true},
		{"at stop", makeDay(time.Tuesday, 6, 0, time.UTC), false},
		{"midday", makeDay(time.Monday, 12, 0, time.UTC), false},
		{"at start", makeDay(time.Monday, 22, 0, time.UTC), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock.Set(tt.at)
			status, err := svc.CheckSchedule(context.Background(), profile)
			require.NoError(t, err)
			assert.Equal(t, tt.open, status.Open, "at %s", tt.at)
		})
	}

	// Closed midday: the evening leg opens next
	clock.Set(makeDay(time.Monday, 12, 0, time.UTC))
	status, err := svc.CheckSchedule(context.Background(), profile)
	require.NoError(t, err)
	require.NotNil(t, status.NextOpenAt)
	assert.Equal(t, makeDay(time.Monday, 22, 0, time.UTC), *status.NextOpenAt)
}

func TestScheduleService_SingleEdgeWindows(t *testing.T) {
	store := newMockScheduleStore()
	clock := &MockClock{}
	svc := NewScheduleService(store, clock, nil)

	startOnly := &Profile{ID: "prof_1", Name: "A", Mode: LimitModeSimple, ScheduleStart: "15:00"}
	stopOnly := &Profile{ID: "prof_2", Name: "B", Mode: LimitModeSimple, ScheduleStop: "15:00"}

	clock.Set(makeDay(time.Monday, 14, 0, time.UTC))
	status, err := svc.CheckSchedule(context.Background(), startOnly)
	require.NoError(t, err)
	assert.False(t, status.Open, "blocked before a start-only edge")

	status, err = svc.CheckSchedule(context.Background(), stopOnly)
	require.NoError(t, err)
	assert.True(t, status.Open, "open until a stop-only edge")

	clock.Set(makeDay(time.Monday, 16, 0, time.UTC))
	status, err = svc.CheckSchedule(context.Background(), startOnly)
	require.NoError(t, err)
	assert.True(t, status.Open)

	status, err = svc.CheckSchedule(context.Background(), stopOnly)
	require.NoError(t, err)
	assert.False(t, status.Open)
	require.NotNil(t, status.NextOpenAt, "stop-only reopens at midnight")
	assert.Equal(t, makeDay(time.Tuesday, 0, 0, time.UTC), *status.NextOpenAt)
}

func TestScheduleService_EmptyWindowNeverOpens(t *testing.T) {
	store := newMockScheduleStore()
	clock := &MockClock{CurrentTime: makeDay(time.Monday, 12, 0, time.UTC)}
	svc := NewScheduleService(store, clock, nil)

	profile := &Profile{
		ID:            "prof_1",
		Name:          "Alice",
		Mode:          LimitModeSimple,
		ScheduleStart: "09:00",
		ScheduleStop:  "09:00",
	}

	status, err := svc.CheckSchedule(context.Background(), profile)
	require.NoError(t, err)
	assert.False(t, status.Open, "equal edges form an empty window")
	assert.Nil(t, status.NextOpenAt, "no day within the lookahead opens")
}

func TestScheduleService_OverrideReplacesWholeWindow(t *testing.T) {
	store := newMockScheduleStore()
	clock := &MockClock{}
	svc := NewScheduleService(store, clock, nil)

	profile := &Profile{
		ID:            "prof_1",
		Name:          "Alice",
		Mode:          LimitModeSimple,
		ScheduleStart: "08:00",
		ScheduleStop:  "19:00",
	}
	// Saturday sets only a start edge; the global stop must not leak in
	store.overrides["prof_1"] = []*DayOverride{
		{ProfileID: "prof_1", Weekday: time.Saturday, ScheduleStart: strPtr("10:00")},
	}

	clock.Set(makeDay(time.Saturday, 21, 0, time.UTC))
	status, err := svc.CheckSchedule(context.Background(), profile)
	require.NoError(t, err)
	assert.True(t, status.Open, "start-only override keeps Saturday open past the global stop")

	clock.Set(makeDay(time.Saturday, 9, 0, time.UTC))
	status, err = svc.CheckSchedule(context.Background(), profile)
	require.NoError(t, err)
	assert.False(t, status.Open, "override start replaces the earlier global start")

	// Other days still follow the global window
	clock.Set(makeDay(time.Sunday, 9, 0, time.UTC))
	status, err = svc.CheckSchedule(context.Background(), profile)
	require.NoError(t, err)
	assert.True(t, status.Open)
}

func TestScheduleService_NextOpenSkipsClosedDays(t *testing.T) {
	store := newMockScheduleStore()
	clock := &MockClock{CurrentTime: makeDay(time.Monday, 13, 0, time.UTC)}
	svc := NewScheduleService(store, clock, nil)

	// Globally closed, with a Wednesday-only window
	profile := &Profile{
		ID:            "prof_1",
		Name:          "Alice",
		Mode:          LimitModeSimple,
		ScheduleStart: "00:00",
		ScheduleStop:  "00:00",
	}
	store.overrides["prof_1"] = []*DayOverride{
		{
			ProfileID:     "prof_1",
			Weekday:       time.Wednesday,
			ScheduleStart: strPtr("10:00"),
			ScheduleStop:  strPtr("12:00"),
		},
	}

	status, err := svc.CheckSchedule(context.Background(), profile)
	require.NoError(t, err)
	assert.False(t, status.Open)
	require.NotNil(t, status.NextOpenAt)
	assert.Equal(t, makeDay(time.Wednesday, 10, 0, time.UTC), *status.NextOpenAt)
}

func TestScheduleService_ProfileLocalTime(t *testing.T) {
	store := newMockScheduleStore()
	// 23:00 UTC Monday is 08:00 Tuesday in Tokyo
	clock := &MockClock{CurrentTime: makeDay(time.Monday, 23, 0, time.UTC)}
	svc := NewScheduleService(store, clock, nil)

	profile := &Profile{
		ID:            "prof_1",
		Name:          "Alice",
		Timezone:      "Asia/Tokyo",
		Mode:          LimitModeSimple,
		ScheduleStart: "08:00",
		ScheduleStop:  "19:00",
	}

	status, err := svc.CheckSchedule(context.Background(), profile)
	require.NoError(t, err)
	assert.True(t, status.Open, "window is evaluated in the profile's zone")
}

func TestScheduleService_InvalidTimezoneFallsBackToUTC(t *testing.T) {
	store := newMockScheduleStore()
	clock := &MockClock{CurrentTime: makeDay(time.Monday, 12, 0, time.UTC)}
	svc := NewScheduleService(store, clock, nil)

	profile := &Profile{
		ID:            "prof_1",
		Name:          "Alice",
		Timezone:      "Mars/Olympus",
		Mode:          LimitModeSimple,
		ScheduleStart: "08:00",
		ScheduleStop:  "19:00",
	}

	status, err := svc.CheckSchedule(context.Background(), profile)
	require.NoError(t, err)
	assert.True(t, status.Open, "falls back to UTC instead of failing")
}
