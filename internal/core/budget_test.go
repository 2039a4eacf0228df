package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockBudgetStore struct {
	overrides map[string]*DayOverride   // profileID-weekday
	ledger    map[string][]*LedgerEntry // profileID-date
	bonus     map[string]int            // profileID-date
}

func newMockBudgetStore() *mockBudgetStore {
	return &mockBudgetStore{
		overrides: make(map[string]*DayOverride),
		ledger:    make(map[string][]*LedgerEntry),
		bonus:     make(map[string]int),
	}
}

func dateKey(profileID string, date time.Time) string {
	return profileID + "-" + date.Format("2006-01-02")
}

func (m *mockBudgetStore) GetDayOverride(ctx context.Context, profileID string, weekday time.Weekday) (*DayOverride, error) {
	override, ok := m.overrides[profileID+"-"+weekday.String()]
	if !ok {
		return nil, ErrOverrideNotFound
	}
	return override, nil
}

func (m *mockBudgetStore) GetDailyWatchSeconds(ctx context.Context, profileID string, date time.Time) ([]*LedgerEntry, error) {
	return m.ledger[dateKey(profileID, date)], nil
}

func (m *mockBudgetStore) GetBonusMinutes(ctx context.Context, profileID string, date time.Time) (int, error) {
	return m.bonus[dateKey(profileID, date)], nil
}

func (m *mockBudgetStore) addWatch(profileID string, date time.Time, category Category, seconds int) {
	key := dateKey(profileID, date)
	m.ledger[key] = append(m.ledger[key], &LedgerEntry{
		ProfileID: profileID,
		Date:      date,
		Category:  category,
		Seconds:   seconds,
	})
}

func TestBudgetService_SimpleRemaining(t *testing.T) {
	store := newMockBudgetStore()
	today := makeDay(time.Monday, 0, 0, time.UTC)
	clock := &MockClock{CurrentTime: makeDay(time.Monday, 10, 0, time.UTC)}
	svc := NewBudgetService(store, clock, nil)

	profile := &Profile{ID: "prof_1", Name: "Alice", Mode: LimitModeSimple, SimpleLimit: 60}
	store.addWatch("prof_1", today, CategoryEntertainment, 1800)

	status, err := svc.RemainingBudget(context.Background(), profile, "")
	require.NoError(t, err)
	assert.False(t, status.Unlimited)
	assert.Equal(t, 60, status.LimitMinutes)
	assert.Equal(t, 1800, status.UsedSeconds)
	assert.Equal(t, 1800, status.RemainingSeconds)
	assert.False(t, status.Exhausted)
}

func TestBudgetService_SimplePoolCountsEveryCategory(t *testing.T) {
	store := newMockBudgetStore()
	today := makeDay(time.Monday, 0, 0, time.UTC)
	clock := &MockClock{CurrentTime: makeDay(time.Monday, 10, 0, time.UTC)}
	svc := NewBudgetService(store, clock, nil)

	profile := &Profile{ID: "prof_1", Name: "Alice", Mode: LimitModeSimple, SimpleLimit: 60}
	store.addWatch("prof_1", today, CategoryEducational, 600)
	store.addWatch("prof_1", today, CategoryEntertainment, 900)

	status, err := svc.RemainingBudget(context.Background(), profile, "")
	require.NoError(t, err)
	assert.Equal(t, 1500, status.UsedSeconds, "one shared pool in simple mode")
	assert.Equal(t, 2100, status.RemainingSeconds)
}

func TestBudgetService_ZeroLimitIsUnlimited(t *testing.T) {
	store := newMockBudgetStore()
	today := makeDay(time.Monday, 0, 0, time.UTC)
	clock := &MockClock{CurrentTime: makeDay(time.Monday, 10, 0, time.UTC)}
	svc := NewBudgetService(store, clock, nil)

	profile := &Profile{ID: "prof_1", Name: "Alice", Mode: LimitModeSimple, SimpleLimit: 0}
	store.addWatch("prof_1", today, CategoryEntertainment, 7200)
	store.bonus[dateKey("prof_1", today)] = 30

	status, err := svc.RemainingBudget(context.Background(), profile, "")
	require.NoError(t, err)
	assert.True(t, status.Unlimited)
	assert.Equal(t, -1, status.RemainingSeconds)
	assert.False(t, status.Exhausted)
	assert.Equal(t, 7200, status.UsedSeconds, "usage is still tallied without a limit")
	assert.Equal(t, 0, status.LimitMinutes, "bonus does not apply to an unlimited pool")
}

func TestBudgetService_BonusStacks(t *testing.T) {
	store := newMockBudgetStore()
	today := makeDay(time.Monday, 0, 0, time.UTC)
	clock := &MockClock{CurrentTime: makeDay(time.Monday, 10, 0, time.UTC)}
	svc := NewBudgetService(store, clock, nil)

	profile := &Profile{ID: "prof_1", Name: "Alice", Mode: LimitModeSimple, SimpleLimit: 60}
	// Two 30-minute grants recorded earlier in the day
	store.bonus[dateKey("prof_1", today)] = 60
	store.addWatch("prof_1", today, CategoryEntertainment, 3600)

	status, err := svc.RemainingBudget(context.Background(), profile, "")
	require.NoError(t, err)
	assert.Equal(t, 120, status.LimitMinutes)
	assert.Equal(t, 60, status.BonusMinutes)
	assert.Equal(t, 3600, status.RemainingSeconds, "a full hour left after the base hour is spent")
}

func TestBudgetService_RemainingFloorsAtZero(t *testing.T) {
	store := newMockBudgetStore()
	today := makeDay(time.Monday, 0, 0, time.UTC)
	clock := &MockClock{CurrentTime: makeDay(time.Monday, 10, 0, time.UTC)}
	svc := NewBudgetService(store, clock, nil)

	profile := &Profile{ID: "prof_1", Name: "Alice", Mode: LimitModeSimple, SimpleLimit: 60}
	store.addWatch("prof_1", today, CategoryEntertainment, 4200)

	status, err := svc.RemainingBudget(context.Background(), profile, "")
	require.NoError(t, err)
	assert.Equal(t, 0, status.RemainingSeconds, "remaining never goes negative")
	assert.True(t, status.Exhausted)
	assert.Equal(t, 4200, status.UsedSeconds, "the raw counter keeps the overshoot")
}

func TestBudgetService_CategoryPoolsAreSeparate(t *testing.T) {
	store := newMockBudgetStore()
	today := makeDay(time.Monday, 0, 0, time.UTC)
	clock := &MockClock{CurrentTime: makeDay(time.Monday, 10, 0, time.UTC)}
	svc := NewBudgetService(store, clock, nil)

	profile := &Profile{
		ID:       "prof_1",
		Name:     "Alice",
		Mode:     LimitModeCategory,
		EduLimit: 30,
		FunLimit: 45,
	}
	store.addWatch("prof_1", today, CategoryEducational, 600)
	store.addWatch("prof_1", today, CategoryEntertainment, 2700)
	// Rows with an unknown label are charged to the entertainment pool
	store.addWatch("prof_1", today, Category("misc"), 300)

	edu, err := svc.RemainingBudget(context.Background(), profile, CategoryEducational)
	require.NoError(t, err)
	assert.Equal(t, 600, edu.UsedSeconds)
	assert.Equal(t, 1200, edu.RemainingSeconds)

	fun, err := svc.RemainingBudget(context.Background(), profile, CategoryEntertainment)
	require.NoError(t, err)
	assert.Equal(t, 3000, fun.UsedSeconds, "entertainment absorbs uncategorized time")
	assert.Equal(t, 0, fun.RemainingSeconds)
	assert.True(t, fun.Exhausted)
}

func TestBudgetService_OverrideLimitWinsOnItsDay(t *testing.T) {
	store := newMockBudgetStore()
	clock := &MockClock{}
	svc := NewBudgetService(store, clock, nil)

	profile := &Profile{ID: "prof_1", Name: "Alice", Mode: LimitModeSimple, SimpleLimit: 60}
	store.overrides["prof_1-"+time.Monday.String()] = &DayOverride{
		ProfileID:   "prof_1",
		Weekday:     time.Monday,
		SimpleLimit: intPtr(30),
	}

	monday := makeDay(time.Monday, 0, 0, time.UTC)
	store.addWatch("prof_1", monday, CategoryEntertainment, 1200)

	clock.Set(makeDay(time.Monday, 10, 0, time.UTC))
	status, err := svc.RemainingBudget(context.Background(), profile, "")
	require.NoError(t, err)
	assert.Equal(t, 30, status.LimitMinutes, "Monday runs on the override limit")
	assert.Equal(t, 600, status.RemainingSeconds)

	tuesday := makeDay(time.Tuesday, 0, 0, time.UTC)
	store.addWatch("prof_1", tuesday, CategoryEntertainment, 1200)

	clock.Set(makeDay(time.Tuesday, 10, 0, time.UTC))
	status, err = svc.RemainingBudget(context.Background(), profile, "")
	require.NoError(t, err)
	assert.Equal(t, 60, status.LimitMinutes, "other days keep the global limit")
	assert.Equal(t, 2400, status.RemainingSeconds)

	// Dropping the override restores the global limit on Monday too
	delete(store.overrides, "prof_1-"+time.Monday.String())
	clock.Set(makeDay(time.Monday, 10, 0, time.UTC))
	status, err = svc.RemainingBudget(context.Background(), profile, "")
	require.NoError(t, err)
	assert.Equal(t, 60, status.LimitMinutes)
}

func TestBudgetService_OverrideForOtherModeIgnored(t *testing.T) {
	store := newMockBudgetStore()
	clock := &MockClock{CurrentTime: makeDay(time.Monday, 10, 0, time.UTC)}
	svc := NewBudgetService(store, clock, nil)

	profile := &Profile{ID: "prof_1", Name: "Alice", Mode: LimitModeSimple, SimpleLimit: 60}
	// A stale category-mode override must not leak into the simple pool
	store.overrides["prof_1-"+time.Monday.String()] = &DayOverride{
		ProfileID: "prof_1",
		Weekday:   time.Monday,
		EduLimit:  intPtr(5),
		FunLimit:  intPtr(5),
	}

	status, err := svc.RemainingBudget(context.Background(), profile, "")
	require.NoError(t, err)
	assert.Equal(t, 60, status.LimitMinutes)
}

func TestBudgetService_ProfileLocalDateBucket(t *testing.T) {
	store := newMockBudgetStore()
	// 20:00 UTC Monday is already Tuesday in Tokyo
	clock := &MockClock{CurrentTime: makeDay(time.Monday, 20, 0, time.UTC)}
	svc := NewBudgetService(store, clock, nil)

	profile := &Profile{
		ID:          "prof_1",
		Name:        "Alice",
		Timezone:    "Asia/Tokyo",
		Mode:        LimitModeSimple,
		SimpleLimit: 60,
	}

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	tuesday := time.Date(2025, 3, 11, 0, 0, 0, 0, tokyo)
	store.addWatch("prof_1", tuesday, CategoryEntertainment, 900)

	status, err := svc.RemainingBudget(context.Background(), profile, "")
	require.NoError(t, err)
	assert.Equal(t, tuesday, status.Date, "the ledger day follows the profile's zone")
	assert.Equal(t, 900, status.UsedSeconds)
}

func TestBudgetService_DailyReport(t *testing.T) {
	store := newMockBudgetStore()
	today := makeDay(time.Monday, 0, 0, time.UTC)
	clock := &MockClock{CurrentTime: makeDay(time.Monday, 10, 0, time.UTC)}
	svc := NewBudgetService(store, clock, nil)

	simple := &Profile{ID: "prof_1", Name: "Alice", Mode: LimitModeSimple, SimpleLimit: 60}
	store.addWatch("prof_1", today, CategoryEntertainment, 600)

	report, err := svc.DailyReport(context.Background(), simple)
	require.NoError(t, err)
	assert.Equal(t, LimitModeSimple, report.Mode)
	require.Len(t, report.Budgets, 1)
	assert.Equal(t, 600, report.TotalSeconds)

	categorized := &Profile{
		ID:       "prof_2",
		Name:     "Bob",
		Mode:     LimitModeCategory,
		EduLimit: 30,
		FunLimit: 45,
	}
	store.addWatch("prof_2", today, CategoryEducational, 300)
	store.addWatch("prof_2", today, CategoryEntertainment, 450)
	store.bonus[dateKey("prof_2", today)] = 15

	report, err = svc.DailyReport(context.Background(), categorized)
	require.NoError(t, err)
	assert.Equal(t, LimitModeCategory, report.Mode)
	require.Len(t, report.Budgets, 2)
	assert.Equal(t, CategoryEducational, report.Budgets[0].Category)
	assert.Equal(t, CategoryEntertainment, report.Budgets[1].Category)
	assert.Equal(t, 750, report.TotalSeconds)
	assert.Equal(t, 15, report.BonusMinutes)
	assert.Equal(t, 45, report.Budgets[0].LimitMinutes, "bonus extends each limited pool")
	assert.Equal(t, 60, report.Budgets[1].LimitMinutes)
}
