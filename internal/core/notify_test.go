package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockFlagStore struct {
	mu      sync.Mutex
	flags   map[string]bool
	flagErr error
}

func newMockFlagStore() *mockFlagStore {
	return &mockFlagStore{flags: make(map[string]bool)}
}

func (m *mockFlagStore) TrySetNotificationFlag(ctx context.Context, profileID string, date time.Time, category Category) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.flagErr != nil {
		return false, m.flagErr
	}
	key := profileID + "-" + date.Format("2006-01-02") + "-" + string(category)
	if m.flags[key] {
		return false, nil
	}
	m.flags[key] = true
	return true, nil
}

type failingMessenger struct {
	attempts chan *LimitNotice
}

func (m *failingMessenger) SendLimitNotice(notice *LimitNotice) error {
	m.attempts <- notice
	return errors.New("chat unreachable")
}

func TestNotificationService_ClaimOncePerKey(t *testing.T) {
	store := newMockFlagStore()
	svc := NewNotificationService(store, nil, nil)
	monday := makeDay(time.Monday, 0, 0, time.UTC)
	tuesday := makeDay(time.Tuesday, 0, 0, time.UTC)

	won, err := svc.TryNotify(context.Background(), "prof_1", CategoryEntertainment, monday)
	require.NoError(t, err)
	assert.True(t, won, "the first claim wins")

	won, err = svc.TryNotify(context.Background(), "prof_1", CategoryEntertainment, monday)
	require.NoError(t, err)
	assert.False(t, won, "repeat claims lose")

	won, err = svc.TryNotify(context.Background(), "prof_1", CategoryEducational, monday)
	require.NoError(t, err)
	assert.True(t, won, "each pool claims separately")

	won, err = svc.TryNotify(context.Background(), "prof_1", CategoryEntertainment, tuesday)
	require.NoError(t, err)
	assert.True(t, won, "the date rollover opens a fresh slot")

	won, err = svc.TryNotify(context.Background(), "prof_2", CategoryEntertainment, monday)
	require.NoError(t, err)
	assert.True(t, won, "profiles claim independently")
}

func TestNotificationService_ConcurrentClaims(t *testing.T) {
	store := newMockFlagStore()
	messenger := newRecordingMessenger()
	svc := NewNotificationService(store, messenger, nil)

	notice := &LimitNotice{
		ProfileID:   "prof_1",
		ProfileName: "Alice",
		Date:        makeDay(time.Monday, 0, 0, time.UTC),
	}

	var wg sync.WaitGroup
	wins := make(chan bool, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			won, err := svc.NotifyLimitReached(context.Background(), notice)
			assert.NoError(t, err)
			wins <- won
		}()
	}
	wg.Wait()
	close(wins)

	winners := 0
	for won := range wins {
		if won {
			winners++
		}
	}
	assert.Equal(t, 1, winners, "exactly one racer claims the notice")

	messenger.waitNotice(t)
	messenger.assertNoNotice(t)
}

func TestNotificationService_DeliveryFailureKeepsClaim(t *testing.T) {
	store := newMockFlagStore()
	messenger := &failingMessenger{attempts: make(chan *LimitNotice, 1)}
	svc := NewNotificationService(store, messenger, nil)

	notice := &LimitNotice{
		ProfileID: "prof_1",
		Date:      makeDay(time.Monday, 0, 0, time.UTC),
	}

	won, err := svc.NotifyLimitReached(context.Background(), notice)
	require.NoError(t, err)
	assert.True(t, won)

	select {
	case <-messenger.attempts:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a delivery attempt")
	}

	// A failed delivery does not reopen the day's slot
	won, err = svc.NotifyLimitReached(context.Background(), notice)
	require.NoError(t, err)
	assert.False(t, won)
}

func TestNotificationService_NilMessengerDrops(t *testing.T) {
	store := newMockFlagStore()
	svc := NewNotificationService(store, nil, nil)

	won, err := svc.NotifyLimitReached(context.Background(), &LimitNotice{
		ProfileID: "prof_1",
		Date:      makeDay(time.Monday, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.True(t, won)
}

func TestNotificationService_StorageError(t *testing.T) {
	store := newMockFlagStore()
	store.flagErr = errors.New("db locked")
	svc := NewNotificationService(store, nil, nil)

	won, err := svc.TryNotify(context.Background(), "prof_1", CategoryEntertainment, makeDay(time.Monday, 0, 0, time.UTC))
	require.Error(t, err)
	assert.False(t, won)
}
