package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// FlagStorage defines the storage operations the notification arbiter
// needs
type FlagStorage interface {
	TrySetNotificationFlag(ctx context.Context, profileID string, date time.Time, category Category) (bool, error)
}

// Messenger delivers limit-reached notices to the supervisor
type Messenger interface {
	SendLimitNotice(notice *LimitNotice) error
}

// LimitNotice describes a budget pool that just ran out
type LimitNotice struct {
	ProfileID    string
	ProfileName  string
	Category     Category // empty for the simple pool
	Date         time.Time
	UsedMinutes  int
	LimitMinutes int
}

// NopMessenger drops notices, for setups without a supervisor channel
type NopMessenger struct{}

// SendLimitNotice discards the notice
func (NopMessenger) SendLimitNotice(*LimitNotice) error { return nil }

// NotificationService guarantees at most one limit-reached notice per
// profile, local date and pool. The claim is a durable test-and-set,
// so it holds across restarts and concurrent heartbeats.
type NotificationService struct {
	storage   FlagStorage
	messenger Messenger
	logger    *slog.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(storage FlagStorage, messenger Messenger, logger *slog.Logger) *NotificationService {
	if messenger == nil {
		messenger = NopMessenger{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationService{
		storage:   storage,
		messenger: messenger,
		logger:    logger,
	}
}

// TryNotify atomically claims the notice slot for (profile, local
// date, pool). Exactly one caller wins; everyone else loses until the
// local date rolls over, which needs no reset job because the date is
// part of the key.
func (n *NotificationService) TryNotify(ctx context.Context, profileID string, category Category, date time.Time) (bool, error) {
	won, err := n.storage.TrySetNotificationFlag(ctx, profileID, date, category)
	if err != nil {
		return false, fmt.Errorf("failed to set notification flag: %w", err)
	}
	return won, nil
}

// NotifyLimitReached claims the daily notice and, on a win, hands the
// payload to the messenger without waiting for delivery. Delivery
// failures are logged and never reopen the claim.
func (n *NotificationService) NotifyLimitReached(ctx context.Context, notice *LimitNotice) (bool, error) {
	won, err := n.TryNotify(ctx, notice.ProfileID, notice.Category, notice.Date)
	if err != nil || !won {
		return false, err
	}

	go func() {
		if err := n.messenger.SendLimitNotice(notice); err != nil {
			n.logger.Error("Failed to deliver limit notice",
				"profile_id", notice.ProfileID,
				"category", string(notice.Category),
				"error", err)
		}
	}()
	return true, nil
}
