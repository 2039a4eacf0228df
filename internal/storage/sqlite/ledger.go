package sqlite

import (
	"context"
	"database/sql"
	"time"

	"vigil/internal/core"
)

// GetDailyWatchSeconds retrieves the ledger rows for one profile-local
// day, one row per category that saw playback
func (s *SQLiteStorage) GetDailyWatchSeconds(ctx context.Context, profileID string, date time.Time) ([]*core.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, seconds, updated_at
		FROM watch_ledger WHERE profile_id = ? AND date = ?
	`, profileID, dayString(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*core.LedgerEntry
	for rows.Next() {
		entry := &core.LedgerEntry{ProfileID: profileID, Date: date}
		if err := rows.Scan(&entry.Category, &entry.Seconds, &entry.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// GetBonusMinutes retrieves the accumulated bonus for one profile-local
// day. Days without grants report zero.
func (s *SQLiteStorage) GetBonusMinutes(ctx context.Context, profileID string, date time.Time) (int, error) {
	var minutes int
	err := s.db.QueryRowContext(ctx, `
		SELECT minutes FROM bonus_grants WHERE profile_id = ? AND date = ?
	`, profileID, dayString(date)).Scan(&minutes)

	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return minutes, nil
}

// AddBonusMinutes stacks bonus minutes onto one profile-local day
func (s *SQLiteStorage) AddBonusMinutes(ctx context.Context, profileID string, date time.Time, minutes int) error {
	now := time.Now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bonus_grants (profile_id, date, minutes, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(profile_id, date) DO UPDATE SET
			minutes = minutes + ?,
			updated_at = ?
	`, profileID, dayString(date), minutes, now, minutes, now)

	return err
}

// TrySetNotificationFlag atomically claims the notice slot for
// (profile, date, category). The insert either lands or hits the
// primary key, so exactly one concurrent caller sees true.
func (s *SQLiteStorage) TrySetNotificationFlag(ctx context.Context, profileID string, date time.Time, category core.Category) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO notification_flags (profile_id, date, category, created_at)
		VALUES (?, ?, ?, ?)
	`, profileID, dayString(date), category, time.Now())
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// PruneLedger deletes ledger rows, bonus grants and notification flags
// for days before the given time
func (s *SQLiteStorage) PruneLedger(ctx context.Context, before time.Time) (int64, error) {
	day := dayString(before)
	var total int64

	for _, table := range []string{"watch_ledger", "bonus_grants", "notification_flags"} {
		result, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE date < ?", day)
		if err != nil {
			return total, err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return total, err
		}
		total += rows
	}

	return total, nil
}
