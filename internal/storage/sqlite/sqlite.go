package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"vigil/internal/core"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStorage implements storage.Storage using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// New creates a new SQLite storage instance
func New(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	storage := &SQLiteStorage{db: db}

	if err := storage.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return storage, nil
}

// migrate creates the database schema
func (s *SQLiteStorage) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS profiles (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			timezone TEXT NOT NULL DEFAULT '',
			mode TEXT NOT NULL,
			simple_limit INTEGER NOT NULL DEFAULT 0,
			edu_limit INTEGER NOT NULL DEFAULT 0,
			fun_limit INTEGER NOT NULL DEFAULT 0,
			schedule_start TEXT NOT NULL DEFAULT '',
			schedule_stop TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS day_overrides (
			profile_id TEXT NOT NULL,
			weekday INTEGER NOT NULL,
			schedule_start TEXT,
			schedule_stop TEXT,
			simple_limit INTEGER,
			edu_limit INTEGER,
			fun_limit INTEGER,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (profile_id, weekday),
			FOREIGN KEY (profile_id) REFERENCES profiles(id) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS watch_sessions (
			id TEXT PRIMARY KEY,
			profile_id TEXT NOT NULL,
			video_id TEXT NOT NULL,
			category TEXT NOT NULL,
			status TEXT NOT NULL,
			started_at DATETIME NOT NULL,
			last_heartbeat_at DATETIME,
			ended_at DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (profile_id) REFERENCES profiles(id) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS watch_ledger (
			profile_id TEXT NOT NULL,
			date DATE NOT NULL,
			category TEXT NOT NULL,
			seconds INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (profile_id, date, category),
			FOREIGN KEY (profile_id) REFERENCES profiles(id) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS bonus_grants (
			profile_id TEXT NOT NULL,
			date DATE NOT NULL,
			minutes INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (profile_id, date),
			FOREIGN KEY (profile_id) REFERENCES profiles(id) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS notification_flags (
			profile_id TEXT NOT NULL,
			date DATE NOT NULL,
			category TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			PRIMARY KEY (profile_id, date, category),
			FOREIGN KEY (profile_id) REFERENCES profiles(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_watch_sessions_status ON watch_sessions(status);
		CREATE INDEX IF NOT EXISTS idx_watch_sessions_profile ON watch_sessions(profile_id);
		CREATE INDEX IF NOT EXISTS idx_watch_ledger_date ON watch_ledger(date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// CreateProfile creates a new profile
func (s *SQLiteStorage) CreateProfile(ctx context.Context, profile *core.Profile) error {
	if err := profile.Validate(); err != nil {
		return err
	}

	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, name, timezone, mode, simple_limit, edu_limit, fun_limit,
			schedule_start, schedule_stop, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, profile.ID, profile.Name, profile.Timezone, profile.Mode,
		profile.SimpleLimit, profile.EduLimit, profile.FunLimit,
		profile.ScheduleStart, profile.ScheduleStop, profile.CreatedAt, profile.UpdatedAt)

	return err
}

// GetProfile retrieves a profile by ID
func (s *SQLiteStorage) GetProfile(ctx context.Context, id string) (*core.Profile, error) {
	var profile core.Profile

	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, timezone, mode, simple_limit, edu_limit, fun_limit,
			schedule_start, schedule_stop, created_at, updated_at
		FROM profiles WHERE id = ?
	`, id).Scan(&profile.ID, &profile.Name, &profile.Timezone, &profile.Mode,
		&profile.SimpleLimit, &profile.EduLimit, &profile.FunLimit,
		&profile.ScheduleStart, &profile.ScheduleStop, &profile.CreatedAt, &profile.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, core.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	return &profile, nil
}

// ListProfiles retrieves all profiles
func (s *SQLiteStorage) ListProfiles(ctx context.Context) ([]*core.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, timezone, mode, simple_limit, edu_limit, fun_limit,
			schedule_start, schedule_stop, created_at, updated_at
		FROM profiles ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*core.Profile
	for rows.Next() {
		var profile core.Profile
		if err := rows.Scan(&profile.ID, &profile.Name, &profile.Timezone, &profile.Mode,
			&profile.SimpleLimit, &profile.EduLimit, &profile.FunLimit,
			&profile.ScheduleStart, &profile.ScheduleStop, &profile.CreatedAt, &profile.UpdatedAt); err != nil {
			return nil, err
		}
		profiles = append(profiles, &profile)
	}

	return profiles, rows.Err()
}

// UpdateProfile updates an existing profile
func (s *SQLiteStorage) UpdateProfile(ctx context.Context, profile *core.Profile) error {
	if err := profile.Validate(); err != nil {
		return err
	}

	profile.UpdatedAt = time.Now()

	result, err := s.db.ExecContext(ctx, `
		UPDATE profiles
		SET name = ?, timezone = ?, mode = ?, simple_limit = ?, edu_limit = ?, fun_limit = ?,
			schedule_start = ?, schedule_stop = ?, updated_at = ?
		WHERE id = ?
	`, profile.Name, profile.Timezone, profile.Mode,
		profile.SimpleLimit, profile.EduLimit, profile.FunLimit,
		profile.ScheduleStart, profile.ScheduleStop, profile.UpdatedAt, profile.ID)

	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return core.ErrProfileNotFound
	}

	return nil
}

// DeleteProfile deletes a profile and, through cascades, everything
// recorded for it
func (s *SQLiteStorage) DeleteProfile(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM profiles WHERE id = ?", id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return core.ErrProfileNotFound
	}

	return nil
}

// GetDayOverride retrieves one weekday's override for a profile
func (s *SQLiteStorage) GetDayOverride(ctx context.Context, profileID string, weekday time.Weekday) (*core.DayOverride, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT profile_id, weekday, schedule_start, schedule_stop,
			simple_limit, edu_limit, fun_limit, created_at, updated_at
		FROM day_overrides WHERE profile_id = ? AND weekday = ?
	`, profileID, int(weekday))

	override, err := scanOverride(row)
	if err == sql.ErrNoRows {
		return nil, core.ErrOverrideNotFound
	}
	if err != nil {
		return nil, err
	}
	return override, nil
}

// ListDayOverrides retrieves all overrides for a profile
func (s *SQLiteStorage) ListDayOverrides(ctx context.Context, profileID string) ([]*core.DayOverride, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT profile_id, weekday, schedule_start, schedule_stop,
			simple_limit, edu_limit, fun_limit, created_at, updated_at
		FROM day_overrides WHERE profile_id = ? ORDER BY weekday
	`, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overrides []*core.DayOverride
	for rows.Next() {
		override, err := scanOverride(rows)
		if err != nil {
			return nil, err
		}
		overrides = append(overrides, override)
	}

	return overrides, rows.Err()
}

// UpsertDayOverride inserts or replaces one weekday's override
func (s *SQLiteStorage) UpsertDayOverride(ctx context.Context, override *core.DayOverride) error {
	now := time.Now()
	override.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO day_overrides (profile_id, weekday, schedule_start, schedule_stop,
			simple_limit, edu_limit, fun_limit, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(profile_id, weekday) DO UPDATE SET
			schedule_start = excluded.schedule_start,
			schedule_stop = excluded.schedule_stop,
			simple_limit = excluded.simple_limit,
			edu_limit = excluded.edu_limit,
			fun_limit = excluded.fun_limit,
			updated_at = excluded.updated_at
	`, override.ProfileID, int(override.Weekday),
		nullString(override.ScheduleStart), nullString(override.ScheduleStop),
		nullInt(override.SimpleLimit), nullInt(override.EduLimit), nullInt(override.FunLimit),
		now, now)

	return err
}

// DeleteDayOverride removes one weekday's override
func (s *SQLiteStorage) DeleteDayOverride(ctx context.Context, profileID string, weekday time.Weekday) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM day_overrides WHERE profile_id = ? AND weekday = ?",
		profileID, int(weekday))
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return core.ErrOverrideNotFound
	}

	return nil
}

// ClearOverrideLimits nulls the limit fields belonging to the given
// mode on every override of the profile. Windows are left alone.
func (s *SQLiteStorage) ClearOverrideLimits(ctx context.Context, profileID string, mode core.LimitMode) error {
	query := `
		UPDATE day_overrides SET simple_limit = NULL, updated_at = ?
		WHERE profile_id = ? AND simple_limit IS NOT NULL
	`
	if mode == core.LimitModeCategory {
		query = `
			UPDATE day_overrides SET edu_limit = NULL, fun_limit = NULL, updated_at = ?
			WHERE profile_id = ? AND (edu_limit IS NOT NULL OR fun_limit IS NOT NULL)
		`
	}

	_, err := s.db.ExecContext(ctx, query, time.Now(), profileID)
	return err
}

// CreateWatchSession creates a new watch session
func (s *SQLiteStorage) CreateWatchSession(ctx context.Context, session *core.WatchSession) error {
	if err := session.Validate(); err != nil {
		return err
	}

	now := time.Now()
	session.CreatedAt = now
	session.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO watch_sessions (id, profile_id, video_id, category, status,
			started_at, last_heartbeat_at, ended_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, session.ID, session.ProfileID, session.VideoID, session.Category, session.Status,
		session.StartedAt, nullTime(session.LastHeartbeatAt), nullTime(session.EndedAt),
		session.CreatedAt, session.UpdatedAt)

	return err
}

// GetWatchSession retrieves a watch session by ID
func (s *SQLiteStorage) GetWatchSession(ctx context.Context, id string) (*core.WatchSession, error) {
	var session core.WatchSession
	var lastHeartbeatAt, endedAt sql.NullTime

	err := s.db.QueryRowContext(ctx, `
		SELECT id, profile_id, video_id, category, status,
			started_at, last_heartbeat_at, ended_at, created_at, updated_at
		FROM watch_sessions WHERE id = ?
	`, id).Scan(&session.ID, &session.ProfileID, &session.VideoID, &session.Category,
		&session.Status, &session.StartedAt, &lastHeartbeatAt, &endedAt,
		&session.CreatedAt, &session.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, core.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	if lastHeartbeatAt.Valid {
		session.LastHeartbeatAt = &lastHeartbeatAt.Time
	}
	if endedAt.Valid {
		session.EndedAt = &endedAt.Time
	}

	return &session, nil
}

// ListActiveSessions retrieves all active watch sessions
func (s *SQLiteStorage) ListActiveSessions(ctx context.Context) ([]*core.WatchSession, error) {
	return s.listSessionsByCondition(ctx, "status = ?", core.WatchSessionActive)
}

// ListSessionsByProfile retrieves all watch sessions for a profile
func (s *SQLiteStorage) ListSessionsByProfile(ctx context.Context, profileID string) ([]*core.WatchSession, error) {
	return s.listSessionsByCondition(ctx, "profile_id = ?", profileID)
}

// UpdateWatchSession updates an existing watch session
func (s *SQLiteStorage) UpdateWatchSession(ctx context.Context, session *core.WatchSession) error {
	session.UpdatedAt = time.Now()

	result, err := s.db.ExecContext(ctx, `
		UPDATE watch_sessions
		SET status = ?, last_heartbeat_at = ?, ended_at = ?, updated_at = ?
		WHERE id = ?
	`, session.Status, nullTime(session.LastHeartbeatAt), nullTime(session.EndedAt),
		session.UpdatedAt, session.ID)

	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return core.ErrSessionNotFound
	}

	return nil
}

// ApplyWatchDelta commits one heartbeat: the session's last-heartbeat
// timestamp and the ledger increment in a single transaction, so a
// failure leaves both untouched.
func (s *SQLiteStorage) ApplyWatchDelta(ctx context.Context, session *core.WatchSession, date time.Time, beatAt time.Time, seconds int) error {
	now := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE watch_sessions SET last_heartbeat_at = ?, updated_at = ? WHERE id = ?
	`, beatAt, now, session.ID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return core.ErrSessionNotFound
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO watch_ledger (profile_id, date, category, seconds, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(profile_id, date, category) DO UPDATE SET
			seconds = seconds + ?,
			updated_at = ?
	`, session.ProfileID, dayString(date), session.Category, seconds, now, seconds, now)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	at := beatAt
	session.LastHeartbeatAt = &at
	session.UpdatedAt = now
	return nil
}

// ExpireStaleSessions marks active sessions whose last sign of life is
// older than the cutoff as expired. Sessions that never sent a
// heartbeat age from their start time.
func (s *SQLiteStorage) ExpireStaleSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE watch_sessions
		SET status = ?, updated_at = ?
		WHERE status = ? AND COALESCE(last_heartbeat_at, started_at) < ?
	`, core.WatchSessionExpired, time.Now(), core.WatchSessionActive, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// PruneSessions deletes non-active sessions that started before the
// given time
func (s *SQLiteStorage) PruneSessions(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM watch_sessions WHERE status != ? AND started_at < ?
	`, core.WatchSessionActive, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Ping verifies the database connection
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Helper functions

func (s *SQLiteStorage) listSessionsByCondition(ctx context.Context, condition string, args ...interface{}) ([]*core.WatchSession, error) {
	query := `
		SELECT id, profile_id, video_id, category, status,
			started_at, last_heartbeat_at, ended_at, created_at, updated_at
		FROM watch_sessions WHERE ` + condition + ` ORDER BY started_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*core.WatchSession
	for rows.Next() {
		var session core.WatchSession
		var lastHeartbeatAt, endedAt sql.NullTime

		if err := rows.Scan(&session.ID, &session.ProfileID, &session.VideoID, &session.Category,
			&session.Status, &session.StartedAt, &lastHeartbeatAt, &endedAt,
			&session.CreatedAt, &session.UpdatedAt); err != nil {
			return nil, err
		}

		if lastHeartbeatAt.Valid {
			session.LastHeartbeatAt = &lastHeartbeatAt.Time
		}
		if endedAt.Valid {
			session.EndedAt = &endedAt.Time
		}

		sessions = append(sessions, &session)
	}

	return sessions, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanOverride(row scanner) (*core.DayOverride, error) {
	var override core.DayOverride
	var weekday int
	var start, stop sql.NullString
	var simple, edu, fun sql.NullInt64

	if err := row.Scan(&override.ProfileID, &weekday, &start, &stop,
		&simple, &edu, &fun, &override.CreatedAt, &override.UpdatedAt); err != nil {
		return nil, err
	}

	override.Weekday = time.Weekday(weekday)
	if start.Valid {
		override.ScheduleStart = &start.String
	}
	if stop.Valid {
		override.ScheduleStop = &stop.String
	}
	if simple.Valid {
		v := int(simple.Int64)
		override.SimpleLimit = &v
	}
	if edu.Valid {
		v := int(edu.Int64)
		override.EduLimit = &v
	}
	if fun.Valid {
		v := int(fun.Int64)
		override.FunLimit = &v
	}

	return &override, nil
}

// dayString renders a profile-local day as its calendar date. The
// caller normalizes the time into the profile's zone first.
func dayString(date time.Time) string {
	return date.Format("2006-01-02")
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullTime(p *time.Time) sql.NullTime {
	if p == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *p, Valid: true}
}
