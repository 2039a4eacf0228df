package logging

import (
	"context"
	"log/slog"
	"time"

	"vigil/internal/core"
)

// HeartbeatRecorderLogger wraps a HeartbeatRecorder and logs all method calls
type HeartbeatRecorderLogger struct {
	recorder core.HeartbeatRecorder
	logger   *slog.Logger
}

// NewHeartbeatRecorderLogger creates a new logging decorator for HeartbeatRecorder
func NewHeartbeatRecorderLogger(recorder core.HeartbeatRecorder, logger *slog.Logger) core.HeartbeatRecorder {
	return &HeartbeatRecorderLogger{
		recorder: recorder,
		logger:   logger.With("interface", "HeartbeatRecorder"),
	}
}

func (l *HeartbeatRecorderLogger) StartSession(ctx context.Context, profileID, videoID, category string) (*core.WatchSession, error) {
	start := time.Now()
	l.logger.Info("StartSession called",
		"profile_id", profileID,
		"video_id", videoID,
		"category", category)

	session, err := l.recorder.StartSession(ctx, profileID, videoID, category)
	duration := time.Since(start)

	if err != nil {
		l.logger.Error("StartSession failed",
			"profile_id", profileID,
			"video_id", videoID,
			"category", category,
			"duration", duration,
			"error", err)
		return nil, err
	}

	l.logger.Info("StartSession completed",
		"profile_id", profileID,
		"session_id", session.ID,
		"category", session.Category,
		"duration", duration)

	return session, nil
}

func (l *HeartbeatRecorderLogger) RecordHeartbeat(ctx context.Context, in core.HeartbeatInput) (*core.HeartbeatResult, error) {
	start := time.Now()
	l.logger.Debug("RecordHeartbeat called",
		"profile_id", in.ProfileID,
		"session_id", in.SessionID,
		"seconds", in.Seconds)

	result, err := l.recorder.RecordHeartbeat(ctx, in)
	duration := time.Since(start)

	if err != nil {
		l.logger.Error("RecordHeartbeat failed",
			"profile_id", in.ProfileID,
			"session_id", in.SessionID,
			"seconds", in.Seconds,
			"duration", duration,
			"error", err)
		return nil, err
	}

	l.logger.Debug("RecordHeartbeat completed",
		"profile_id", in.ProfileID,
		"session_id", in.SessionID,
		"recorded_seconds", result.RecordedSeconds,
		"remaining_seconds", result.RemainingSeconds,
		"blocked", result.Blocked,
		"duration", duration)

	return result, nil
}

func (l *HeartbeatRecorderLogger) EndSession(ctx context.Context, profileID, sessionID string) error {
	start := time.Now()
	l.logger.Info("EndSession called",
		"profile_id", profileID,
		"session_id", sessionID)

	err := l.recorder.EndSession(ctx, profileID, sessionID)
	duration := time.Since(start)

	if err != nil {
		l.logger.Error("EndSession failed",
			"profile_id", profileID,
			"session_id", sessionID,
			"duration", duration,
			"error", err)
		return err
	}

	l.logger.Info("EndSession completed",
		"profile_id", profileID,
		"session_id", sessionID,
		"duration", duration)

	return nil
}
