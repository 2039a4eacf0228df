package core

import "context"

// HeartbeatRecorder defines the contract for the playback hot path
type HeartbeatRecorder interface {
	StartSession(ctx context.Context, profileID, videoID, category string) (*WatchSession, error)
	RecordHeartbeat(ctx context.Context, in HeartbeatInput) (*HeartbeatResult, error)
	EndSession(ctx context.Context, profileID, sessionID string) error
}
