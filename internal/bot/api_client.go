package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// VigilAPI is a client for the vigil daemon REST API
type VigilAPI struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
}

// NewVigilAPI creates a new daemon API client
func NewVigilAPI(baseURL, apiKey string, logger *slog.Logger) *VigilAPI {
	return &VigilAPI{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// Profile represents a watch profile
type Profile struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Timezone      string `json:"timezone"`
	Mode          string `json:"mode"`
	SimpleLimit   int    `json:"simple_limit"`
	EduLimit      int    `json:"edu_limit"`
	FunLimit      int    `json:"fun_limit"`
	ScheduleStart string `json:"schedule_start"`
	ScheduleStop  string `json:"schedule_stop"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

// ScheduleStatus represents a profile's viewing window state
type ScheduleStatus struct {
	Open       bool   `json:"open"`
	Start      string `json:"start"`
	Stop       string `json:"stop"`
	NextOpenAt string `json:"next_open_at,omitempty"`
}

// Budget represents one budget pool for one day
type Budget struct {
	Category         string `json:"category"`
	Unlimited        bool   `json:"unlimited"`
	LimitMinutes     int    `json:"limit_minutes"`
	BonusMinutes     int    `json:"bonus_minutes"`
	UsedSeconds      int    `json:"used_seconds"`
	RemainingSeconds int    `json:"remaining_seconds"`
	Exhausted        bool   `json:"exhausted"`
}

// ProfileStatus represents the live schedule and budget snapshot
type ProfileStatus struct {
	ProfileID    string         `json:"profile_id"`
	Name         string         `json:"name"`
	Mode         string         `json:"mode"`
	Date         string         `json:"date"`
	Schedule     ScheduleStatus `json:"schedule"`
	Budgets      []Budget       `json:"budgets"`
	TotalSeconds int            `json:"total_seconds"`
	BonusMinutes int            `json:"bonus_minutes"`
}

// ProfileStats represents a profile's row in the daily report
type ProfileStats struct {
	ProfileID    string   `json:"profile_id"`
	ProfileName  string   `json:"profile_name"`
	Mode         string   `json:"mode"`
	Date         string   `json:"date"`
	Budgets      []Budget `json:"budgets"`
	TotalSeconds int      `json:"total_seconds"`
	BonusMinutes int      `json:"bonus_minutes"`
	UsagePercent int      `json:"usage_percent"`
}

// TodayStats represents today's statistics response
type TodayStats struct {
	Profiles       []ProfileStats `json:"profiles"`
	ActiveSessions int            `json:"active_sessions"`
	TotalProfiles  int            `json:"total_profiles"`
}

// SetLimitRequest represents a request to change a daily limit
type SetLimitRequest struct {
	Mode     string `json:"mode"`
	Category string `json:"category,omitempty"`
	Minutes  int    `json:"minutes"`
}

// DayOverrideRequest represents a request to replace a weekday override.
// Unset fields fall back to the profile defaults for that day.
type DayOverrideRequest struct {
	Start       *string `json:"start,omitempty"`
	Stop        *string `json:"stop,omitempty"`
	SimpleLimit *int    `json:"simple_limit,omitempty"`
	EduLimit    *int    `json:"edu_limit,omitempty"`
	FunLimit    *int    `json:"fun_limit,omitempty"`
}

// DayOverride represents a stored weekday override
type DayOverride struct {
	Weekday     string  `json:"weekday"`
	Start       *string `json:"start"`
	Stop        *string `json:"stop"`
	SimpleLimit *int    `json:"simple_limit"`
	EduLimit    *int    `json:"edu_limit"`
	FunLimit    *int    `json:"fun_limit"`
}

// APIError represents an API error response
type APIError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ListProfiles retrieves all profiles
func (a *VigilAPI) ListProfiles(ctx context.Context) ([]Profile, error) {
	var profiles []Profile
	if err := a.doRequest(ctx, "GET", "/v1/profiles", nil, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// GetStatus retrieves the live schedule and budget snapshot for a profile
func (a *VigilAPI) GetStatus(ctx context.Context, profileID string) (*ProfileStatus, error) {
	var status ProfileStatus
	if err := a.doRequest(ctx, "GET", "/v1/profiles/"+profileID+"/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetTodayStats retrieves today's statistics for all profiles
func (a *VigilAPI) GetTodayStats(ctx context.Context) (*TodayStats, error) {
	var stats TodayStats
	if err := a.doRequest(ctx, "GET", "/v1/stats/today", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// SetLimit sets a daily limit, switching the profile mode if needed
func (a *VigilAPI) SetLimit(ctx context.Context, profileID string, req SetLimitRequest) error {
	return a.doRequest(ctx, "PUT", "/v1/profiles/"+profileID+"/limits", req, nil)
}

// SetSchedule sets the profile's global viewing window. Start and stop
// accept flexible clock input; the daemon normalizes them.
func (a *VigilAPI) SetSchedule(ctx context.Context, profileID, start, stop string) error {
	req := struct {
		Start string `json:"start"`
		Stop  string `json:"stop"`
	}{
		Start: start,
		Stop:  stop,
	}

	return a.doRequest(ctx, "PUT", "/v1/profiles/"+profileID+"/schedule", req, nil)
}

// ClearSchedule removes the profile's global viewing window
func (a *VigilAPI) ClearSchedule(ctx context.Context, profileID string) error {
	return a.doRequest(ctx, "DELETE", "/v1/profiles/"+profileID+"/schedule", nil, nil)
}

// GetDayOverrides retrieves the stored weekday overrides for a profile
func (a *VigilAPI) GetDayOverrides(ctx context.Context, profileID string) ([]DayOverride, error) {
	var overrides []DayOverride
	if err := a.doRequest(ctx, "GET", "/v1/profiles/"+profileID+"/days", nil, &overrides); err != nil {
		return nil, err
	}
	return overrides, nil
}

// SetDayOverride replaces the override for one weekday
func (a *VigilAPI) SetDayOverride(ctx context.Context, profileID, weekday string, req DayOverrideRequest) error {
	return a.doRequest(ctx, "PUT", "/v1/profiles/"+profileID+"/days/"+weekday, req, nil)
}

// ClearDayOverride removes the override for one weekday
func (a *VigilAPI) ClearDayOverride(ctx context.Context, profileID, weekday string) error {
	return a.doRequest(ctx, "DELETE", "/v1/profiles/"+profileID+"/days/"+weekday, nil, nil)
}

// CopyDayOverride copies one weekday's override onto other weekdays
func (a *VigilAPI) CopyDayOverride(ctx context.Context, profileID, from string, to []string) error {
	req := struct {
		From string   `json:"from"`
		To   []string `json:"to"`
	}{
		From: from,
		To:   to,
	}

	return a.doRequest(ctx, "POST", "/v1/profiles/"+profileID+"/days/copy", req, nil)
}

// GrantBonus adds bonus minutes to today's budget
func (a *VigilAPI) GrantBonus(ctx context.Context, profileID string, minutes int) error {
	req := struct {
		Minutes int `json:"minutes"`
	}{
		Minutes: minutes,
	}

	return a.doRequest(ctx, "POST", "/v1/profiles/"+profileID+"/bonus", req, nil)
}

// doRequest performs an HTTP request to the vigil API
func (a *VigilAPI) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	url := a.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Vigil-Key", a.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	a.logger.Debug("API request",
		"method", method,
		"url", url,
	)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr APIError
		if err := json.Unmarshal(respBody, &apiErr); err != nil {
			return fmt.Errorf("API error %d: %s", resp.StatusCode, string(respBody))
		}
		return fmt.Errorf("API error %d: %s (%s)", resp.StatusCode, apiErr.Error, apiErr.Code)
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}
