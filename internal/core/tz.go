package core

import (
	"log/slog"
	"sync"
	"time"
)

// locationCache resolves profile timezones, logging each invalid zone
// once instead of on every call
type locationCache struct {
	mu     sync.Mutex
	warned map[string]bool
	logger *slog.Logger
}

func newLocationCache(logger *slog.Logger) *locationCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &locationCache{
		warned: make(map[string]bool),
		logger: logger,
	}
}

// Resolve returns the profile's location, falling back to UTC on an
// invalid zone name
func (c *locationCache) Resolve(profile *Profile) *time.Location {
	loc, err := profile.Location()
	if err == nil {
		return loc
	}

	c.mu.Lock()
	first := !c.warned[profile.ID]
	c.warned[profile.ID] = true
	c.mu.Unlock()

	if first {
		c.logger.Warn("Invalid profile timezone, falling back to UTC",
			"profile_id", profile.ID,
			"timezone", profile.Timezone)
	}
	return loc
}

// localDate normalizes t to the start of its calendar day in loc
func localDate(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	year, month, day := local.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}
