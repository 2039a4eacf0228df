package idgen

import (
	"github.com/google/uuid"
)

// ID prefixes for different models
const (
	PrefixProfile = "prof_"
	PrefixSession = "sess_"
)

// NewProfile generates a new profile ID with prof_ prefix
func NewProfile() string {
	return PrefixProfile + uuid.New().String()
}

// NewSession generates a new watch session ID with sess_ prefix
func NewSession() string {
	return PrefixSession + uuid.New().String()
}

// New generates a generic UUID without prefix (for internal use only)
func New() string {
	return uuid.New().String()
}
