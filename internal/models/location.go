package models

import (
	"time"
)

// Provider names a location source.
type Provider string

const (
	ProviderGPS     Provider = "gps"
	ProviderNetwork Provider = "network"
)

// PositionFix represents a single location reading reported by a provider.
type PositionFix struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Accuracy   float64   `json:"accuracy"`
	Provider   Provider  `json:"provider"`
	ObservedAt time.Time `json:"observed_at"`
}

// Age returns how old the fix is relative to now.
func (p *PositionFix) Age(now time.Time) time.Duration {
	return now.Sub(p.ObservedAt)
}
