package platform

import (
	"time"

	"github.com/benmeehan/fingerprint-agent/internal/models"
)

// LocationListener receives location updates. Implementations must be comparable
// (pointer types) so that RemoveUpdates can find them.
type LocationListener interface {
	OnLocationChanged(fix *models.PositionFix)
}

// LocationManager is the platform location service.
type LocationManager interface {
	// LastKnownLocation returns the most recent fix of provider, or nil when there is none.
	LastKnownLocation(provider models.Provider) (*models.PositionFix, error)
	IsProviderEnabled(provider models.Provider) bool
	// RequestSingleUpdate delivers at most one fix from provider to listener.
	RequestSingleUpdate(provider models.Provider, listener LocationListener) error
	RequestLocationUpdates(provider models.Provider, minTime time.Duration, minDistance float64, listener LocationListener) error
	// RemoveUpdates cancels every pending request registered for listener.
	RemoveUpdates(listener LocationListener)
}
