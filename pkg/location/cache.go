package location

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/benmeehan/fingerprint-agent/internal/metrics"
	"github.com/benmeehan/fingerprint-agent/internal/models"
	"github.com/benmeehan/fingerprint-agent/pkg/platform"
	"github.com/rs/zerolog"
)

const (
	// DefaultStalenessWindow is the maximum age of a fix that is still returned as current.
	DefaultStalenessWindow = 10 * time.Second
	// DefaultMinRequestInterval throttles one-shot update requests.
	DefaultMinRequestInterval = 5 * time.Second

	updatesMinTime     = 10 * time.Second
	updatesMinDistance = 10.0 // meters
)

var providers = []models.Provider{models.ProviderGPS, models.ProviderNetwork}

// Cache keeps the freshest known position fix and throttles active location requests.
// All fields below mu are only touched with mu held; platform calls that may call back
// into the cache are made without it.
type Cache struct {
	manager            platform.LocationManager
	permissions        platform.PermissionChecker
	logger             zerolog.Logger
	stalenessWindow    time.Duration
	minRequestInterval time.Duration
	now                func() time.Time

	mu          sync.Mutex
	current     *models.PositionFix
	lastRequest time.Time
}

// Option customizes a Cache.
type Option func(*Cache)

// WithStalenessWindow overrides DefaultStalenessWindow.
func WithStalenessWindow(d time.Duration) Option {
	return func(c *Cache) { c.stalenessWindow = d }
}

// WithMinRequestInterval overrides DefaultMinRequestInterval.
func WithMinRequestInterval(d time.Duration) Option {
	return func(c *Cache) { c.minRequestInterval = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// NewCache creates a location cache on top of the platform location manager.
func NewCache(manager platform.LocationManager, permissions platform.PermissionChecker, logger zerolog.Logger, opts ...Option) *Cache {
	c := &Cache{
		manager:            manager,
		permissions:        permissions,
		logger:             logger,
		stalenessWindow:    DefaultStalenessWindow,
		minRequestInterval: DefaultMinRequestInterval,
		now:                time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetCurrentLocation returns the best known fix, or nil when none is available.
// It never blocks on the platform beyond the last-known lookups; a one-shot request,
// when issued, only benefits later calls.
func (c *Cache) GetCurrentLocation() *models.PositionFix {
	now := c.now()

	c.mu.Lock()
	if c.fresh(c.current, now) {
		fix := c.current
		c.mu.Unlock()
		metrics.LocationLookups.WithLabelValues("cached").Inc()
		c.logger.Debug().Msg("Using cached location")
		return fix
	}
	c.mu.Unlock()

	if !platform.HasLocationPermission(c.permissions) {
		metrics.LocationLookups.WithLabelValues("denied").Inc()
		c.logger.Warn().Msg("Location permission not granted")
		return nil
	}
	if !c.IsServiceAvailable() {
		metrics.LocationLookups.WithLabelValues("unavailable").Inc()
		c.logger.Warn().Msg("Location service not available")
		return nil
	}

	gps := c.lastKnown(models.ProviderGPS)
	network := c.lastKnown(models.ProviderNetwork)

	c.mu.Lock()
	var request bool
	switch {
	case c.fresh(gps, now):
		c.current = gps
		c.logger.Debug().Float64("latitude", gps.Latitude).Float64("longitude", gps.Longitude).Msg("Using GPS location")
	case c.fresh(network, now):
		c.current = network
		c.logger.Debug().Float64("latitude", network.Latitude).Float64("longitude", network.Longitude).Msg("Using network location")
	default:
		c.logger.Warn().Msg("No recent last known location available")
		if c.lastRequest.IsZero() || now.Sub(c.lastRequest) >= c.minRequestInterval {
			c.lastRequest = now
			request = true
		}
	}
	fix := c.current
	c.mu.Unlock()

	if request {
		metrics.LocationLookups.WithLabelValues("requested").Inc()
		c.requestCurrentLocation()
	} else {
		metrics.LocationLookups.WithLabelValues("last_known").Inc()
	}
	return fix
}

// IsServiceAvailable reports whether at least one location provider is enabled.
func (c *Cache) IsServiceAvailable() bool {
	gpsEnabled := c.manager.IsProviderEnabled(models.ProviderGPS)
	networkEnabled := c.manager.IsProviderEnabled(models.ProviderNetwork)
	c.logger.Debug().Bool("gps_enabled", gpsEnabled).Bool("network_enabled", networkEnabled).Msg("Location providers")
	return gpsEnabled || networkEnabled
}

// Clear drops the cached fix so the next lookup queries the platform again.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()
}

// RequestLocationUpdates registers listener for continuous updates from both providers.
// Without location permission it does nothing.
func (c *Cache) RequestLocationUpdates(listener platform.LocationListener) {
	if !platform.HasLocationPermission(c.permissions) {
		return
	}
	for _, p := range providers {
		if err := c.manager.RequestLocationUpdates(p, updatesMinTime, updatesMinDistance, listener); err != nil {
			c.logger.Warn().Err(err).Str("provider", string(p)).Msg("Failed to request location updates")
		}
	}
}

// RemoveLocationUpdates unregisters listener from every provider.
func (c *Cache) RemoveLocationUpdates(listener platform.LocationListener) {
	c.manager.RemoveUpdates(listener)
}

func (c *Cache) fresh(fix *models.PositionFix, now time.Time) bool {
	return fix != nil && fix.Age(now) < c.stalenessWindow
}

func (c *Cache) lastKnown(p models.Provider) *models.PositionFix {
	fix, err := c.manager.LastKnownLocation(p)
	if err != nil {
		c.logger.Warn().Err(err).Str("provider", string(p)).Msg("Failed to read last known location")
		return nil
	}
	return fix
}

// requestCurrentLocation asks both providers for one fix; the first answer wins.
func (c *Cache) requestCurrentLocation() {
	l := &oneShotListener{cache: c}
	for _, p := range providers {
		if err := c.manager.RequestSingleUpdate(p, l); err != nil {
			c.logger.Error().Err(err).Str("provider", string(p)).Msg("Error requesting current location")
		}
	}
}

// oneShotListener accepts the first fix it sees and removes itself afterwards.
type oneShotListener struct {
	cache *Cache
	fired atomic.Bool
}

func (l *oneShotListener) OnLocationChanged(fix *models.PositionFix) {
	if fix == nil || !l.fired.CompareAndSwap(false, true) {
		return
	}

	l.cache.mu.Lock()
	l.cache.current = fix
	l.cache.mu.Unlock()

	l.cache.logger.Debug().
		Str("provider", string(fix.Provider)).
		Float64("latitude", fix.Latitude).
		Float64("longitude", fix.Longitude).
		Msg("Location updated")
	l.cache.manager.RemoveUpdates(l)
}
