package fingerprint

import (
	"context"
	"sync"
	"time"

	"github.com/benmeehan/fingerprint-agent/internal/models"
	"github.com/benmeehan/fingerprint-agent/internal/utils"
	"github.com/benmeehan/fingerprint-agent/pkg/identity"
	"github.com/benmeehan/fingerprint-agent/pkg/location"
	"github.com/benmeehan/fingerprint-agent/pkg/platform"
	"github.com/benmeehan/fingerprint-agent/pkg/telephony"
	"github.com/rs/zerolog"
)

// DefaultSummaryWindow is how long a location summary is reused.
const DefaultSummaryWindow = 30 * time.Second

const (
	summaryServiceUnavailable  = "Location service not available"
	summaryLocationUnavailable = "Location not available"
	hardwareUnavailable        = "Hardware info not available"
)

// Collector gathers the individual fingerprint signals of the device.
type Collector struct {
	cache         *location.Cache
	telephony     platform.TelephonyManager
	build         platform.BuildSource
	drm           *identity.DrmIdentifier
	summaryWindow time.Duration
	logger        zerolog.Logger
	now           func() time.Time

	mu          sync.Mutex
	summary     string
	summaryTime time.Time
}

// NewCollector wires the collectors together.
func NewCollector(cache *location.Cache, tm platform.TelephonyManager, build platform.BuildSource,
	drm *identity.DrmIdentifier, summaryWindow time.Duration, logger zerolog.Logger) *Collector {
	if summaryWindow <= 0 {
		summaryWindow = DefaultSummaryWindow
	}
	return &Collector{
		cache:         cache,
		telephony:     tm,
		build:         build,
		drm:           drm,
		summaryWindow: summaryWindow,
		logger:        logger,
		now:           time.Now,
	}
}

// CollectLocationInfo returns a textual location summary, reusing the previous one for
// the summary window.
func (c *Collector) CollectLocationInfo() string {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.summary != "" && now.Sub(c.summaryTime) < c.summaryWindow {
		return c.summary
	}

	switch {
	case !c.cache.IsServiceAvailable():
		c.summary = summaryServiceUnavailable
	default:
		if fix := c.cache.GetCurrentLocation(); fix != nil {
			c.summary = "Latitude: " + utils.FormatCoordinate(fix.Latitude) + ", Longitude: " + utils.FormatCoordinate(fix.Longitude)
		} else {
			c.summary = summaryLocationUnavailable
		}
	}
	c.summaryTime = now
	return c.summary
}

// ClearLocationInfoCache drops the summary and the cached fix.
func (c *Collector) ClearLocationInfoCache() {
	c.mu.Lock()
	c.summary = ""
	c.summaryTime = time.Time{}
	c.mu.Unlock()

	c.cache.Clear()
}

// CurrentFix returns the cached or freshly looked up position fix, or nil.
func (c *Collector) CurrentFix() *models.PositionFix {
	return c.cache.GetCurrentLocation()
}

// RegisterLocationUpdates subscribes listener to continuous updates.
func (c *Collector) RegisterLocationUpdates(listener platform.LocationListener) {
	c.cache.RequestLocationUpdates(listener)
}

// UnregisterLocationUpdates removes listener.
func (c *Collector) UnregisterLocationUpdates(listener platform.LocationListener) {
	c.cache.RemoveLocationUpdates(listener)
}

// CollectCellTowerInfo returns the legacy one-line cell description.
func (c *Collector) CollectCellTowerInfo(ctx context.Context) string {
	return telephony.LegacyCellTowerText(ctx, c.telephony, c.logger)
}

// CollectHardwareInfo returns the hardware summary line.
func (c *Collector) CollectHardwareInfo() string {
	b, err := c.build.BuildInfo()
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to read build info")
		return hardwareUnavailable
	}
	return identity.HardwareInfo(b)
}

// DeviceID returns the DRM derived device id.
func (c *Collector) DeviceID() (string, bool) {
	return c.drm.DeviceID()
}
