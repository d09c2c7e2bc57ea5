package identity

import (
	"encoding/hex"

	"github.com/benmeehan/fingerprint-agent/pkg/platform"
	"github.com/rs/zerolog"
)

// DrmIdentifier derives the device id from the Widevine DRM plugin.
type DrmIdentifier struct {
	drm    platform.DrmFactory
	logger zerolog.Logger
}

// NewDrmIdentifier creates a DrmIdentifier backed by drm.
func NewDrmIdentifier(drm platform.DrmFactory, logger zerolog.Logger) *DrmIdentifier {
	return &DrmIdentifier{drm: drm, logger: logger}
}

// DeviceID returns the DRM unique id as lowercase hex. It reports false when the plugin is
// missing, the property is empty or the read fails; the session is always released.
func (d *DrmIdentifier) DeviceID() (id string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().Interface("panic", r).Msg("Failed to read DRM device id")
			id, ok = "", false
		}
	}()

	session, err := d.drm.OpenDrm(platform.WidevineUUID)
	if err != nil {
		d.logger.Warn().Err(err).Msg("Failed to open DRM session")
		return "", false
	}
	defer func() {
		if err := session.Close(); err != nil {
			d.logger.Warn().Err(err).Msg("Failed to release DRM session")
		}
	}()

	raw, err := session.PropertyByteArray(platform.PropertyDeviceUniqueID)
	if err != nil {
		d.logger.Warn().Err(err).Msg("Failed to read DRM device id")
		return "", false
	}
	if len(raw) == 0 {
		return "", false
	}
	return FormatHex(raw), true
}

// FormatHex renders b as lowercase hex, two digits per byte.
func FormatHex(b []byte) string {
	return hex.EncodeToString(b)
}
