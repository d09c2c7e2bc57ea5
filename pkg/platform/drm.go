package platform

import "github.com/google/uuid"

// PropertyDeviceUniqueID is the DRM property holding the per-device unique id.
const PropertyDeviceUniqueID = "deviceUniqueId"

// WidevineUUID is the scheme identifier of the Widevine DRM plugin.
var WidevineUUID = uuid.MustParse("edef8ba9-79d6-4ace-a3c8-27dcd51d21ed")

// DrmSession is an open DRM plugin session. Close must be called exactly once.
type DrmSession interface {
	PropertyByteArray(name string) ([]byte, error)
	Close() error
}

// DrmFactory opens DRM sessions for a scheme.
type DrmFactory interface {
	OpenDrm(scheme uuid.UUID) (DrmSession, error)
}
