package platform

import "errors"

var (
	// ErrPermissionDenied is returned when the caller lacks the permission an API needs.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrProviderDisabled is returned for requests against a location provider that is not enabled.
	ErrProviderDisabled = errors.New("location provider disabled")
	// ErrUnsupportedScheme is returned when no DRM plugin handles the requested scheme.
	ErrUnsupportedScheme = errors.New("unsupported drm scheme")
	// ErrServiceUnavailable is returned when a platform service cannot be reached.
	ErrServiceUnavailable = errors.New("platform service unavailable")
)
