package platform

import "github.com/benmeehan/fingerprint-agent/internal/utils"

// Permission identifies a runtime permission.
type Permission string

const (
	AccessFineLocation   Permission = "ACCESS_FINE_LOCATION"
	AccessCoarseLocation Permission = "ACCESS_COARSE_LOCATION"
	ReadPhoneState       Permission = "READ_PHONE_STATE"
)

// PermissionChecker answers whether a permission is currently granted.
type PermissionChecker interface {
	Granted(p Permission) bool
}

// StaticPermissions grants a fixed set of permissions.
type StaticPermissions struct {
	granted map[Permission]struct{}
}

// NewStaticPermissions grants exactly the listed permissions.
func NewStaticPermissions(granted []Permission) *StaticPermissions {
	return &StaticPermissions{granted: utils.SliceToSet(granted)}
}

func (s *StaticPermissions) Granted(p Permission) bool {
	_, ok := s.granted[p]
	return ok
}

// HasLocationPermission reports whether either fine or coarse location is granted.
func HasLocationPermission(pc PermissionChecker) bool {
	return pc.Granted(AccessFineLocation) || pc.Granted(AccessCoarseLocation)
}
