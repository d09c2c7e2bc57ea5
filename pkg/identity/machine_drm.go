package identity

import (
	"crypto/sha256"
	"fmt"

	"github.com/benmeehan/fingerprint-agent/pkg/file"
	"github.com/benmeehan/fingerprint-agent/pkg/platform"
	"github.com/google/uuid"
)

// MachineDrm stands in for a DRM plugin on hosts without one. The unique id of a scheme
// is the SHA-256 of the machine id followed by the scheme UUID, so it is stable per host
// and differs between schemes.
type MachineDrm struct {
	machineIDFile string
	fileOps       file.FileOperations
	schemes       map[uuid.UUID]struct{}
}

var _ platform.DrmFactory = (*MachineDrm)(nil)

// NewMachineDrm supports the Widevine scheme using the machine id in machineIDFile.
func NewMachineDrm(machineIDFile string, fileOps file.FileOperations) *MachineDrm {
	return &MachineDrm{
		machineIDFile: machineIDFile,
		fileOps:       fileOps,
		schemes:       map[uuid.UUID]struct{}{platform.WidevineUUID: {}},
	}
}

// OpenDrm opens a session for scheme.
func (m *MachineDrm) OpenDrm(scheme uuid.UUID) (platform.DrmSession, error) {
	if _, ok := m.schemes[scheme]; !ok {
		return nil, fmt.Errorf("%s: %w", scheme, platform.ErrUnsupportedScheme)
	}
	return &machineSession{drm: m, scheme: scheme}, nil
}

type machineSession struct {
	drm    *MachineDrm
	scheme uuid.UUID
	closed bool
}

func (s *machineSession) PropertyByteArray(name string) ([]byte, error) {
	if s.closed {
		return nil, fmt.Errorf("drm session closed")
	}
	if name != platform.PropertyDeviceUniqueID {
		return nil, fmt.Errorf("unknown drm property %q", name)
	}

	machineID, err := s.drm.fileOps.ReadFile(s.drm.machineIDFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read machine id: %w", err)
	}
	if machineID == "" {
		return nil, nil
	}

	h := sha256.New()
	h.Write([]byte(machineID))
	h.Write(s.scheme[:])
	return h.Sum(nil), nil
}

func (s *machineSession) Close() error {
	s.closed = true
	return nil
}
