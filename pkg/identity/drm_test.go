package identity

import (
	"errors"
	"testing"

	"github.com/benmeehan/fingerprint-agent/internal/mocks"
	"github.com/benmeehan/fingerprint-agent/pkg/platform"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestFormatHex(t *testing.T) {
	assert.Equal(t, "0aff", FormatHex([]byte{0x0A, 0xFF}))
	assert.Equal(t, "00ff0a", FormatHex([]byte{0x00, 0xFF, 0x0A}))
	assert.Equal(t, "", FormatHex(nil))
}

func TestDrmIdentifier_DeviceID(t *testing.T) {
	session := new(mocks.MockDrmSession)
	session.On("PropertyByteArray", platform.PropertyDeviceUniqueID).Return([]byte{0xDE, 0xAD, 0x01}, nil)
	session.On("Close").Return(nil)

	drm := new(mocks.MockDrmFactory)
	drm.On("OpenDrm", platform.WidevineUUID).Return(session, nil)

	id, ok := NewDrmIdentifier(drm, zerolog.Nop()).DeviceID()

	assert.True(t, ok)
	assert.Equal(t, "dead01", id)
	session.AssertNumberOfCalls(t, "Close", 1)
}

func TestDrmIdentifier_Absent(t *testing.T) {
	tests := []struct {
		name  string
		setup func(drm *mocks.MockDrmFactory, session *mocks.MockDrmSession)
		close bool
	}{
		{
			name: "plugin missing",
			setup: func(drm *mocks.MockDrmFactory, _ *mocks.MockDrmSession) {
				drm.On("OpenDrm", platform.WidevineUUID).Return(nil, platform.ErrUnsupportedScheme)
			},
		},
		{
			name: "property read fails",
			setup: func(drm *mocks.MockDrmFactory, session *mocks.MockDrmSession) {
				drm.On("OpenDrm", platform.WidevineUUID).Return(session, nil)
				session.On("PropertyByteArray", platform.PropertyDeviceUniqueID).Return(nil, errors.New("provisioning required"))
			},
			close: true,
		},
		{
			name: "empty property",
			setup: func(drm *mocks.MockDrmFactory, session *mocks.MockDrmSession) {
				drm.On("OpenDrm", platform.WidevineUUID).Return(session, nil)
				session.On("PropertyByteArray", platform.PropertyDeviceUniqueID).Return([]byte{}, nil)
			},
			close: true,
		},
		{
			name: "plugin panics",
			setup: func(drm *mocks.MockDrmFactory, session *mocks.MockDrmSession) {
				drm.On("OpenDrm", platform.WidevineUUID).Return(session, nil)
				session.On("PropertyByteArray", platform.PropertyDeviceUniqueID).Run(func(_ mock.Arguments) {
					panic("native crash")
				}).Return(nil, nil)
			},
			close: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drm := new(mocks.MockDrmFactory)
			session := new(mocks.MockDrmSession)
			session.On("Close").Return(errors.New("already released"))
			tt.setup(drm, session)

			var (
				id string
				ok bool
			)
			assert.NotPanics(t, func() { id, ok = NewDrmIdentifier(drm, zerolog.Nop()).DeviceID() })
			assert.False(t, ok)
			assert.Empty(t, id)

			if tt.close {
				session.AssertNumberOfCalls(t, "Close", 1)
			} else {
				session.AssertNotCalled(t, "Close")
			}
		})
	}
}
