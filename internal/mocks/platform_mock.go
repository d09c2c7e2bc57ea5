package mocks

import (
	"context"
	"time"

	"github.com/benmeehan/fingerprint-agent/internal/models"
	"github.com/benmeehan/fingerprint-agent/pkg/platform"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockLocationManager is a mock implementation of platform.LocationManager
type MockLocationManager struct {
	mock.Mock
}

func (m *MockLocationManager) LastKnownLocation(provider models.Provider) (*models.PositionFix, error) {
	args := m.Called(provider)
	fix, _ := args.Get(0).(*models.PositionFix)
	return fix, args.Error(1)
}

func (m *MockLocationManager) IsProviderEnabled(provider models.Provider) bool {
	args := m.Called(provider)
	return args.Bool(0)
}

func (m *MockLocationManager) RequestSingleUpdate(provider models.Provider, listener platform.LocationListener) error {
	args := m.Called(provider, listener)
	return args.Error(0)
}

func (m *MockLocationManager) RequestLocationUpdates(provider models.Provider, minTime time.Duration, minDistance float64, listener platform.LocationListener) error {
	args := m.Called(provider, minTime, minDistance, listener)
	return args.Error(0)
}

func (m *MockLocationManager) RemoveUpdates(listener platform.LocationListener) {
	m.Called(listener)
}

// MockTelephonyManager is a mock implementation of platform.TelephonyManager
type MockTelephonyManager struct {
	mock.Mock
}

func (m *MockTelephonyManager) AllCellInfo(ctx context.Context) ([]platform.CellInfo, error) {
	args := m.Called(ctx)
	cells, _ := args.Get(0).([]platform.CellInfo)
	return cells, args.Error(1)
}

// MockDrmFactory is a mock implementation of platform.DrmFactory
type MockDrmFactory struct {
	mock.Mock
}

func (m *MockDrmFactory) OpenDrm(scheme uuid.UUID) (platform.DrmSession, error) {
	args := m.Called(scheme)
	session, _ := args.Get(0).(platform.DrmSession)
	return session, args.Error(1)
}

// MockDrmSession is a mock implementation of platform.DrmSession
type MockDrmSession struct {
	mock.Mock
}

func (m *MockDrmSession) PropertyByteArray(name string) ([]byte, error) {
	args := m.Called(name)
	raw, _ := args.Get(0).([]byte)
	return raw, args.Error(1)
}

func (m *MockDrmSession) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockBuildSource is a mock implementation of platform.BuildSource
type MockBuildSource struct {
	mock.Mock
}

func (m *MockBuildSource) BuildInfo() (platform.BuildInfo, error) {
	args := m.Called()
	return args.Get(0).(platform.BuildInfo), args.Error(1)
}

// MockLocationListener is a mock implementation of platform.LocationListener
type MockLocationListener struct {
	mock.Mock
}

func (m *MockLocationListener) OnLocationChanged(fix *models.PositionFix) {
	m.Called(fix)
}
