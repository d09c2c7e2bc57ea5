package location

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benmeehan/fingerprint-agent/internal/models"
	"github.com/benmeehan/fingerprint-agent/internal/utils"
	"github.com/benmeehan/fingerprint-agent/pkg/platform"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource returns the queued fixes in order, repeating the last one.
// A non-nil block holds every read until it is closed or the read is cancelled.
type fakeSource struct {
	mu     sync.Mutex
	fixes  []models.PositionFix
	err    error
	block  chan struct{}
	closed bool
	reads  int
}

func (f *fakeSource) Fix(ctx context.Context) (*models.PositionFix, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.err != nil {
		return nil, f.err
	}
	i := f.reads - 1
	if i >= len(f.fixes) {
		i = len(f.fixes) - 1
	}
	fix := f.fixes[i]
	if fix.ObservedAt.IsZero() {
		fix.ObservedAt = time.Now()
	}
	return &fix, nil
}

func (f *fakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

type recordingListener struct {
	mu    sync.Mutex
	fixes []*models.PositionFix
}

func (r *recordingListener) OnLocationChanged(fix *models.PositionFix) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fixes = append(r.fixes, fix)
}

func (r *recordingListener) received() []*models.PositionFix {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.PositionFix(nil), r.fixes...)
}

func newTestManager(t *testing.T, sources map[models.Provider]FixSource) (*Manager, *utils.WorkerPool) {
	t.Helper()
	dispatcher := utils.NewWorkerPool(1, zerolog.Nop())
	m := NewManager(sources, dispatcher, time.Second, zerolog.Nop())
	t.Cleanup(func() {
		m.Close()
		dispatcher.Shutdown()
	})
	return m, dispatcher
}

func TestManager_ProviderEnabled(t *testing.T) {
	m, _ := newTestManager(t, map[models.Provider]FixSource{
		models.ProviderGPS: &fakeSource{fixes: []models.PositionFix{{Latitude: 1}}},
	})

	assert.True(t, m.IsProviderEnabled(models.ProviderGPS))
	assert.False(t, m.IsProviderEnabled(models.ProviderNetwork))

	err := m.RequestSingleUpdate(models.ProviderNetwork, &recordingListener{})
	assert.ErrorIs(t, err, platform.ErrProviderDisabled)

	err = m.RequestLocationUpdates(models.ProviderNetwork, time.Second, 0, &recordingListener{})
	assert.ErrorIs(t, err, platform.ErrProviderDisabled)

	fix, err := m.LastKnownLocation(models.ProviderNetwork)
	assert.NoError(t, err)
	assert.Nil(t, fix)
}

func TestManager_RequestSingleUpdate(t *testing.T) {
	src := &fakeSource{fixes: []models.PositionFix{{Latitude: 52.5, Longitude: 13.4}}}
	m, _ := newTestManager(t, map[models.Provider]FixSource{models.ProviderGPS: src})

	fix, err := m.LastKnownLocation(models.ProviderGPS)
	require.NoError(t, err)
	assert.Nil(t, fix)

	l := &recordingListener{}
	require.NoError(t, m.RequestSingleUpdate(models.ProviderGPS, l))

	require.Eventually(t, func() bool { return len(l.received()) == 1 }, time.Second, 5*time.Millisecond)
	got := l.received()[0]
	assert.Equal(t, 52.5, got.Latitude)
	assert.Equal(t, models.ProviderGPS, got.Provider)

	last, err := m.LastKnownLocation(models.ProviderGPS)
	require.NoError(t, err)
	assert.Same(t, got, last)
	assert.Zero(t, m.subscriptions.Count())
}

func TestManager_RemoveBeforeDelivery(t *testing.T) {
	src := &fakeSource{fixes: []models.PositionFix{{Latitude: 1}}, block: make(chan struct{})}
	m, dispatcher := newTestManager(t, map[models.Provider]FixSource{models.ProviderGPS: src})

	l := &recordingListener{}
	require.NoError(t, m.RequestSingleUpdate(models.ProviderGPS, l))
	m.RemoveUpdates(l)
	close(src.block)

	require.NoError(t, m.Close())
	dispatcher.Shutdown()
	assert.Empty(t, l.received())
}

func TestManager_SingleUpdateFailure(t *testing.T) {
	src := &fakeSource{err: errors.New("receiver offline")}
	m, dispatcher := newTestManager(t, map[models.Provider]FixSource{models.ProviderGPS: src})

	l := &recordingListener{}
	require.NoError(t, m.RequestSingleUpdate(models.ProviderGPS, l))

	require.NoError(t, m.Close())
	dispatcher.Shutdown()
	assert.Empty(t, l.received())
	assert.Zero(t, m.subscriptions.Count())
}

func TestManager_LocationUpdatesHonourMinDistance(t *testing.T) {
	src := &fakeSource{fixes: []models.PositionFix{
		{Latitude: 52.5, Longitude: 13.4},
		{Latitude: 52.5, Longitude: 13.4},
		{Latitude: 52.6, Longitude: 13.4},
	}}
	m, _ := newTestManager(t, map[models.Provider]FixSource{models.ProviderGPS: src})

	l := &recordingListener{}
	require.NoError(t, m.RequestLocationUpdates(models.ProviderGPS, 10*time.Millisecond, 100, l))

	require.Eventually(t, func() bool { return len(l.received()) >= 2 }, time.Second, 5*time.Millisecond)
	m.RemoveUpdates(l)

	got := l.received()
	assert.Equal(t, 52.5, got[0].Latitude)
	assert.Equal(t, 52.6, got[1].Latitude)
}

func TestManager_InvalidUpdateInterval(t *testing.T) {
	m, _ := newTestManager(t, map[models.Provider]FixSource{
		models.ProviderGPS: &fakeSource{fixes: []models.PositionFix{{}}},
	})

	assert.Error(t, m.RequestLocationUpdates(models.ProviderGPS, 0, 0, &recordingListener{}))
}

func TestManager_CloseClosesSources(t *testing.T) {
	gps := &fakeSource{fixes: []models.PositionFix{{}}}
	network := &fakeSource{fixes: []models.PositionFix{{}}}
	dispatcher := utils.NewWorkerPool(1, zerolog.Nop())
	defer dispatcher.Shutdown()

	m := NewManager(map[models.Provider]FixSource{
		models.ProviderGPS:     gps,
		models.ProviderNetwork: network,
	}, dispatcher, time.Second, zerolog.Nop())

	require.NoError(t, m.Close())
	assert.True(t, gps.closed)
	assert.True(t, network.closed)
}

func TestDistanceMeters(t *testing.T) {
	berlin := &models.PositionFix{Latitude: 52.5200, Longitude: 13.4050}
	paris := &models.PositionFix{Latitude: 48.8566, Longitude: 2.3522}

	assert.InDelta(t, 877_000, distanceMeters(berlin, paris), 5_000)
	assert.Zero(t, distanceMeters(berlin, berlin))
}

func TestManagerWithCache_OneShotFillsCache(t *testing.T) {
	gps := &fakeSource{fixes: []models.PositionFix{{Latitude: 48.1, Longitude: 11.5}}, block: make(chan struct{})}
	network := &fakeSource{fixes: []models.PositionFix{{Latitude: 48.2, Longitude: 11.6}}}
	m, _ := newTestManager(t, map[models.Provider]FixSource{
		models.ProviderGPS:     gps,
		models.ProviderNetwork: network,
	})

	c := NewCache(m, allPermissions(), zerolog.Nop())
	assert.Nil(t, c.GetCurrentLocation())

	var fix *models.PositionFix
	require.Eventually(t, func() bool {
		fix = c.GetCurrentLocation()
		return fix != nil
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, models.ProviderNetwork, fix.Provider)
	assert.Zero(t, m.subscriptions.Count())

	// The pending GPS read was cancelled by the listener removing itself.
	gpsFix, err := m.LastKnownLocation(models.ProviderGPS)
	require.NoError(t, err)
	assert.Nil(t, gpsFix)
}
