package location

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/benmeehan/fingerprint-agent/internal/models"
	"github.com/benmeehan/fingerprint-agent/internal/utils"
	"github.com/benmeehan/fingerprint-agent/pkg/platform"
	"github.com/google/uuid"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"
)

const earthRadiusMeters = 6371000.0

// Manager implements platform.LocationManager on top of host fix sources.
// Listener callbacks run on the dispatcher, one at a time.
type Manager struct {
	sources    map[models.Provider]FixSource
	dispatcher *utils.WorkerPool
	timeout    time.Duration
	logger     zerolog.Logger

	lastKnown     cmap.ConcurrentMap[string, *models.PositionFix]
	subscriptions cmap.ConcurrentMap[string, *subscription]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type subscription struct {
	provider models.Provider
	listener platform.LocationListener
	cancel   context.CancelFunc
}

var _ platform.LocationManager = (*Manager)(nil)

// NewManager creates a location manager. Providers without a source are reported as disabled.
func NewManager(sources map[models.Provider]FixSource, dispatcher *utils.WorkerPool, timeout time.Duration, logger zerolog.Logger) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		sources:       sources,
		dispatcher:    dispatcher,
		timeout:       timeout,
		logger:        logger,
		lastKnown:     cmap.New[*models.PositionFix](),
		subscriptions: cmap.New[*subscription](),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// LastKnownLocation returns the last fix read from provider, or nil.
func (m *Manager) LastKnownLocation(provider models.Provider) (*models.PositionFix, error) {
	if _, ok := m.sources[provider]; !ok {
		return nil, nil
	}
	fix, _ := m.lastKnown.Get(string(provider))
	return fix, nil
}

// IsProviderEnabled reports whether a source is configured for provider.
func (m *Manager) IsProviderEnabled(provider models.Provider) bool {
	_, ok := m.sources[provider]
	return ok
}

// RequestSingleUpdate reads one fix from provider in the background and hands it to listener.
func (m *Manager) RequestSingleUpdate(provider models.Provider, listener platform.LocationListener) error {
	src, ok := m.sources[provider]
	if !ok {
		return fmt.Errorf("%s: %w", provider, platform.ErrProviderDisabled)
	}

	id, ctx := m.subscribe(provider, listener)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		fix, err := m.read(ctx, provider, src)
		if err != nil {
			m.logger.Warn().Err(err).Str("provider", string(provider)).Msg("Single location update failed")
			m.unsubscribe(id)
			return
		}
		m.deliver(id, fix, true)
	}()
	return nil
}

// RequestLocationUpdates reads provider every minTime and delivers fixes that moved at
// least minDistance meters from the previous delivered one.
func (m *Manager) RequestLocationUpdates(provider models.Provider, minTime time.Duration, minDistance float64, listener platform.LocationListener) error {
	src, ok := m.sources[provider]
	if !ok {
		return fmt.Errorf("%s: %w", provider, platform.ErrProviderDisabled)
	}
	if minTime <= 0 {
		return fmt.Errorf("invalid update interval %s", minTime)
	}

	id, ctx := m.subscribe(provider, listener)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ticker := time.NewTicker(minTime)
		defer ticker.Stop()

		var last *models.PositionFix
		for {
			fix, err := m.read(ctx, provider, src)
			switch {
			case err != nil:
				if ctx.Err() == nil {
					m.logger.Warn().Err(err).Str("provider", string(provider)).Msg("Location update failed")
				}
			case last == nil || distanceMeters(last, fix) >= minDistance:
				last = fix
				m.deliver(id, fix, false)
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// RemoveUpdates cancels every request registered for listener.
func (m *Manager) RemoveUpdates(listener platform.LocationListener) {
	for id, sub := range m.subscriptions.Items() {
		if sub.listener == listener {
			sub.cancel()
			m.subscriptions.Remove(id)
		}
	}
}

// Close stops all pending requests and closes the sources.
func (m *Manager) Close() error {
	m.cancel()
	m.wg.Wait()

	var errs []error
	for provider, src := range m.sources {
		if err := src.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close %s source: %w", provider, err))
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) subscribe(provider models.Provider, listener platform.LocationListener) (string, context.Context) {
	ctx, cancel := context.WithCancel(m.ctx)
	id := uuid.NewString()
	m.subscriptions.Set(id, &subscription{provider: provider, listener: listener, cancel: cancel})
	return id, ctx
}

func (m *Manager) unsubscribe(id string) {
	if sub, ok := m.subscriptions.Get(id); ok {
		sub.cancel()
		m.subscriptions.Remove(id)
	}
}

func (m *Manager) read(ctx context.Context, provider models.Provider, src FixSource) (*models.PositionFix, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	fix, err := src.Fix(ctx)
	if err != nil {
		return nil, err
	}
	fix.Provider = provider
	m.lastKnown.Set(string(provider), fix)
	return fix, nil
}

// deliver hands fix to the subscription's listener on the dispatcher. The subscription is
// looked up there so that a removal made by an earlier callback is honoured.
func (m *Manager) deliver(id string, fix *models.PositionFix, once bool) {
	m.dispatcher.Submit(func() {
		sub, ok := m.subscriptions.Get(id)
		if !ok {
			return
		}
		if once {
			sub.cancel()
			m.subscriptions.Remove(id)
		}
		sub.listener.OnLocationChanged(fix)
	})
}

// distanceMeters is the haversine distance between two fixes.
func distanceMeters(a, b *models.PositionFix) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}
