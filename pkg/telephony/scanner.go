package telephony

import (
	"context"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/benmeehan/fingerprint-agent/internal/metrics"
	"github.com/benmeehan/fingerprint-agent/internal/models"
	"github.com/benmeehan/fingerprint-agent/internal/utils"
	"github.com/benmeehan/fingerprint-agent/pkg/platform"
	"github.com/rs/zerolog"
)

// DefaultScanInterval is the delay between the end of one scan and the start of the next.
const DefaultScanInterval = 30 * time.Second

// nrConstraint is the first OS release whose telephony stack reports NR cells.
var nrConstraint = mustConstraint(">= 10")

// Listener receives the records of every completed scan.
type Listener interface {
	OnCellRecords(records []models.CellRecord)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(records []models.CellRecord)

func (f ListenerFunc) OnCellRecords(records []models.CellRecord) { f(records) }

// Scanner polls the visible cells with a fixed delay and hands each batch to the listener
// on the dispatcher. Cycles never overlap.
type Scanner struct {
	telephony   platform.TelephonyManager
	permissions platform.PermissionChecker
	dispatcher  *utils.WorkerPool
	interval    time.Duration
	nrSupported bool
	logger      zerolog.Logger
	now         func() time.Time

	mu       sync.Mutex
	listener Listener
	cancel   context.CancelFunc
	done     chan struct{} // closed when the latest run loop has exited
}

// Option customizes a Scanner.
type Option func(*Scanner)

// WithInterval overrides DefaultScanInterval.
func WithInterval(d time.Duration) Option {
	return func(s *Scanner) { s.interval = d }
}

// WithOSRelease drops NR cells when the Android release predates NR support.
func WithOSRelease(release string) Option {
	return func(s *Scanner) { s.nrSupported = SupportsNR(release) }
}

// WithNRSupport sets whether the telephony stack reports NR cells.
func WithNRSupport(supported bool) Option {
	return func(s *Scanner) { s.nrSupported = supported }
}

// WithClock replaces time.Now for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Scanner) { s.now = now }
}

// NewScanner creates a stopped scanner.
func NewScanner(telephony platform.TelephonyManager, permissions platform.PermissionChecker, dispatcher *utils.WorkerPool,
	logger zerolog.Logger, opts ...Option) *Scanner {
	s := &Scanner{
		telephony:   telephony,
		permissions: permissions,
		dispatcher:  dispatcher,
		interval:    DefaultScanInterval,
		nrSupported: true,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetListener registers the batch listener, replacing any previous one.
func (s *Scanner) SetListener(l Listener) {
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()
}

// Start begins scanning immediately. Starting a running scanner does nothing.
func (s *Scanner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.logger.Debug().Msg("Cell scanner already running")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	prev, done := s.done, make(chan struct{})
	s.cancel, s.done = cancel, done
	go s.run(ctx, prev, done)

	s.logger.Info().Dur("interval", s.interval).Msg("Cell scanner started")
}

// Stop prevents future cycles. A cycle or delivery already in progress completes.
// Stopping a stopped scanner does nothing.
func (s *Scanner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil

	s.logger.Info().Msg("Cell scanner stopped")
}

// Running reports whether the scanner has been started and not stopped.
func (s *Scanner) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// run schedules cycles until ctx is cancelled. It first waits for the loop of a previous
// Start to exit, so a cycle still running after Stop never overlaps a new one. ctx only
// ends the wait between cycles; a cycle that has begun runs to completion.
func (s *Scanner) run(ctx context.Context, prev <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	if prev != nil {
		<-prev
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		cycleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.interval)
		s.scan(cycleCtx)
		cancel()
		timer.Reset(s.interval)
	}
}

// scan performs one cycle. Nothing escapes it: errors and panics are logged.
func (s *Scanner) scan(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			metrics.CellScanCycles.WithLabelValues("panic").Inc()
			s.logger.Error().Interface("panic", r).Msg("Cell scan failed")
		}
	}()

	if !s.permissions.Granted(platform.ReadPhoneState) {
		metrics.CellScanCycles.WithLabelValues("denied").Inc()
		s.logger.Warn().Msg("Missing phone state permission, skipping cell scan")
		return
	}

	cells, err := s.telephony.AllCellInfo(ctx)
	if err != nil {
		metrics.CellScanCycles.WithLabelValues("error").Inc()
		s.logger.Error().Err(err).Msg("Cell scan failed")
		return
	}
	if len(cells) == 0 {
		metrics.CellScanCycles.WithLabelValues("empty").Inc()
		s.logger.Debug().Msg("No cell info available")
		return
	}

	records := s.normalize(cells)

	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()

	if listener != nil {
		s.dispatcher.Submit(func() {
			listener.OnCellRecords(records)
		})
	}

	metrics.CellScanCycles.WithLabelValues("ok").Inc()
	s.logger.Debug().Int("cells", len(records)).Msg("Cell scan completed")
}

// normalize converts cells in discovery order, dropping unsupported technologies.
func (s *Scanner) normalize(cells []platform.CellInfo) []models.CellRecord {
	observedAt := s.now()
	records := make([]models.CellRecord, 0, len(cells))
	for _, cell := range cells {
		if cell == nil {
			continue
		}
		record, ok := cell.Record(observedAt)
		if !ok || (record.RadioType == models.RadioNR && !s.nrSupported) {
			metrics.CellRecordsDropped.Inc()
			continue
		}
		records = append(records, record)
	}
	return records
}

// SupportsNR reports whether an Android release reports NR cells. Unparseable releases
// are assumed to.
func SupportsNR(release string) bool {
	v, err := semver.NewVersion(release)
	if err != nil {
		return true
	}
	return nrConstraint.Check(v)
}

func mustConstraint(c string) *semver.Constraints {
	constraint, err := semver.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return constraint
}
