package location

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/adrianmo/go-nmea"
	"github.com/benmeehan/fingerprint-agent/internal/models"
	"github.com/tarm/serial"
)

// ErrNoGPSFix is returned when the receiver produced no usable GGA sentence in time.
var ErrNoGPSFix = errors.New("no valid GPS data found")

const (
	readTimeout = time.Second
	// idleBackoff paces retries on a port that reports end of data immediately.
	idleBackoff = 100 * time.Millisecond
)

// NMEASource reads fixes from a GPS receiver connected via serial port.
type NMEASource struct {
	port     string // Serial port to which the GPS device is connected
	baudRate int    // Baud rate for the serial communication
	now      func() time.Time
}

// NewNMEASource creates a source for the GPS receiver on port.
func NewNMEASource(port string, baudRate int) *NMEASource {
	return &NMEASource{
		port:     port,
		baudRate: baudRate,
		now:      time.Now,
	}
}

// Fix opens the port and returns the first valid GGA fix. It gives up when ctx ends.
func (n *NMEASource) Fix(ctx context.Context) (*models.PositionFix, error) {
	s, err := serial.OpenPort(&serial.Config{Name: n.port, Baud: n.baudRate, ReadTimeout: readTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", n.port, err)
	}
	defer s.Close()

	return n.readFix(ctx, s)
}

// readFix reads sentences from r until a valid GGA fix arrives. A read that times out
// returns io.EOF; the partial line is kept and reading resumes until ctx ends.
func (n *NMEASource) readFix(ctx context.Context, r io.Reader) (*models.PositionFix, error) {
	reader := bufio.NewReader(r)
	var pending strings.Builder

	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoGPSFix, err)
		}

		chunk, err := reader.ReadString('\n')
		pending.WriteString(chunk)

		switch {
		case err == nil:
			fix, ok, perr := parseGGA(pending.String(), n.now())
			pending.Reset()
			if perr != nil {
				return nil, perr
			}
			if ok {
				return fix, nil
			}
		case errors.Is(err, io.EOF):
			if chunk == "" {
				idle(ctx, idleBackoff)
			}
		default:
			return nil, err
		}
	}
}

// idle waits for d or until ctx ends.
func idle(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// Close is a no-op; the port is only held during Fix.
func (n *NMEASource) Close() error {
	return nil
}

// parseGGA converts a GGA sentence from any talker into a fix. Other sentences and
// GGA sentences without a position fix are skipped.
func parseGGA(line string, now time.Time) (*models.PositionFix, bool, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") || len(line) < 6 || line[3:6] != nmea.TypeGGA {
		return nil, false, nil
	}

	sentence, err := nmea.Parse(line)
	if err != nil {
		return nil, false, err
	}

	gga, ok := sentence.(nmea.GGA)
	if !ok || gga.FixQuality == nmea.Invalid {
		return nil, false, nil
	}

	return &models.PositionFix{
		Latitude:   gga.Latitude,
		Longitude:  gga.Longitude,
		Accuracy:   gga.HDOP, // HDOP as a proxy for accuracy
		Provider:   models.ProviderGPS,
		ObservedAt: now,
	}, true, nil
}
