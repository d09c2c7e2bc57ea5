package location

import (
	"context"
	"errors"
	"io"
	"testing"
	"testing/iotest"
	"time"

	"github.com/benmeehan/fingerprint-agent/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGGA(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantOK  bool
		wantErr bool
		lat     float64
		lon     float64
		hdop    float64
	}{
		{
			name:   "gps fix",
			line:   "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47",
			wantOK: true,
			lat:    48.1173,
			lon:    11.516667,
			hdop:   0.9,
		},
		{
			name:   "multi constellation fix west of greenwich",
			line:   "$GNGGA,092750.000,5321.6802,N,00630.3372,W,1,8,1.03,61.7,M,55.2,M,,*68",
			wantOK: true,
			lat:    53.361337,
			lon:    -6.50562,
			hdop:   1.03,
		},
		{
			name: "no fix",
			line: "$GPGGA,123519,4807.038,N,01131.000,E,0,00,,,M,,M,,*52",
		},
		{
			name: "other sentence",
			line: "$GPRMC,081836,A,3751.65,S,14507.36,E,000.0,360.0,130998,011.3,E*62",
		},
		{
			name: "noise",
			line: "garbage",
		},
		{
			name:    "bad checksum",
			line:    "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*00",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fix, ok, err := parseGGA(tt.line, base)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Nil(t, fix)
				return
			}

			assert.InDelta(t, tt.lat, fix.Latitude, 1e-5)
			assert.InDelta(t, tt.lon, fix.Longitude, 1e-5)
			assert.InDelta(t, tt.hdop, fix.Accuracy, 1e-9)
			assert.Equal(t, models.ProviderGPS, fix.Provider)
			assert.Equal(t, base, fix.ObservedAt)
		})
	}
}

func TestNMEASource_FixFailsWithoutPort(t *testing.T) {
	src := NewNMEASource("/dev/does-not-exist-gps", 9600)

	fix, err := src.Fix(context.Background())
	assert.Error(t, err)
	assert.Nil(t, fix)
	assert.NoError(t, src.Close())
}

// timeoutReader replays chunks, reporting io.EOF (a read timeout) between them and
// forever once they run out.
type timeoutReader struct {
	chunks []string
	reads  int
}

func (r *timeoutReader) Read(p []byte) (int, error) {
	r.reads++
	if r.reads%2 == 1 || len(r.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	r.chunks = r.chunks[1:]
	return n, nil
}

func TestNMEASource_ReadFixAcrossReadTimeouts(t *testing.T) {
	src := NewNMEASource("/dev/ttyUSB0", 9600)
	src.now = func() time.Time { return base }

	r := &timeoutReader{chunks: []string{
		"$GPRMC,081836,A,3751.65,S,14507.36,E,000.0,360.0,130998,011.3,E*62\r\n",
		"$GPGGA,123519,4807.038,N,01131.000,E,0,00,,,M,,M,,*52\r\n",
		"$GPGGA,123519,4807.038,N,011",
		"31.000,E,1,08,0.9,545.4,M,46.9,M,,*47\r\n",
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fix, err := src.readFix(ctx, r)
	require.NoError(t, err)
	assert.InDelta(t, 48.1173, fix.Latitude, 1e-5)
	assert.InDelta(t, 11.516667, fix.Longitude, 1e-5)
	assert.Equal(t, base, fix.ObservedAt)
}

func TestNMEASource_SilentReceiverEndsWithContext(t *testing.T) {
	src := NewNMEASource("/dev/ttyUSB0", 9600)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	fix, err := src.readFix(ctx, &timeoutReader{})
	assert.Nil(t, fix)
	assert.ErrorIs(t, err, ErrNoGPSFix)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestNMEASource_ReadError(t *testing.T) {
	src := NewNMEASource("/dev/ttyUSB0", 9600)

	_, err := src.readFix(context.Background(), iotest.ErrReader(errors.New("device unplugged")))
	assert.EqualError(t, err, "device unplugged")
}
