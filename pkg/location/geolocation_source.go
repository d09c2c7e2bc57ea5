package location

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/benmeehan/fingerprint-agent/internal/models"
	"github.com/benmeehan/fingerprint-agent/pkg/platform"
	"googlemaps.github.io/maps"
)

// ErrNoCellTowers is returned when no visible cell can be sent to the geolocation API.
var ErrNoCellTowers = errors.New("no usable cell towers")

// GeolocationSource resolves network fixes with the Google Maps Geolocation API
// from the cells visible to the modem.
type GeolocationSource struct {
	client    *maps.Client // Maps API client for making geolocation requests
	telephony platform.TelephonyManager
	now       func() time.Time
}

// NewGeolocationSource creates a network fix source.
func NewGeolocationSource(apiKey string, telephony platform.TelephonyManager) (*GeolocationSource, error) {
	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	return &GeolocationSource{
		client:    c,
		telephony: telephony,
		now:       time.Now,
	}, nil
}

// Fix geolocates the device from the currently visible cells.
func (g *GeolocationSource) Fix(ctx context.Context) (*models.PositionFix, error) {
	cells, err := g.telephony.AllCellInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read cell info: %w", err)
	}

	req, err := geolocationRequest(cells, g.now())
	if err != nil {
		return nil, err
	}

	resp, err := g.client.Geolocate(ctx, req)
	if err != nil {
		return nil, err
	}

	return &models.PositionFix{
		Latitude:   resp.Location.Lat,
		Longitude:  resp.Location.Lng,
		Accuracy:   resp.Accuracy,
		Provider:   models.ProviderNetwork,
		ObservedAt: g.now(),
	}, nil
}

// Close releases nothing; the maps client holds no connections of its own.
func (g *GeolocationSource) Close() error {
	return nil
}

// geolocationRequest builds the API request from the supported cells. The radio type
// and home network are taken from the first usable cell.
func geolocationRequest(cells []platform.CellInfo, now time.Time) (*maps.GeolocationRequest, error) {
	req := &maps.GeolocationRequest{ConsiderIP: false}

	for _, cell := range cells {
		record, ok := cell.Record(now)
		if !ok {
			continue
		}
		tower, ok := cellTower(record)
		if !ok {
			continue
		}
		if len(req.CellTowers) == 0 {
			req.RadioType = maps.RadioType(strings.ToLower(string(record.RadioType)))
			req.HomeMobileCountryCode = tower.MobileCountryCode
			req.HomeMobileNetworkCode = tower.MobileNetworkCode
		}
		req.CellTowers = append(req.CellTowers, tower)
	}

	if len(req.CellTowers) == 0 {
		return nil, ErrNoCellTowers
	}
	return req, nil
}

// cellTower converts a record; records without numeric MCC/MNC are unusable.
func cellTower(record models.CellRecord) (maps.CellTower, bool) {
	mcc, err := strconv.Atoi(record.MCC)
	if err != nil {
		return maps.CellTower{}, false
	}
	mnc, err := strconv.Atoi(record.MNC)
	if err != nil && record.RadioType != models.RadioCDMA {
		return maps.CellTower{}, false
	}

	tower := maps.CellTower{
		CellID:            int(record.CellID),
		LocationAreaCode:  record.AreaCode,
		MobileCountryCode: mcc,
		MobileNetworkCode: mnc,
	}
	if record.SignalStrengthDbm != platform.Unavailable {
		tower.SignalStrength = record.SignalStrengthDbm
	}
	return tower, true
}
