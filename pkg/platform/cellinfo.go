package platform

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/benmeehan/fingerprint-agent/internal/models"
)

// Unavailable marks an integer cell field the radio did not report.
const Unavailable = math.MaxInt32

// TelephonyManager exposes the cells currently visible to the modem.
type TelephonyManager interface {
	AllCellInfo(ctx context.Context) ([]CellInfo, error)
}

// CellInfo is one cell observation. The concrete type selects the radio technology;
// Record normalizes it and reports false for technologies that are not supported.
type CellInfo interface {
	Record(observedAt time.Time) (models.CellRecord, bool)
}

// CellInfoGsm is a GSM cell.
type CellInfoGsm struct {
	MCC, MNC string
	CID      int
	LAC      int
	Dbm      int
}

func (c CellInfoGsm) Record(observedAt time.Time) (models.CellRecord, bool) {
	return models.CellRecord{
		RadioType:         models.RadioGSM,
		MCC:               c.MCC,
		MNC:               c.MNC,
		CellID:            int64(c.CID),
		AreaCode:          c.LAC,
		SignalStrengthDbm: c.Dbm,
		ObservedAt:        observedAt,
	}, true
}

// CellInfoLte is an LTE cell.
type CellInfoLte struct {
	MCC, MNC string
	CI       int
	TAC      int
	Dbm      int
}

func (c CellInfoLte) Record(observedAt time.Time) (models.CellRecord, bool) {
	return models.CellRecord{
		RadioType:         models.RadioLTE,
		MCC:               c.MCC,
		MNC:               c.MNC,
		CellID:            int64(c.CI),
		AreaCode:          c.TAC,
		SignalStrengthDbm: c.Dbm,
		ObservedAt:        observedAt,
	}, true
}

// CellInfoWcdma is a WCDMA (UMTS) cell.
type CellInfoWcdma struct {
	MCC, MNC string
	CID      int
	LAC      int
	Dbm      int
}

func (c CellInfoWcdma) Record(observedAt time.Time) (models.CellRecord, bool) {
	return models.CellRecord{
		RadioType:         models.RadioWCDMA,
		MCC:               c.MCC,
		MNC:               c.MNC,
		CellID:            int64(c.CID),
		AreaCode:          c.LAC,
		SignalStrengthDbm: c.Dbm,
		ObservedAt:        observedAt,
	}, true
}

// CellInfoCdma is a CDMA cell. CDMA has no MCC/MNC; the system id stands in for MCC.
type CellInfoCdma struct {
	SystemID      int
	NetworkID     int
	BasestationID int
	Dbm           int
}

func (c CellInfoCdma) Record(observedAt time.Time) (models.CellRecord, bool) {
	return models.CellRecord{
		RadioType:         models.RadioCDMA,
		MCC:               strconv.Itoa(c.SystemID),
		CellID:            int64(c.BasestationID),
		AreaCode:          c.NetworkID,
		SignalStrengthDbm: c.Dbm,
		ObservedAt:        observedAt,
	}, true
}

// CellInfoNr is a 5G NR cell. NCI is 36 bits wide.
type CellInfoNr struct {
	MCC, MNC string
	NCI      int64
	TAC      int
	Dbm      int
}

func (c CellInfoNr) Record(observedAt time.Time) (models.CellRecord, bool) {
	return models.CellRecord{
		RadioType:         models.RadioNR,
		MCC:               c.MCC,
		MNC:               c.MNC,
		CellID:            c.NCI,
		AreaCode:          c.TAC,
		SignalStrengthDbm: c.Dbm,
		ObservedAt:        observedAt,
	}, true
}

// CellInfoTdscdma is a TD-SCDMA cell. It is reported by some modems but not normalized.
type CellInfoTdscdma struct {
	MCC, MNC string
	CID      int
	LAC      int
	Dbm      int
}

func (c CellInfoTdscdma) Record(time.Time) (models.CellRecord, bool) {
	return models.CellRecord{}, false
}
