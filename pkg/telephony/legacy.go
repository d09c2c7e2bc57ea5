package telephony

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/benmeehan/fingerprint-agent/pkg/platform"
	"github.com/rs/zerolog"
)

const (
	legacyPermissionDenied = "Permission denied to access cell info"
	legacyNoCellInfo       = "No cell tower info available"
)

// LegacyCellTowerText renders GSM, CDMA, LTE and WCDMA cells as one "; "-separated line.
// Other technologies are skipped.
func LegacyCellTowerText(ctx context.Context, tm platform.TelephonyManager, logger zerolog.Logger) string {
	var sb strings.Builder

	cells, err := tm.AllCellInfo(ctx)
	switch {
	case errors.Is(err, platform.ErrPermissionDenied):
		logger.Warn().Err(err).Msg("Missing phone state permission for cell tower info")
		sb.WriteString(legacyPermissionDenied)
	case err != nil:
		logger.Error().Err(err).Msg("Failed to read cell tower info")
	}

	for _, cell := range cells {
		switch c := cell.(type) {
		case platform.CellInfoGsm:
			fmt.Fprintf(&sb, "GSM Cell - MCC: %s, MNC: %s, CID: %d, LAC: %d; ", c.MCC, c.MNC, c.CID, c.LAC)
		case platform.CellInfoCdma:
			fmt.Fprintf(&sb, "CDMA Cell - SID: %d, NID: %d, BID: %d; ", c.SystemID, c.NetworkID, c.BasestationID)
		case platform.CellInfoLte:
			fmt.Fprintf(&sb, "LTE Cell - MCC: %s, MNC: %s, CI: %d, TAC: %d; ", c.MCC, c.MNC, c.CI, c.TAC)
		case platform.CellInfoWcdma:
			fmt.Fprintf(&sb, "WCDMA Cell - MCC: %s, MNC: %s, CID: %d, LAC: %d; ", c.MCC, c.MNC, c.CID, c.LAC)
		}
	}

	if sb.Len() == 0 {
		return legacyNoCellInfo
	}
	return sb.String()
}
