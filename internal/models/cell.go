package models

import (
	"fmt"
	"time"
)

// RadioType is the radio access technology of a cell.
type RadioType string

const (
	RadioGSM   RadioType = "GSM"
	RadioLTE   RadioType = "LTE"
	RadioWCDMA RadioType = "WCDMA"
	RadioCDMA  RadioType = "CDMA"
	RadioNR    RadioType = "NR"
)

// CellRecord is one normalized cell tower observation. Empty MCC/MNC mean unknown.
type CellRecord struct {
	RadioType         RadioType `json:"type"`
	MCC               string    `json:"mcc,omitempty"`
	MNC               string    `json:"mnc,omitempty"`
	CellID            int64     `json:"cid"`
	AreaCode          int       `json:"lac"`
	SignalStrengthDbm int       `json:"signal_strength"`
	ObservedAt        time.Time `json:"timestamp"`
}

// DisplayText renders the record as a multi-line label.
func (c CellRecord) DisplayText() string {
	return fmt.Sprintf("%s\nMCC: %s MNC: %s\nCID: %d LAC: %d\nSignal: %d dBm",
		orDefault(string(c.RadioType), "Unknown"),
		orDefault(c.MCC, "N/A"),
		orDefault(c.MNC, "N/A"),
		c.CellID,
		c.AreaCode,
		c.SignalStrengthDbm)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
