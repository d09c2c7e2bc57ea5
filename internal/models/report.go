package models

import "time"

// CellReport is the message published for each completed cell scan.
type CellReport struct {
	DeviceID  string       `json:"device_id"`
	Timestamp time.Time    `json:"timestamp"`
	Cells     []CellRecord `json:"cells"`
}

// Fingerprint is the periodic device fingerprint message.
type Fingerprint struct {
	DeviceID  string    `json:"device_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Hardware  string    `json:"hardware"`
	Location  string    `json:"location"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
}
