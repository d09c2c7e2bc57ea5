package identity

import (
	"testing"

	"github.com/benmeehan/fingerprint-agent/pkg/platform"
	"github.com/stretchr/testify/assert"
)

func TestHardwareInfo(t *testing.T) {
	b := platform.BuildInfo{
		Model:        "Pixel 7",
		Manufacturer: "Google",
		Brand:        "google",
		Release:      "14",
		SDK:          34,
		Hardware:     "panther",
		Device:       "panther",
		Product:      "panther",
	}

	assert.Equal(t,
		"Device Model: Pixel 7, Manufacturer: Google, Brand: google, OS Version: 14, SDK: 34, Hardware: panther, Device: panther, Product: panther",
		HardwareInfo(b))
}

func TestHardwareInfo_EmptyFields(t *testing.T) {
	assert.Equal(t,
		"Device Model: , Manufacturer: , Brand: , OS Version: , SDK: 0, Hardware: , Device: , Product: ",
		HardwareInfo(platform.BuildInfo{}))
}
