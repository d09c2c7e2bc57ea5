package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benmeehan/fingerprint-agent/pkg/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
mqtt:
  broker: tcp://broker:1883
  client_id: agent
location:
  staleness_window: 15s
  gps:
    enabled: true
    device_port: /dev/ttyACM0
telephony:
  scan_interval: 45s
services:
  fingerprint:
    enabled: true
    topic: devices/fingerprint
    qos: 1
`), 0o600))

	config, err := LoadConfig(path, file.NewFileService())
	require.NoError(t, err)

	assert.Equal(t, "tcp://broker:1883", config.MQTT.Broker)
	assert.Equal(t, 15*time.Second, config.Location.StalenessWindow)
	assert.Equal(t, 45*time.Second, config.Telephony.ScanInterval)
	assert.Equal(t, "/dev/ttyACM0", config.Location.GPS.DevicePort)
	assert.True(t, config.Services.Fingerprint.Enabled)

	assert.Equal(t, 5*time.Second, config.Location.MinRequestInterval)
	assert.Equal(t, 30*time.Second, config.Location.SummaryWindow)
	assert.Equal(t, 10*time.Second, config.Location.RequestTimeout)
	assert.Equal(t, time.Minute, config.Services.Fingerprint.Interval)
	assert.Equal(t, 9600, config.Location.GPS.BaudRate)
	assert.Equal(t, "/etc/machine-id", config.Identity.MachineIDFile)
	assert.Equal(t, ":9100", config.Metrics.ListenAddr)
}

func TestLoadConfig_UnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("telephony:\n  scan_intervall: 10s\n"), 0o600))

	_, err := LoadConfig(path, file.NewFileService())
	assert.Error(t, err)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), file.NewFileService())
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Nil(t, config)
}
