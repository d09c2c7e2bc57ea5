package utils

import (
	"time"

	"github.com/benmeehan/fingerprint-agent/pkg/file"
)

// Config represents the structure of the configuration file.
type Config struct {
	MQTT struct {
		Broker        string `yaml:"broker"`         // MQTT broker address
		ClientID      string `yaml:"client_id"`      // MQTT client ID
		CACertificate string `yaml:"ca_certificate"` // Path to the CA certificate, empty for plain TCP
	} `yaml:"mqtt"`

	Identity struct {
		MachineIDFile string `yaml:"machine_id_file"` // File holding the host machine id
	} `yaml:"identity"`

	Permissions struct {
		Granted []string `yaml:"granted"` // Permissions granted to the collectors
	} `yaml:"permissions"`

	Location struct {
		StalenessWindow    time.Duration `yaml:"staleness_window"`     // Max age of a fix still considered current
		MinRequestInterval time.Duration `yaml:"min_request_interval"` // Min gap between one-shot requests
		SummaryWindow      time.Duration `yaml:"summary_window"`       // Lifetime of the cached location summary
		RequestTimeout     time.Duration `yaml:"request_timeout"`      // Timeout for a single provider read

		GPS struct {
			Enabled    bool   `yaml:"enabled"`     // Enable the serial GPS provider
			DevicePort string `yaml:"device_port"` // UNIX port where the GPS sensor is mounted
			BaudRate   int    `yaml:"baud_rate"`   // Baud rate for the GPS sensor
		} `yaml:"gps"`

		Network struct {
			Enabled    bool   `yaml:"enabled"`      // Enable the geolocation API provider
			MapsAPIKey string `yaml:"maps_api_key"` // Google maps API key
		} `yaml:"network"`
	} `yaml:"location"`

	Telephony struct {
		ModemIndex   int           `yaml:"modem_index"`   // ModemManager modem index
		ScanInterval time.Duration `yaml:"scan_interval"` // Delay between cell scans
	} `yaml:"telephony"`

	Services struct {
		CellReport struct {
			Topic   string `yaml:"topic"`   // MQTT topic for cell reports
			Enabled bool   `yaml:"enabled"` // Enable/disable the cell report service
			QOS     int    `yaml:"qos"`     // MQTT QoS level for cell reports
		} `yaml:"cell_report"`

		Fingerprint struct {
			Topic    string        `yaml:"topic"`    // MQTT topic for fingerprint messages
			Enabled  bool          `yaml:"enabled"`  // Enable/disable the fingerprint service
			Interval time.Duration `yaml:"interval"` // Interval between fingerprint messages
			QOS      int           `yaml:"qos"`      // MQTT QoS level for fingerprint messages
		} `yaml:"fingerprint"`
	} `yaml:"services"`

	Metrics struct {
		Enabled    bool   `yaml:"enabled"`     // Serve prometheus metrics
		ListenAddr string `yaml:"listen_addr"` // Address of the metrics listener
	} `yaml:"metrics"`
}

// LoadConfig loads the YAML configuration from the specified file.
// It returns a pointer to the Config struct and an error if loading fails.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	var config Config
	err := fileClient.ReadYamlFile(filename, &config)
	if err != nil {
		return nil, err
	}

	config.applyDefaults()
	return &config, nil
}

// applyDefaults fills unset durations and addresses.
func (c *Config) applyDefaults() {
	setDuration(&c.Location.StalenessWindow, 10*time.Second)
	setDuration(&c.Location.MinRequestInterval, 5*time.Second)
	setDuration(&c.Location.SummaryWindow, 30*time.Second)
	setDuration(&c.Location.RequestTimeout, 10*time.Second)
	setDuration(&c.Telephony.ScanInterval, 30*time.Second)
	setDuration(&c.Services.Fingerprint.Interval, time.Minute)

	if c.Location.GPS.BaudRate == 0 {
		c.Location.GPS.BaudRate = 9600
	}
	if c.Identity.MachineIDFile == "" {
		c.Identity.MachineIDFile = "/etc/machine-id"
	}
	if c.Metrics.ListenAddr == "" {
		c.Metrics.ListenAddr = ":9100"
	}
}

func setDuration(d *time.Duration, def time.Duration) {
	if *d <= 0 {
		*d = def
	}
}
