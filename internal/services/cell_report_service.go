package services

import (
	"errors"
	"sync"
	"time"

	"github.com/benmeehan/fingerprint-agent/internal/models"
	"github.com/benmeehan/fingerprint-agent/pkg/mqtt"
	"github.com/benmeehan/fingerprint-agent/pkg/telephony"
	"github.com/rs/zerolog"
)

// CellScanner is the part of telephony.Scanner the service drives.
type CellScanner interface {
	SetListener(l telephony.Listener)
	Start()
	Stop()
}

// CellReportService publishes every cell scan batch to an MQTT topic.
type CellReportService struct {
	// Configuration fields
	topic string
	qos   int

	// Dependencies
	scanner    CellScanner
	identifier DeviceIdentifier
	mqttClient mqtt.MQTTClient
	logger     zerolog.Logger

	mu      sync.Mutex
	running bool
}

// NewCellReportService creates a new CellReportService instance with the provided configuration.
func NewCellReportService(topic string, qos int, scanner CellScanner, identifier DeviceIdentifier,
	mqttClient mqtt.MQTTClient, logger zerolog.Logger) *CellReportService {
	return &CellReportService{
		topic:      topic,
		qos:        qos,
		scanner:    scanner,
		identifier: identifier,
		mqttClient: mqttClient,
		logger:     logger,
	}
}

// Start registers the publishing listener and starts the scanner.
func (c *CellReportService) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		c.logger.Warn().Msg("CellReportService is already running")
		return errors.New("cell report service is already running")
	}

	c.scanner.SetListener(telephony.ListenerFunc(c.publishCells))
	c.scanner.Start()
	c.running = true

	c.logger.Info().Str("topic", c.topic).Int("qos", c.qos).Msg("CellReportService started")
	return nil
}

// Stop stops the scanner. A batch already being published completes.
func (c *CellReportService) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		c.logger.Warn().Msg("CellReportService is not running")
		return errors.New("cell report service is not running")
	}

	c.scanner.Stop()
	c.running = false

	c.logger.Info().Msg("CellReportService stopped")
	return nil
}

// publishCells publishes one scan batch.
func (c *CellReportService) publishCells(records []models.CellRecord) {
	report := models.CellReport{
		DeviceID:  deviceID(c.identifier),
		Timestamp: time.Now().UTC(),
		Cells:     records,
	}

	if err := publishJSON(c.mqttClient, c.topic, c.qos, report); err != nil {
		c.logger.Error().Err(err).Str("topic", c.topic).Msg("Failed to publish cell report")
		return
	}

	c.logger.Debug().Int("cells", len(records)).Str("topic", c.topic).Msg("Cell report published")
}
