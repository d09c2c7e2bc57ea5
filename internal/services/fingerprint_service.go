package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benmeehan/fingerprint-agent/internal/models"
	"github.com/benmeehan/fingerprint-agent/pkg/mqtt"
	"github.com/rs/zerolog"
)

// FingerprintCollector provides the signals of a fingerprint message.
type FingerprintCollector interface {
	DeviceIdentifier
	CollectHardwareInfo() string
	CollectLocationInfo() string
	CurrentFix() *models.PositionFix
}

// FingerprintService periodically publishes the device fingerprint.
type FingerprintService struct {
	PubTopic   string
	Interval   time.Duration
	QOS        int
	Collector  FingerprintCollector
	MqttClient mqtt.MQTTClient
	Logger     zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewFingerprintService initializes a new FingerprintService.
func NewFingerprintService(pubTopic string, interval time.Duration, qos int, collector FingerprintCollector,
	mqttClient mqtt.MQTTClient, logger zerolog.Logger) *FingerprintService {

	return &FingerprintService{
		PubTopic:   pubTopic,
		Interval:   interval,
		QOS:        qos,
		Collector:  collector,
		MqttClient: mqttClient,
		Logger:     logger,
	}
}

// Start launches the publishing loop in a separate goroutine.
func (f *FingerprintService) Start() error {
	if f.ctx != nil {
		f.Logger.Warn().Msg("FingerprintService is already running")
		return errors.New("fingerprint service is already running")
	}

	f.ctx, f.cancel = context.WithCancel(context.Background())

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		f.runLoop()
	}()

	f.Logger.Info().Str("topic", f.PubTopic).Dur("interval", f.Interval).Msg("FingerprintService started successfully")
	return nil
}

// Stop gracefully stops the fingerprint service.
func (f *FingerprintService) Stop() error {
	if f.ctx == nil {
		f.Logger.Warn().Msg("FingerprintService is not running")
		return errors.New("fingerprint service is not running")
	}

	f.cancel()
	f.wg.Wait()

	f.ctx = nil
	f.cancel = nil

	f.Logger.Info().Msg("FingerprintService stopped successfully")
	return nil
}

func (f *FingerprintService) runLoop() {
	ticker := time.NewTicker(f.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := publishJSON(f.MqttClient, f.PubTopic, f.QOS, f.buildFingerprint()); err != nil {
				f.Logger.Error().Err(err).Msg("Failed to publish fingerprint")
			} else {
				f.Logger.Debug().Msg("Fingerprint published successfully")
			}

		case <-f.ctx.Done():
			f.Logger.Info().Msg("FingerprintService stopping gracefully")
			return
		}
	}
}

func (f *FingerprintService) buildFingerprint() models.Fingerprint {
	msg := models.Fingerprint{
		DeviceID:  deviceID(f.Collector),
		Timestamp: time.Now().UTC(),
		Hardware:  f.Collector.CollectHardwareInfo(),
		Location:  f.Collector.CollectLocationInfo(),
	}
	if fix := f.Collector.CurrentFix(); fix != nil {
		lat, lon := fix.Latitude, fix.Longitude
		msg.Latitude = &lat
		msg.Longitude = &lon
	}
	return msg
}
