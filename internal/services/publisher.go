package services

import (
	"encoding/json"
	"fmt"

	"github.com/benmeehan/fingerprint-agent/internal/metrics"
	"github.com/benmeehan/fingerprint-agent/pkg/mqtt"
)

// DeviceIdentifier supplies the device id attached to published messages.
type DeviceIdentifier interface {
	DeviceID() (string, bool)
}

// publishJSON serializes v and publishes it, waiting for the broker acknowledgement.
func publishJSON(client mqtt.MQTTClient, topic string, qos int, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to serialize message: %w", err)
	}

	token := client.Publish(topic, byte(qos), false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		metrics.MessagesPublished.WithLabelValues(topic, "error").Inc()
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	metrics.MessagesPublished.WithLabelValues(topic, "ok").Inc()
	return nil
}

func deviceID(d DeviceIdentifier) string {
	id, _ := d.DeviceID()
	return id
}
