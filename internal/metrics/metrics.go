package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// LocationLookups counts GetCurrentLocation calls by outcome.
	LocationLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fingerprint",
		Subsystem: "location",
		Name:      "lookups_total",
		Help:      "Location cache lookups by outcome",
	}, []string{"outcome"})

	CellScanCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fingerprint",
		Subsystem: "telephony",
		Name:      "scan_cycles_total",
		Help:      "Cell scan cycles by outcome",
	}, []string{"outcome"})

	CellRecordsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fingerprint",
		Subsystem: "telephony",
		Name:      "records_dropped_total",
		Help:      "Cell records dropped because their radio technology is unsupported",
	})

	MessagesPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fingerprint",
		Subsystem: "mqtt",
		Name:      "messages_total",
		Help:      "MQTT publish attempts by topic and status",
	}, []string{"topic", "status"})
)

// Handler returns the HTTP handler exposing the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
