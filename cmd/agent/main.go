package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benmeehan/fingerprint-agent/internal/metrics"
	"github.com/benmeehan/fingerprint-agent/internal/models"
	"github.com/benmeehan/fingerprint-agent/internal/service_registry"
	"github.com/benmeehan/fingerprint-agent/internal/utils"
	"github.com/benmeehan/fingerprint-agent/pkg/file"
	"github.com/benmeehan/fingerprint-agent/pkg/fingerprint"
	"github.com/benmeehan/fingerprint-agent/pkg/identity"
	"github.com/benmeehan/fingerprint-agent/pkg/location"
	"github.com/benmeehan/fingerprint-agent/pkg/mqtt"
	"github.com/benmeehan/fingerprint-agent/pkg/platform"
	"github.com/benmeehan/fingerprint-agent/pkg/telephony"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func main() {
	// Set up structured logging with JSON output
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Initialize file operations handler
	fileClient := file.NewFileService()

	// Load configuration from file
	config, err := utils.LoadConfig("configs/config.yaml", fileClient)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Generate a unique MQTT Client ID by appending a UUID
	config.MQTT.ClientID = config.MQTT.ClientID + "-" + uuid.New().String()
	log.Info().Str("client_id", config.MQTT.ClientID).Msg("Using MQTT Client ID")

	// Initialize the shared MQTT connection
	mqttClient := mqtt.NewMqttService(fileClient)
	if err := mqttClient.Initialize(config.MQTT.Broker, config.MQTT.ClientID, config.MQTT.CACertificate); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize MQTT connection")
	}

	granted := make([]platform.Permission, 0, len(config.Permissions.Granted))
	for _, p := range config.Permissions.Granted {
		granted = append(granted, platform.Permission(p))
	}
	permissions := platform.NewStaticPermissions(granted)

	// Listener callbacks are delivered one at a time on this pool
	dispatcher := utils.NewWorkerPool(1, log.With().Str("component", "dispatcher").Logger())

	tm := telephony.NewModemManager(config.Telephony.ModemIndex, permissions)

	sources := make(map[models.Provider]location.FixSource)
	if config.Location.GPS.Enabled {
		sources[models.ProviderGPS] = location.NewNMEASource(config.Location.GPS.DevicePort, config.Location.GPS.BaudRate)
	}
	if config.Location.Network.Enabled {
		src, err := location.NewGeolocationSource(config.Location.Network.MapsAPIKey, tm)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create geolocation source")
		}
		sources[models.ProviderNetwork] = src
	}

	locationLogger := log.With().Str("component", "location").Logger()
	manager := location.NewManager(sources, dispatcher, config.Location.RequestTimeout, locationLogger)
	cache := location.NewCache(manager, permissions, locationLogger,
		location.WithStalenessWindow(config.Location.StalenessWindow),
		location.WithMinRequestInterval(config.Location.MinRequestInterval),
	)

	build := identity.HostBuildSource{}

	// NR reporting is a capability of the ModemManager release
	versionCtx, cancelVersion := context.WithTimeout(context.Background(), 5*time.Second)
	nrSupported := tm.SupportsNR(versionCtx)
	cancelVersion()
	log.Info().Bool("nr_supported", nrSupported).Msg("Detected NR cell support")

	drm := identity.NewDrmIdentifier(identity.NewMachineDrm(config.Identity.MachineIDFile, fileClient), log)
	collector := fingerprint.NewCollector(cache, tm, build, drm, config.Location.SummaryWindow, log)

	scanner := telephony.NewScanner(tm, permissions, dispatcher, log.With().Str("component", "telephony").Logger(),
		telephony.WithInterval(config.Telephony.ScanInterval),
		telephony.WithNRSupport(nrSupported),
	)

	// Create a new service registry to manage services
	serviceRegistry := service_registry.NewServiceRegistry(mqttClient, log)

	// Register all services based on the configuration
	if err := serviceRegistry.RegisterServices(config, service_registry.Components{
		Scanner:   scanner,
		Collector: collector,
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to register services")
	}

	// Start all registered services in the registry
	if err := serviceRegistry.StartServices(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start services")
	}
	log.Info().Msg("All services started successfully")

	var metricsServer *http.Server
	if config.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		metricsServer = &http.Server{Addr: config.Metrics.ListenAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("Metrics server failed")
			}
		}()
	}

	// Handle graceful shutdown
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	log.Info().Msg("Shutting down gracefully...")
	if err := serviceRegistry.StopServices(); err != nil {
		log.Error().Err(err).Msg("Failed to stop services cleanly")
	}
	if err := manager.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close location manager")
	}
	dispatcher.Shutdown()
	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = metricsServer.Shutdown(ctx)
		cancel()
	}
	mqttClient.Disconnect(250)
}
