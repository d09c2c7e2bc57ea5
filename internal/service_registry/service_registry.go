package service_registry

import (
	"errors"
	"fmt"

	"github.com/benmeehan/fingerprint-agent/internal/registry"
	"github.com/benmeehan/fingerprint-agent/internal/services"
	"github.com/benmeehan/fingerprint-agent/internal/utils"
	"github.com/benmeehan/fingerprint-agent/pkg/mqtt"
	"github.com/rs/zerolog"
)

// Components are the collectors the services publish from.
type Components struct {
	Scanner   services.CellScanner
	Collector services.FingerprintCollector
}

// ServiceRegistry manages the lifecycle of various services in the system.
type ServiceRegistry struct {
	services    map[string]registry.Service // Stores registered services
	serviceKeys []string                    // Maintains order of service registration
	mqttClient  mqtt.MQTTClient
	Logger      zerolog.Logger
}

// NewServiceRegistry initializes a new service registry with dependencies.
func NewServiceRegistry(mqttClient mqtt.MQTTClient, logger zerolog.Logger) *ServiceRegistry {
	return &ServiceRegistry{
		services:   make(map[string]registry.Service),
		mqttClient: mqttClient,
		Logger:     logger,
	}
}

// RegisterService adds a new service to the registry.
func (sr *ServiceRegistry) RegisterService(name string, svc registry.Service) {
	if _, exists := sr.services[name]; exists {
		sr.Logger.Warn().Msgf("Service %s is already registered", name)
		return
	}
	sr.services[name] = svc
	sr.serviceKeys = append(sr.serviceKeys, name)
	sr.Logger.Info().Msgf("Registered service: %s", name)
}

// StartServices initiates all registered services in order.
// If a service fails to start, it stops already started services.
func (sr *ServiceRegistry) StartServices() error {
	startedServices := []string{}

	for _, name := range sr.serviceKeys {
		svc := sr.services[name]
		sr.Logger.Info().Msgf("Starting service: %s", name)
		if err := svc.Start(); err != nil {
			sr.Logger.Error().Err(err).Msgf("Failed to start service: %s", name)

			sr.Logger.Warn().Msg("Stopping already started services due to startup failure...")
			for i := len(startedServices) - 1; i >= 0; i-- {
				_ = sr.services[startedServices[i]].Stop()
			}
			return fmt.Errorf("failed to start %s: %w", name, err)
		}
		startedServices = append(startedServices, name)
	}

	return nil
}

// StopServices stops all services in reverse order.
func (sr *ServiceRegistry) StopServices() error {
	var stopErrors []error
	for i := len(sr.serviceKeys) - 1; i >= 0; i-- {
		name := sr.serviceKeys[i]
		if err := sr.services[name].Stop(); err != nil {
			stopErrors = append(stopErrors, fmt.Errorf("failed to stop %s: %w", name, err))
		}
	}
	if len(stopErrors) > 0 {
		for _, e := range stopErrors {
			sr.Logger.Error().Err(e).Msg("Service stop failure")
		}
		return errors.Join(stopErrors...)
	}
	return nil
}

// RegisterServices initializes and registers enabled services based on configuration.
func (sr *ServiceRegistry) RegisterServices(config *utils.Config, components Components) error {
	servicesInOrder := []struct {
		name        string
		enabled     bool
		constructor func() (registry.Service, error)
	}{
		{
			name:    "cell_report",
			enabled: config.Services.CellReport.Enabled,
			constructor: func() (registry.Service, error) {
				if components.Scanner == nil || components.Collector == nil {
					return nil, errors.New("cell scanner not configured")
				}
				return services.NewCellReportService(
					config.Services.CellReport.Topic,
					config.Services.CellReport.QOS,
					components.Scanner,
					components.Collector,
					sr.mqttClient,
					sr.Logger,
				), nil
			},
		},
		{
			name:    "fingerprint",
			enabled: config.Services.Fingerprint.Enabled,
			constructor: func() (registry.Service, error) {
				if components.Collector == nil {
					return nil, errors.New("fingerprint collector not configured")
				}
				return services.NewFingerprintService(
					config.Services.Fingerprint.Topic,
					config.Services.Fingerprint.Interval,
					config.Services.Fingerprint.QOS,
					components.Collector,
					sr.mqttClient,
					sr.Logger,
				), nil
			},
		},
	}

	registeredServices := []string{}
	for _, svc := range servicesInOrder {
		if svc.enabled {
			serviceInstance, err := svc.constructor()
			if err != nil {
				sr.Logger.Error().Err(err).Msgf("Failed to create %s service", svc.name)
				return err
			}
			sr.RegisterService(svc.name, serviceInstance)
			registeredServices = append(registeredServices, svc.name)
		}
	}

	sr.Logger.Info().Msgf("Registered services in order: %v", registeredServices)
	return nil
}
