package registry

// Service is a long-running agent component started and stopped by the service registry.
// Start on a running service and Stop on a stopped one return an error.
type Service interface {
	Start() error
	Stop() error
}
