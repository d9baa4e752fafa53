package app

import (
	"errors"
	"fmt"

	"proctor/internal/config"
	"proctor/internal/datasource"
	"proctor/internal/endpoint"
	"proctor/internal/function"
	"proctor/internal/report"
	"proctor/pkg/logging"
)

// Services holds everything a run needs that outlives a single run.
type Services struct {
	// Registry resolves function calls in test contexts
	Registry *function.Registry

	// Endpoints are the configured message endpoints by name
	Endpoints *endpoint.Registry

	// DataSources are the configured SQL databases by name
	DataSources *datasource.Registry

	// History stores finished runs; nil when no historyDB is configured
	History *report.Store
}

// InitializeServices opens every endpoint and data source of the project.
// Anything opened before a failure is closed again.
func InitializeServices(project config.Config) (*Services, error) {
	services := &Services{
		Registry:    function.DefaultRegistry(),
		Endpoints:   endpoint.NewRegistry(),
		DataSources: datasource.NewRegistry(),
	}

	for _, epCfg := range project.Endpoints {
		ep, err := endpoint.New(epCfg)
		if err != nil {
			services.Close()
			return nil, fmt.Errorf("failed to create endpoint %s: %w", epCfg.Name, err)
		}
		services.Endpoints.Register(ep)
		logging.Debug("Services", "Registered %s endpoint %s", epCfg.Type, epCfg.Name)
	}

	for _, dsCfg := range project.DataSources {
		if err := services.DataSources.Open(dsCfg); err != nil {
			services.Close()
			return nil, err
		}
		logging.Debug("Services", "Opened data source %s", dsCfg.Name)
	}

	if project.HistoryDB != "" {
		store, err := report.OpenStore(project.ResolvePath(project.HistoryDB))
		if err != nil {
			services.Close()
			return nil, fmt.Errorf("failed to open history database: %w", err)
		}
		services.History = store
	}

	return services, nil
}

// Close closes all services, returning every error encountered.
func (s *Services) Close() error {
	var errs []error
	if err := s.Endpoints.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.DataSources.Close(); err != nil {
		errs = append(errs, err)
	}
	if s.History != nil {
		if err := s.History.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
