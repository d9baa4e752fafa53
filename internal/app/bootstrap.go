package app

import (
	"fmt"
	"os"
	"path/filepath"

	"proctor/internal/config"
	"proctor/internal/function"
	"proctor/internal/testcontext"
	"proctor/pkg/logging"
)

// Application represents the main application structure that bootstraps and
// runs test suites.
//
// The Application follows a two-phase initialization pattern:
//  1. Bootstrap phase: initialize logging, load configuration, open services
//  2. Execution phase: load test cases and run them, any number of times
type Application struct {
	config   *Config
	project  config.Config
	services *Services
}

// NewApplication creates and initializes a new application instance with the
// provided configuration. It configures logging, loads proctor.yaml unless
// cfg.ProjectConfig is preset, and opens the declared endpoints and data
// sources.
func NewApplication(cfg *Config) (*Application, error) {
	if cfg.Silent {
		logging.InitForMCP()
	} else {
		appLogLevel := logging.LevelWarn
		if cfg.Verbose {
			appLogLevel = logging.LevelInfo
		}
		if cfg.Debug {
			appLogLevel = logging.LevelDebug
		}
		logging.InitForCLI(appLogLevel, os.Stderr)
	}

	if cfg.ProjectConfig == nil {
		projectCfg, err := config.LoadConfig(cfg.ConfigPath)
		if err != nil {
			logging.Error("Bootstrap", err, "Failed to load configuration from %s", cfg.ConfigPath)
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg.ProjectConfig = &projectCfg
	}
	project := applyOverrides(*cfg.ProjectConfig, cfg)

	services, err := InitializeServices(project)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:   cfg,
		project:  project,
		services: services,
	}, nil
}

func applyOverrides(project config.Config, cfg *Config) config.Config {
	if cfg.TestPath != "" {
		// command line paths are relative to the working directory
		project.TestDir = cfg.TestPath
		if abs, err := filepath.Abs(cfg.TestPath); err == nil {
			project.TestDir = abs
		}
	}
	if len(cfg.Include) > 0 {
		project.Include = cfg.Include
	}
	if len(cfg.Exclude) > 0 {
		project.Exclude = cfg.Exclude
	}
	if cfg.FailFast {
		project.FailFast = true
	}
	if len(cfg.Variables) > 0 {
		merged := make(map[string]any, len(project.Variables)+len(cfg.Variables))
		for k, v := range project.Variables {
			merged[k] = v
		}
		for k, v := range cfg.Variables {
			merged[k] = v
		}
		project.Variables = merged
	}
	return project
}

// Project returns the effective project configuration.
func (a *Application) Project() config.Config {
	return a.project
}

// Services returns the opened services.
func (a *Application) Services() *Services {
	return a.services
}

// Globals returns a fresh copy of the configured global variables.
func (a *Application) Globals() *testcontext.GlobalVariables {
	return testcontext.NewGlobalVariables(a.project.Variables)
}

// Registry returns the function registry test contexts resolve against.
func (a *Application) Registry() *function.Registry {
	return a.services.Registry
}

// Close releases endpoints, data sources and the history store.
func (a *Application) Close() error {
	return a.services.Close()
}
