// Package app provides application bootstrap and lifecycle management for
// proctor.
//
// The app package is the wiring layer between the command line and the
// engine. It loads proctor.yaml, opens the endpoints and data sources the
// configuration declares, loads the YAML test cases and runs them as a
// suite with the configured reporters.
//
// # Architecture Overview
//
//  1. **Bootstrap (`bootstrap.go`)**: logging setup and configuration loading
//  2. **Configuration (`config.go`)**: runtime settings from command line flags
//  3. **Services (`services.go`)**: endpoint, data source and history store lifecycle
//  4. **Run (`run.go`)**: test case loading, suite construction and execution
//
// # Usage
//
//	cfg := app.NewConfig(false, "./proctor.yaml")
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return err
//	}
//	defer application.Close()
//
//	summary, err := application.Run(ctx)
//
// Every Run loads the test cases again, so a long-lived Application can
// serve repeated runs from watch mode or the MCP server while endpoints and
// data sources stay open.
package app
