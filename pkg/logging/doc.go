// Package logging provides a structured logging system for proctor with unified
// log handling and flexible output formatting.
//
// This package implements a logging system built on Go's standard slog package,
// providing consistent logging behavior with structured output and level filtering.
//
// # Log Levels
//   - **Debug**: Detailed information such as resolved variables and payloads
//   - **Info**: Test case and action progress
//   - **Warn**: Recoverable problems (skipped reporters, watch errors)
//   - **Error**: Failed actions and test cases
//
// # Usage Examples
//
//	import "proctor/pkg/logging"
//
//	// Initialize with Info level logging to stderr
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Suite", "Running %d test cases", len(cases))
//	logging.Debug("TestContext", "Setting variable %s", name)
//	logging.Error("Action", err, "send action failed")
//
// When proctor runs as an MCP server, stdout carries the protocol stream.
// InitForMCP routes log output to stderr and raises the level to WARN so
// nothing leaks into the protocol.
//
// # Subsystem Organization
//
// Logs are organized by subsystem to enable filtering and categorization:
//
//   - **TestContext**: variable and message value resolution
//   - **Action**: built-in test actions
//   - **TestCase**: test case execution
//   - **Suite**: suite lifecycle and filtering
//   - **Endpoint**: message transports
//   - **Config**: configuration loading and validation
//   - **Loader**: test definition loading
//
// # Thread Safety
//
// Initialization and logging are safe for concurrent use.
package logging
