package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"proctor/internal/app"
	"proctor/internal/config"
	"proctor/pkg/logging"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (invalid configuration, arguments or test files).
	ExitCodeError = 1
	// ExitCodeTestsFailed indicates the suite ran but at least one test case failed.
	ExitCodeTestsFailed = 2
)

var (
	rootConfigPath string
	rootDebug      bool
	rootVerbose    bool
)

// rootCmd represents the base command for the proctor application.
var rootCmd = &cobra.Command{
	Use:   "proctor",
	Short: "Run declarative integration tests",
	Long: `proctor runs integration test suites declared in YAML.

Test cases send and receive messages over endpoints, resolve variables and
functions, query databases and validate what came back. A proctor.yaml file
declares the suite: global variables, endpoints, data sources and the
actions to run before, between and after the test cases.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application. It is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "proctor version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		if rootVerbose {
			writeConfigReport(os.Stderr, err)
		}
		os.Exit(getExitCode(err))
	}
}

// getExitCode maps failed test runs to their own exit code so scripts can
// tell them apart from setup errors.
func getExitCode(err error) int {
	if errors.Is(err, app.ErrTestsFailed) {
		return ExitCodeTestsFailed
	}
	return ExitCodeError
}

// writeConfigReport prints the full configuration error report when err
// carries one.
func writeConfigReport(w io.Writer, err error) bool {
	var collection *config.ConfigurationErrorCollection
	if !errors.As(err, &collection) {
		return false
	}
	fmt.Fprintln(w, collection.GetDetailedReport())
	return true
}

// newAppConfig creates the application configuration from the global flags.
func newAppConfig() *app.Config {
	cfg := app.NewConfig(rootDebug, rootConfigPath)
	cfg.Verbose = rootVerbose
	return cfg
}

// initLogging sets up CLI logging for commands that do not bootstrap an
// application.
func initLogging() {
	level := logging.LevelWarn
	if rootVerbose {
		level = logging.LevelInfo
	}
	if rootDebug {
		level = logging.LevelDebug
	}
	logging.InitForCLI(level, os.Stderr)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootConfigPath, "config", "c", ".", "Path to proctor.yaml or the directory containing it")
	rootCmd.PersistentFlags().BoolVar(&rootDebug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
