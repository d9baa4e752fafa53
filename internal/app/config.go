package app

import (
	"io"

	"proctor/internal/config"
)

// Output formats for the run result on the command line
const (
	OutputConsole = "console"
	OutputQuiet   = "quiet"
	OutputJSON    = "json"
	OutputTable   = "table"
	OutputNone    = "none"
)

// Config holds the application configuration
type Config struct {
	// Debug settings
	Debug   bool
	Verbose bool

	// Silent routes logging for MCP server mode
	Silent bool

	// ConfigPath points to proctor.yaml or the directory holding it
	ConfigPath string

	// Overrides of proctor.yaml, applied when set
	TestPath  string
	Include   []string
	Exclude   []string
	FailFast  bool
	Variables map[string]string

	// Output selects how the run result is printed
	Output string
	// Out receives command line output; nil means stdout
	Out io.Writer

	// ProjectConfig is loaded during bootstrap unless preset
	ProjectConfig *config.Config
}

// NewConfig creates a new application configuration
func NewConfig(debug bool, configPath string) *Config {
	return &Config{
		Debug:      debug,
		ConfigPath: configPath,
		Output:     OutputConsole,
	}
}
