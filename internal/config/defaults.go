package config

const (
	// DefaultName is used when the configuration names no suite
	DefaultName = "proctor"

	// DefaultTestDir is the default directory for test case files
	DefaultTestDir = "tests"

	// DefaultReportDir is the default directory for report files
	DefaultReportDir = "reports"
)

// GetDefaultConfig returns the default configuration
func GetDefaultConfig() Config {
	return Config{
		Name:      DefaultName,
		TestDir:   DefaultTestDir,
		ReportDir: DefaultReportDir,
		Dir:       ".",
	}
}
