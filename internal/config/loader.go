package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"sigs.k8s.io/yaml"

	"proctor/pkg/logging"
)

// ConfigFileName is looked up when LoadConfig is given a directory.
const ConfigFileName = "proctor.yaml"

// LoadConfig loads configuration from a file, or from proctor.yaml inside a
// directory. A missing file yields the defaults.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		path = "."
	}

	configFilePath := path
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		configFilePath = filepath.Join(path, ConfigFileName)
	}

	config := GetDefaultConfig()
	config.Dir = filepath.Dir(configFilePath)

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("ConfigLoader", "No %s found at %s, using defaults", ConfigFileName, configFilePath)
			return config, nil
		}
		return Config{}, fmt.Errorf("error reading config from %s: %w", configFilePath, err)
	}

	if err := yaml.UnmarshalStrict(data, &config); err != nil {
		collection := NewConfigurationErrorCollection()
		collection.Add(NewConfigurationErrorWithDetails(
			configFilePath, filepath.Base(configFilePath), ErrorTypeParse,
			"malformed configuration", err.Error(),
			[]string{"Check the YAML syntax and field names against the documented keys"},
		))
		return Config{}, collection
	}
	applyDefaults(&config)

	if errs := Validate(config, configFilePath); errs.HasErrors() {
		return Config{}, errs
	}

	logging.Info("ConfigLoader", "Loaded configuration from %s", configFilePath)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.Name == "" {
		config.Name = DefaultName
	}
	if config.TestDir == "" {
		config.TestDir = DefaultTestDir
	}
	if config.ReportDir == "" {
		config.ReportDir = DefaultReportDir
	}
}

// ResolvePath makes a configured path absolute against the config file
// directory.
func (c Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir, p)
}
