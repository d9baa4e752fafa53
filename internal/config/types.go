package config

import (
	"proctor/internal/action"
	"proctor/internal/datasource"
	"proctor/internal/endpoint"
)

// Config is the top-level configuration structure for proctor.
type Config struct {
	// Name of the suite, shown in reports
	Name string `json:"name,omitempty"`
	// TestDir holds the YAML test case files, relative to the config file
	TestDir string `json:"testDir,omitempty"`
	// ReportDir receives JSON and PDF reports, relative to the config file
	ReportDir string `json:"reportDir,omitempty"`
	// Reports lists the report formats written after a run: json, pdf
	Reports []string `json:"reports,omitempty"`
	// HistoryDB is the sqlite file keeping the run history; empty disables it
	HistoryDB string `json:"historyDB,omitempty"`

	FailFast bool     `json:"failFast,omitempty"`
	Include  []string `json:"include,omitempty"`
	Exclude  []string `json:"exclude,omitempty"`

	// Variables seed every test context
	Variables map[string]any `json:"variables,omitempty"`

	Before  []action.Definition `json:"before,omitempty"`
	Between []action.Definition `json:"between,omitempty"`
	After   []action.Definition `json:"after,omitempty"`

	Endpoints   []endpoint.Config   `json:"endpoints,omitempty"`
	DataSources []datasource.Config `json:"dataSources,omitempty"`

	// Dir is the directory of the loaded file, used to resolve relative paths
	Dir string `json:"-"`
}

// Report formats
const (
	ReportJSON = "json"
	ReportPDF  = "pdf"
)
