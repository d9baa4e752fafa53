package config

import (
	"fmt"
	"strings"
)

// Error types recorded on a ConfigurationError.
const (
	ErrorTypeParse      = "parse"
	ErrorTypeValidation = "validation"
)

// ConfigurationError describes one problem found in a proctor.yaml file.
type ConfigurationError struct {
	FilePath    string   `json:"filePath"`
	FileName    string   `json:"fileName"`
	ErrorType   string   `json:"errorType"`
	Field       string   `json:"field,omitempty"`
	Message     string   `json:"message"`
	Details     string   `json:"details,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

func (ce ConfigurationError) Error() string {
	if ce.Field == "" {
		return ce.FileName + ": " + ce.Message
	}
	return ce.FileName + ": " + ce.Field + ": " + ce.Message
}

// DetailedError renders the error as an indented block, including details
// and suggestions when present.
func (ce ConfigurationError) DetailedError() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s error)\n", ce.FileName, ce.ErrorType)
	fmt.Fprintf(&b, "  Path: %s\n", ce.FilePath)
	if ce.Field != "" {
		fmt.Fprintf(&b, "  Field: %s\n", ce.Field)
	}
	fmt.Fprintf(&b, "  Problem: %s", ce.Message)
	if ce.Details != "" {
		fmt.Fprintf(&b, "\n  Details: %s", ce.Details)
	}
	for i, s := range ce.Suggestions {
		if i == 0 {
			b.WriteString("\n  Try:")
		}
		fmt.Fprintf(&b, "\n    - %s", s)
	}
	return b.String()
}

// NewConfigurationErrorWithDetails builds an error that carries extra
// details and suggestions.
func NewConfigurationErrorWithDetails(filePath, fileName, errorType, message, details string, suggestions []string) ConfigurationError {
	return ConfigurationError{
		FilePath:    filePath,
		FileName:    fileName,
		ErrorType:   errorType,
		Message:     message,
		Details:     details,
		Suggestions: suggestions,
	}
}

// ConfigurationErrorCollection gathers every problem found while loading a
// configuration so they can be reported together.
type ConfigurationErrorCollection struct {
	Errors []ConfigurationError `json:"errors"`
}

func NewConfigurationErrorCollection() *ConfigurationErrorCollection {
	return &ConfigurationErrorCollection{}
}

func (c *ConfigurationErrorCollection) Add(err ConfigurationError) {
	c.Errors = append(c.Errors, err)
}

func (c *ConfigurationErrorCollection) Count() int { return len(c.Errors) }

func (c *ConfigurationErrorCollection) HasErrors() bool { return len(c.Errors) > 0 }

func (c *ConfigurationErrorCollection) Error() string {
	switch len(c.Errors) {
	case 0:
		return "no configuration errors"
	case 1:
		return c.Errors[0].Error()
	}
	return fmt.Sprintf("%d configuration errors: %s (and %d more)", len(c.Errors), c.Errors[0], len(c.Errors)-1)
}

// GetErrorsByType returns the errors of the given type, in order.
func (c *ConfigurationErrorCollection) GetErrorsByType(errorType string) []ConfigurationError {
	var out []ConfigurationError
	for _, ce := range c.Errors {
		if ce.ErrorType == errorType {
			out = append(out, ce)
		}
	}
	return out
}

// GetDetailedReport renders every error with its details, numbered.
func (c *ConfigurationErrorCollection) GetDetailedReport() string {
	if !c.HasErrors() {
		return "No configuration errors to report"
	}
	blocks := make([]string, 0, len(c.Errors)+1)
	blocks = append(blocks, fmt.Sprintf("Found %d configuration error(s):", len(c.Errors)))
	for i, ce := range c.Errors {
		blocks = append(blocks, fmt.Sprintf("[%d] %s", i+1, ce.DetailedError()))
	}
	return strings.Join(blocks, "\n\n")
}
