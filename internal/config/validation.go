package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"proctor/internal/action"
	"proctor/internal/datasource"
	"proctor/internal/endpoint"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidateRequired checks if a required string field is not empty
func ValidateRequired(field, value, entityType string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationError{
			Field:   field,
			Value:   value,
			Message: fmt.Sprintf("is required for %s", entityType),
		}
	}
	return nil
}

// ValidateOneOf checks if a value is in a list of allowed values
func ValidateOneOf(field, value string, allowed []string) error {
	for _, allowedValue := range allowed {
		if value == allowedValue {
			return nil
		}
	}
	return ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

// ValidateEntityName validates that an entity name follows proper conventions
func ValidateEntityName(field, name, entityType string) error {
	if err := ValidateRequired(field, name, entityType); err != nil {
		return err
	}
	if len(name) > 100 {
		return ValidationError{Field: field, Value: name, Message: "must not exceed 100 characters"}
	}
	if strings.ContainsAny(name, " \t\n") {
		return ValidationError{Field: field, Value: name, Message: "cannot contain spaces"}
	}
	return nil
}

// ValidatePattern checks that a test case pattern only uses "*" at its ends.
func ValidatePattern(field, pattern string) error {
	if pattern == "" {
		return ValidationError{Field: field, Value: pattern, Message: "must not be empty"}
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(pattern, "*"), "*")
	if strings.Contains(inner, "*") {
		return ValidationError{Field: field, Value: pattern, Message: "'*' is only supported at the start or end of a pattern"}
	}
	return nil
}

// Validate checks the configuration and collects every problem found.
func Validate(config Config, filePath string) *ConfigurationErrorCollection {
	errs := NewConfigurationErrorCollection()
	add := func(err error, suggestions ...string) {
		ce := ConfigurationError{
			FilePath:    filePath,
			FileName:    filepath.Base(filePath),
			ErrorType:   ErrorTypeValidation,
			Message:     err.Error(),
			Suggestions: suggestions,
		}
		if ve, ok := err.(ValidationError); ok {
			ce.Field = ve.Field
			ce.Message = ve.Message
		}
		errs.Add(ce)
	}

	for name := range config.Variables {
		if strings.TrimSpace(name) == "" {
			add(ValidationError{Field: "variables", Message: "variable names must not be empty"})
		}
	}

	for i, report := range config.Reports {
		if err := ValidateOneOf(fmt.Sprintf("reports[%d]", i), report, []string{ReportJSON, ReportPDF}); err != nil {
			add(err)
		}
	}

	for i, p := range config.Include {
		if err := ValidatePattern(fmt.Sprintf("include[%d]", i), p); err != nil {
			add(err)
		}
	}
	for i, p := range config.Exclude {
		if err := ValidatePattern(fmt.Sprintf("exclude[%d]", i), p); err != nil {
			add(err)
		}
	}

	endpoints := make(map[string]bool)
	for i, ep := range config.Endpoints {
		field := fmt.Sprintf("endpoints[%d]", i)
		for _, err := range validateEndpoint(field, ep) {
			add(err)
		}
		if endpoints[ep.Name] {
			add(ValidationError{Field: field + ".name", Value: ep.Name, Message: fmt.Sprintf("duplicate endpoint name '%s'", ep.Name)})
		}
		endpoints[ep.Name] = true
	}

	dataSources := make(map[string]bool)
	for i, ds := range config.DataSources {
		field := fmt.Sprintf("dataSources[%d]", i)
		if err := ValidateEntityName(field+".name", ds.Name, "data source"); err != nil {
			add(err)
		}
		if err := ValidateRequired(field+".dsn", ds.DSN, "data source"); err != nil {
			add(err)
		}
		if ds.Driver != "" {
			if err := ValidateOneOf(field+".driver", ds.Driver, []string{datasource.DriverSQLite}); err != nil {
				add(err)
			}
		}
		if dataSources[ds.Name] {
			add(ValidationError{Field: field + ".name", Value: ds.Name, Message: fmt.Sprintf("duplicate data source name '%s'", ds.Name)})
		}
		dataSources[ds.Name] = true
	}

	chains := []struct {
		name string
		defs []action.Definition
	}{
		{"before", config.Before},
		{"between", config.Between},
		{"after", config.After},
	}
	for _, chain := range chains {
		for i, def := range chain.defs {
			field := fmt.Sprintf("%s[%d]", chain.name, i)
			if _, err := def.Build(action.BuildOptions{}); err != nil {
				add(ValidationError{Field: field, Message: err.Error()}, "Supported action types: "+strings.Join(action.Types(), ", "))
				continue
			}
			if def.Endpoint != "" && !endpoints[def.Endpoint] {
				add(ValidationError{Field: field + ".endpoint", Value: def.Endpoint, Message: fmt.Sprintf("endpoint '%s' is not configured", def.Endpoint)})
			}
			if def.DataSource != "" && !dataSources[def.DataSource] {
				add(ValidationError{Field: field + ".dataSource", Value: def.DataSource, Message: fmt.Sprintf("data source '%s' is not configured", def.DataSource)})
			}
		}
	}

	return errs
}

func validateEndpoint(field string, ep endpoint.Config) []error {
	var errs []error
	if err := ValidateEntityName(field+".name", ep.Name, "endpoint"); err != nil {
		errs = append(errs, err)
	}

	switch ep.Type {
	case endpoint.TypeChannel, "":
		if ep.Capacity < 0 {
			errs = append(errs, ValidationError{Field: field + ".capacity", Value: ep.Capacity, Message: "must not be negative"})
		}
	case endpoint.TypeRedis:
		if err := ValidateRequired(field+".address", ep.Address, "redis endpoint"); err != nil {
			errs = append(errs, err)
		}
	case endpoint.TypeWebSocket:
		if err := ValidateRequired(field+".url", ep.URL, "websocket endpoint"); err != nil {
			errs = append(errs, err)
		} else if !strings.HasPrefix(ep.URL, "ws://") && !strings.HasPrefix(ep.URL, "wss://") {
			errs = append(errs, ValidationError{Field: field + ".url", Value: ep.URL, Message: "must start with ws:// or wss://"})
		}
	default:
		errs = append(errs, ValidateOneOf(field+".type", string(ep.Type),
			[]string{string(endpoint.TypeChannel), string(endpoint.TypeRedis), string(endpoint.TypeWebSocket)}))
	}
	return errs
}
