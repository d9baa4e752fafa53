package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proctor/internal/endpoint"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_DefaultOnly(t *testing.T) {
	dir := t.TempDir()

	config, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, DefaultName, config.Name)
	assert.Equal(t, DefaultTestDir, config.TestDir)
	assert.Equal(t, DefaultReportDir, config.ReportDir)
	assert.Equal(t, dir, config.Dir)
}

func TestLoadConfig_FromDirectory(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
name: orders
testDir: cases
failFast: true
include: ["Order*"]
variables:
  env: staging
  retries: 3
  empty: null
before:
  - type: echo
    message: starting
endpoints:
  - name: inbound
    type: channel
    capacity: 10
  - name: events
    type: redis
    address: localhost:6379
    stream: events
dataSources:
  - name: db
    dsn: "file::memory:"
between:
  - type: sql
    dataSource: db
    statements: ["DELETE FROM orders"]
`)

	config, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "orders", config.Name)
	assert.Equal(t, "cases", config.TestDir)
	assert.Equal(t, DefaultReportDir, config.ReportDir)
	assert.True(t, config.FailFast)
	assert.Equal(t, []string{"Order*"}, config.Include)
	assert.Equal(t, "staging", config.Variables["env"])
	assert.Equal(t, float64(3), config.Variables["retries"])
	assert.Contains(t, config.Variables, "empty")
	assert.Nil(t, config.Variables["empty"])

	require.Len(t, config.Before, 1)
	assert.Equal(t, "starting", config.Before[0].Message)

	require.Len(t, config.Endpoints, 2)
	assert.Equal(t, endpoint.TypeRedis, config.Endpoints[1].Type)
	assert.Equal(t, "events", config.Endpoints[1].Stream)
	assert.Equal(t, 10, config.Endpoints[0].Capacity)

	require.Len(t, config.DataSources, 1)
	assert.Equal(t, "file::memory:", config.DataSources[0].DSN)
}

func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: custom\n"), 0644))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "custom", config.Name)
	assert.Equal(t, dir, config.Dir)
	assert.Equal(t, filepath.Join(dir, "tests"), config.ResolvePath(config.TestDir))
	assert.Equal(t, "/abs/tests", config.ResolvePath("/abs/tests"))
}

func TestLoadConfig_Malformed(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "name: [unterminated\n")

	_, err := LoadConfig(dir)
	require.Error(t, err)

	var collection *ConfigurationErrorCollection
	require.True(t, errors.As(err, &collection))
	assert.Len(t, collection.GetErrorsByType(ErrorTypeParse), 1)
}

func TestLoadConfig_UnknownField(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "name: x\nunknownKey: 1\n")

	_, err := LoadConfig(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed configuration")
}

func TestLoadConfig_ValidationErrors(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
reports: [html]
include: ["Order*Test"]
endpoints:
  - name: a
    type: kafka
  - name: ws
    type: websocket
    url: http://localhost
after:
  - type: receive
    endpoint: missing
`)

	_, err := LoadConfig(dir)
	require.Error(t, err)

	var collection *ConfigurationErrorCollection
	require.True(t, errors.As(err, &collection))
	assert.Equal(t, 5, collection.Count())

	report := collection.GetDetailedReport()
	assert.Contains(t, report, "Field: reports[0]")
	assert.Contains(t, report, "Field: include[0]")
	assert.Contains(t, report, "Field: endpoints[0].type")
	assert.Contains(t, report, "must start with ws:// or wss://")
	assert.Contains(t, report, "endpoint 'missing' is not configured")
}
