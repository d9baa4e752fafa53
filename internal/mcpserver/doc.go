// Package mcpserver exposes proctor to AI assistants through the Model
// Context Protocol over stdio.
//
// The server offers tools to list the test cases of the project, run them
// with optional include and exclude patterns, evaluate expressions against
// a fresh test context, validate values with matchers, and list the
// available functions, matchers and stored runs.
//
// Logging must be initialized with logging.InitForMCP before serving since
// stdout carries the protocol stream.
package mcpserver
