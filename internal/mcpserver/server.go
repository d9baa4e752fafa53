package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"proctor/internal/app"
	"proctor/internal/loader"
	"proctor/internal/matcher"
	"proctor/internal/report"
	"proctor/pkg/logging"
)

const subsystem = "MCPServer"

// Server exposes an application as MCP tools.
type Server struct {
	app       *app.Application
	mcpServer *server.MCPServer

	// runs are serialized since endpoints are shared
	runMu sync.Mutex
}

// New creates an MCP server for the application.
func New(application *app.Application, version string) *Server {
	mcpServer := server.NewMCPServer(
		"proctor",
		version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		app:       application,
		mcpServer: mcpServer,
	}
	s.registerTools()
	return s
}

// Start serves over stdio until the client disconnects or ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	logging.Info(subsystem, "Serving MCP over stdio")
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads JSON-RPC messages from in and writes responses to out. It
// returns nil when in is exhausted or ctx is cancelled.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(log.New(os.Stderr, "", log.LstdFlags))

	err := stdio.Listen(ctx, in, out)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		logging.Info(subsystem, "MCP server stopped: %v", err)
		return nil
	}
	return err
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_test_cases",
		mcp.WithDescription("List the test cases of the project with their status and source file"),
	), s.handleListTestCases)

	s.mcpServer.AddTool(mcp.NewTool("run_tests",
		mcp.WithDescription("Run the test suite and return the summary"),
		mcp.WithArray("include",
			mcp.Description("Test case name patterns to run; '*' is allowed at the start or end"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithArray("exclude",
			mcp.Description("Test case name patterns to skip"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	), s.handleRunTests)

	s.mcpServer.AddTool(mcp.NewTool("evaluate_expression",
		mcp.WithDescription("Resolve variables and functions in an expression, e.g. core:concat('a', ${b})"),
		mcp.WithString("expression",
			mcp.Required(),
			mcp.Description("Expression to evaluate"),
		),
		mcp.WithObject("variables",
			mcp.Description("Extra variables as a JSON object with string values"),
		),
	), s.handleEvaluate)

	s.mcpServer.AddTool(mcp.NewTool("validate_value",
		mcp.WithDescription("Check a value against a matcher expression such as @startsWith('abc')@"),
		mcp.WithString("value",
			mcp.Required(),
			mcp.Description("Value to validate"),
		),
		mcp.WithString("matcher",
			mcp.Required(),
			mcp.Description("Matcher expression"),
		),
	), s.handleValidate)

	s.mcpServer.AddTool(mcp.NewTool("list_functions",
		mcp.WithDescription("List the function libraries and their functions"),
	), s.handleListFunctions)

	s.mcpServer.AddTool(mcp.NewTool("list_matchers",
		mcp.WithDescription("List the available validation matchers"),
	), s.handleListMatchers)

	s.mcpServer.AddTool(mcp.NewTool("list_runs",
		mcp.WithDescription("List recent runs from the history database"),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of runs (default 20)"),
		),
	), s.handleListRuns)
}

type testCaseInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Author      string `json:"author,omitempty"`
	Status      string `json:"status,omitempty"`
	Source      string `json:"source"`
	Actions     int    `json:"actions"`
}

func (s *Server) handleListTestCases(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs, err := loader.LoadDocuments(s.app.TestPath())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load test cases: %v", err)), nil
	}

	infos := make([]testCaseInfo, 0, len(docs))
	for _, d := range docs {
		infos = append(infos, testCaseInfo{
			Name:        d.Name,
			Description: d.Description,
			Author:      d.Author,
			Status:      d.Status,
			Source:      d.Source,
			Actions:     len(d.Actions),
		})
	}
	return jsonResult(infos)
}

func (s *Server) handleRunTests(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := app.RunOptions{
		Include: stringSlice(request.GetArguments()["include"]),
		Exclude: stringSlice(request.GetArguments()["exclude"]),
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()

	collector := report.NewCollector()
	summary, err := s.app.RunWith(ctx, opts, collector)
	if err != nil && summary.RunID == "" {
		return mcp.NewToolResultError(fmt.Sprintf("Run failed: %v", err)), nil
	}
	return jsonResult(summary)
}

func (s *Server) handleEvaluate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	expression, err := request.RequireString("expression")
	if err != nil {
		return mcp.NewToolResultError("expression argument is required"), nil
	}

	variables := make(map[string]string)
	if raw := request.GetArguments()["variables"]; raw != nil {
		obj, ok := raw.(map[string]interface{})
		if !ok {
			return mcp.NewToolResultError("variables must be a JSON object"), nil
		}
		for k, v := range obj {
			variables[k] = fmt.Sprint(v)
		}
	}

	result, err := s.app.Evaluate(expression, variables)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Evaluation failed: %v", err)), nil
	}
	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	value, err := request.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError("value argument is required"), nil
	}
	expression, err := request.RequireString("matcher")
	if err != nil {
		return mcp.NewToolResultError("matcher argument is required"), nil
	}

	if err := matcher.Validate("value", value, expression); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("valid"), nil
}

type functionInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type libraryInfo struct {
	Name      string         `json:"name"`
	Prefix    string         `json:"prefix"`
	Functions []functionInfo `json:"functions"`
}

func (s *Server) handleListFunctions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var libs []libraryInfo
	for _, lib := range s.app.Registry().Libraries() {
		info := libraryInfo{Name: lib.Name, Prefix: lib.Prefix}
		for _, name := range lib.Names() {
			info.Functions = append(info.Functions, functionInfo{Name: name, Description: lib.Description(name)})
		}
		libs = append(libs, info)
	}
	sort.Slice(libs, func(i, j int) bool { return libs[i].Prefix < libs[j].Prefix })
	return jsonResult(libs)
}

func (s *Server) handleListMatchers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(matcher.Names())
}

func (s *Server) handleListRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	history := s.app.Services().History
	if history == nil {
		return mcp.NewToolResultError("no historyDB configured"), nil
	}

	limit := 20
	if n, ok := request.GetArguments()["limit"].(float64); ok && n > 0 {
		limit = int(n)
	}
	runs, err := history.ListRuns(limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list runs: %v", err)), nil
	}
	return jsonResult(runs)
}

func stringSlice(raw interface{}) []string {
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if str, ok := item.(string); ok {
			out = append(out, str)
		}
	}
	return out
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
