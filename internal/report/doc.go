// Package report contains the suite reporters: human console output, JSON
// for CI, a go-pretty summary table, PDF reports, a sqlite backed run
// history and an in-memory collector used by the MCP server.
//
// Every reporter implements suite.Reporter and can be combined freely:
//
//	s := suite.New(suite.Options{
//		Reporters: []suite.Reporter{
//			report.NewConsoleReporter(os.Stdout, verbose),
//			report.NewJSONFileReporter("reports"),
//		},
//	})
package report
