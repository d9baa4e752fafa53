package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"proctor/internal/config"
	"proctor/internal/loader"
	"proctor/internal/suite"
)

var (
	listTestPath string
	listOutput   string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the test cases of the project",
	Long: `Loads and validates every test case file and prints the test cases
without running them. Test cases the configured include and exclude
patterns filter out are marked as such.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listTestPath, "test-path", "t", "", "Test case file or directory (default: testDir of proctor.yaml)")
	listCmd.Flags().StringVarP(&listOutput, "output", "o", "table", "Output format (table|json)")
}

// listEntry is one row of the list output
type listEntry struct {
	Name     string `json:"name"`
	Author   string `json:"author,omitempty"`
	Status   string `json:"status,omitempty"`
	Actions  int    `json:"actions"`
	Source   string `json:"source"`
	Selected bool   `json:"selected"`
}

func runList(cmd *cobra.Command, args []string) error {
	initLogging()

	project, err := config.LoadConfig(rootConfigPath)
	if err != nil {
		return err
	}

	testPath := project.ResolvePath(project.TestDir)
	if listTestPath != "" {
		testPath = listTestPath
	}

	docs, err := loader.LoadDocuments(testPath)
	if err != nil {
		return err
	}

	entries := make([]listEntry, 0, len(docs))
	for _, d := range docs {
		source := d.Source
		if rel, err := filepath.Rel(testPath, d.Source); err == nil && rel != "." {
			source = rel
		}
		entries = append(entries, listEntry{
			Name:     d.Name,
			Author:   d.Author,
			Status:   d.Status,
			Actions:  len(d.Actions),
			Source:   source,
			Selected: suite.Selected(d.Name, project.Include, project.Exclude),
		})
	}

	switch listOutput {
	case "json":
		return writeJSON(cmd.OutOrStdout(), entries)
	case "table":
		renderListTable(cmd.OutOrStdout(), entries)
		return nil
	default:
		return fmt.Errorf("unsupported output format '%s', must be table or json", listOutput)
	}
}

func renderListTable(w io.Writer, entries []listEntry) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.Bold.Sprint("NAME"),
		text.Bold.Sprint("AUTHOR"),
		text.Bold.Sprint("STATUS"),
		text.Bold.Sprint("ACTIONS"),
		text.Bold.Sprint("SOURCE"),
	})

	for _, e := range entries {
		name := e.Name
		if !e.Selected {
			name = text.Faint.Sprint(name + " (filtered)")
		}
		t.AppendRow(table.Row{name, e.Author, e.Status, e.Actions, e.Source})
	}
	t.AppendFooter(table.Row{"", "", "", "TOTAL", len(entries)})
	t.Render()
}

func writeJSON(w io.Writer, v interface{}) error {
	if w == nil {
		w = os.Stdout
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
