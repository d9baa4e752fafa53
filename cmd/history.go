package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"proctor/internal/config"
	"proctor/internal/report"
	"proctor/internal/suite"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [test case]",
	Short: "Show past runs from the history database",
	Long: `Shows the most recent suite runs stored in the historyDB of
proctor.yaml. With a test case name, shows that test case's results across
runs instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of entries")
}

func runHistory(cmd *cobra.Command, args []string) error {
	initLogging()

	project, err := config.LoadConfig(rootConfigPath)
	if err != nil {
		return err
	}
	if project.HistoryDB == "" {
		return fmt.Errorf("no historyDB configured in %s", config.ConfigFileName)
	}

	store, err := report.OpenStore(project.ResolvePath(project.HistoryDB))
	if err != nil {
		return err
	}
	defer store.Close()

	if len(args) == 1 {
		results, err := store.CaseHistory(args[0], historyLimit)
		if err != nil {
			return err
		}
		renderCaseHistory(cmd.OutOrStdout(), args[0], results)
		return nil
	}

	runs, err := store.ListRuns(historyLimit)
	if err != nil {
		return err
	}
	renderRuns(cmd.OutOrStdout(), runs)
	return nil
}

func renderRuns(w io.Writer, runs []report.Run) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.Bold.Sprint("RUN"),
		text.Bold.Sprint("SUITE"),
		text.Bold.Sprint("STARTED"),
		text.Bold.Sprint("DURATION"),
		text.Bold.Sprint("PASSED"),
		text.Bold.Sprint("FAILED"),
		text.Bold.Sprint("SKIPPED"),
	})
	for _, r := range runs {
		t.AppendRow(table.Row{
			r.ID,
			r.Suite,
			r.StartedAt.Local().Format(time.DateTime),
			r.Duration.Round(time.Millisecond).String(),
			r.Passed,
			r.Failed,
			r.Skipped,
		})
	}
	t.Render()
}

func renderCaseHistory(w io.Writer, name string, results []suite.CaseResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(name)
	t.AppendHeader(table.Row{
		text.Bold.Sprint("RESULT"),
		text.Bold.Sprint("DURATION"),
		text.Bold.Sprint("DETAILS"),
	})
	for _, r := range results {
		details := r.Error
		if r.Result == suite.ResultSkipped {
			details = r.SkipReason
		}
		t.AppendRow(table.Row{string(r.Result), r.Duration.Round(time.Millisecond).String(), details})
	}
	t.Render()
}
