package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"proctor/internal/app"
	"proctor/internal/report"
	"proctor/internal/suite"
	"proctor/internal/testcase"
	"proctor/internal/watch"
)

var (
	runTestPath string
	runInclude  []string
	runExclude  []string
	runFailFast bool
	runVars     []string
	runOutput   string
	runWatch    bool
)

var runOutputFormats = []string{app.OutputConsole, app.OutputQuiet, app.OutputJSON, app.OutputTable}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the test suite",
	Long: `Runs the test cases of the project as one suite.

The before actions of proctor.yaml run first; when they fail no test case is
executed. Between actions run ahead of every test case and after actions run
last, whatever happened before.

Examples:
  proctor run                                  # Run all tests below ./tests
  proctor run -c examples/                     # Use examples/proctor.yaml
  proctor run --include 'Order*' --fail-fast   # Run a subset, stop at the first failure
  proctor run --var env=staging --output table # Override a global variable
  proctor run --watch                          # Re-run whenever a test file changes

The exit code is 2 when a test case failed and 1 for any other error.`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		for _, format := range runOutputFormats {
			if runOutput == format {
				return nil
			}
		}
		return fmt.Errorf("unsupported output format '%s', must be one of: %s", runOutput, strings.Join(runOutputFormats, ", "))
	},
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runTestPath, "test-path", "t", "", "Test case file or directory (default: testDir of proctor.yaml)")
	runCmd.Flags().StringSliceVarP(&runInclude, "include", "i", nil, "Only run test cases matching these name patterns")
	runCmd.Flags().StringSliceVarP(&runExclude, "exclude", "e", nil, "Skip test cases matching these name patterns")
	runCmd.Flags().BoolVar(&runFailFast, "fail-fast", false, "Skip the remaining test cases after the first failure")
	runCmd.Flags().StringArrayVar(&runVars, "var", nil, "Set a global variable as name=value (repeatable)")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", app.OutputConsole, "Output format ("+strings.Join(runOutputFormats, "|")+")")
	runCmd.Flags().BoolVarP(&runWatch, "watch", "w", false, "Re-run the suite when test files change")

	_ = runCmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return runOutputFormats, cobra.ShellCompDirectiveNoFileComp
	})
}

// parseVariables turns name=value pairs into a map. The value may contain '='.
func parseVariables(pairs []string) (map[string]string, error) {
	vars := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid variable '%s', expected name=value", pair)
		}
		vars[name] = value
	}
	return vars, nil
}

// useSpinner reports whether progress should be shown as a spinner. Only
// formats that print nothing while the suite runs get one.
func useSpinner(output string, verbose, debug bool) bool {
	if verbose || debug {
		return false
	}
	return output == app.OutputQuiet || output == app.OutputTable
}

func runRun(cmd *cobra.Command, args []string) error {
	vars, err := parseVariables(runVars)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := newAppConfig()
	cfg.TestPath = runTestPath
	cfg.Include = runInclude
	cfg.Exclude = runExclude
	cfg.FailFast = runFailFast
	cfg.Variables = vars
	cfg.Out = cmd.OutOrStdout()

	spin := useSpinner(runOutput, rootVerbose, rootDebug)
	cfg.Output = runOutput
	if spin {
		// the output is replayed once the spinner stopped
		cfg.Output = app.OutputNone
	}

	application, err := app.NewApplication(cfg)
	if err != nil {
		return err
	}
	defer application.Close()

	runErr := runOnce(ctx, cmd, application, spin)
	if !runWatch {
		return runErr
	}
	if runErr != nil && !errors.Is(runErr, app.ErrTestsFailed) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", runErr)
	}
	return watchAndRun(ctx, cmd, application, spin)
}

func runOnce(ctx context.Context, cmd *cobra.Command, application *app.Application, spin bool) error {
	if !spin {
		_, err := application.Run(ctx)
		return err
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Writer = cmd.ErrOrStderr()
	s.Suffix = " Running test suite..."
	s.Start()

	summary, err := application.Run(ctx, &spinnerReporter{spinner: s})
	s.Stop()

	if summary.RunID != "" {
		var reporter suite.Reporter
		if runOutput == app.OutputTable {
			reporter = report.NewTableReporter(cmd.OutOrStdout())
		} else {
			reporter = report.NewQuietReporter(cmd.OutOrStdout())
		}
		report.Replay(reporter, summary)
	}
	return err
}

func watchAndRun(ctx context.Context, cmd *cobra.Command, application *app.Application, spin bool) error {
	w, err := watch.New(watch.DefaultDebounce)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(application.TestPath()); err != nil {
		return fmt.Errorf("failed to watch %s: %w", application.TestPath(), err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n👀 Watching %s for changes (Ctrl+C to stop)\n", application.TestPath())
	return w.Run(ctx, func(ctx context.Context, changed []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "\n🔄 %d file(s) changed, running again\n", len(changed))
		if err := runOnce(ctx, cmd, application, spin); err != nil && !errors.Is(err, app.ErrTestsFailed) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
	})
}

// spinnerReporter shows the running test case in the spinner suffix.
type spinnerReporter struct {
	spinner *spinner.Spinner
}

func (r *spinnerReporter) setSuffix(suffix string) {
	r.spinner.Lock()
	r.spinner.Suffix = suffix
	r.spinner.Unlock()
}

func (r *spinnerReporter) OnSuiteStart(name string) {
	r.setSuffix(fmt.Sprintf(" Running suite %s...", name))
}

func (r *spinnerReporter) OnTestStart(tc *testcase.TestCase) {
	r.setSuffix(fmt.Sprintf(" Running %s...", tc.Name))
}

func (r *spinnerReporter) OnTestFinish(suite.CaseResult) {}

func (r *spinnerReporter) OnSuiteFinish(suite.Summary) {}
