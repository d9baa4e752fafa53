package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"proctor/internal/function"
	"proctor/internal/matcher"
)

var functionsCmd = &cobra.Command{
	Use:   "functions [prefix]",
	Short: "List the functions available in expressions",
	Long: `Lists every function of the installed libraries. Functions are called
as <prefix>:<name>(<params>), e.g. core:concat('Hello ', ${user}).

Pass a prefix such as "core" or "sprig" to show a single library.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prefix := ""
		if len(args) == 1 {
			prefix = args[0]
		}
		return renderFunctions(cmd.OutOrStdout(), function.DefaultRegistry(), prefix)
	},
}

var matchersCmd = &cobra.Command{
	Use:   "matchers",
	Short: "List the validation matchers",
	Long: `Lists the matchers usable in receive validations, written as
@<name>('<control>')@, e.g. @startsWith('Hello')@ or @ignore@.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range matcher.Names() {
			fmt.Fprintf(cmd.OutOrStdout(), "@%s@\n", name)
		}
	},
}

func init() {
	rootCmd.AddCommand(functionsCmd)
	rootCmd.AddCommand(matchersCmd)
}

func renderFunctions(w io.Writer, registry *function.Registry, prefix string) error {
	prefix = strings.TrimSuffix(prefix, ":")

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.Bold.Sprint("FUNCTION"),
		text.Bold.Sprint("DESCRIPTION"),
	})

	count := 0
	for _, lib := range registry.Libraries() {
		if prefix != "" && lib.Prefix != prefix+":" {
			continue
		}
		for _, name := range lib.Names() {
			t.AppendRow(table.Row{lib.Prefix + name, lib.Description(name)})
			count++
		}
	}
	if count == 0 {
		return fmt.Errorf("no function library with prefix '%s'", prefix)
	}

	t.Render()
	return nil
}
