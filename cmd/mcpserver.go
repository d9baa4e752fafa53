package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"proctor/internal/app"
	"proctor/internal/mcpserver"
)

var mcpServerCmd = &cobra.Command{
	Use:   "mcp-server",
	Short: "Serve the project as MCP tools over stdio",
	Long: `Runs an MCP server on stdin/stdout so AI assistants can list and run
test cases, evaluate expressions and check matchers.

Configure it in your assistant's MCP settings, e.g.:

  {"command": "proctor", "args": ["mcp-server", "-c", "/path/to/project"]}

Logging goes to stderr and only warnings and errors are written.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		cfg := newAppConfig()
		cfg.Silent = true
		cfg.Output = app.OutputNone

		application, err := app.NewApplication(cfg)
		if err != nil {
			return err
		}
		defer application.Close()

		server := mcpserver.New(application, GetVersion())
		if err := server.Start(ctx); err != nil {
			return fmt.Errorf("MCP server error: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mcpServerCmd)
}
