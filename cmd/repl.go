package cmd

import (
	"github.com/spf13/cobra"

	"proctor/internal/app"
	"proctor/internal/repl"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive expression shell",
	Long: `Starts a shell on the project's global variables. Lines are evaluated
like test action values:

  proctor » ${env}
  proctor » core:upperCase(${env})
  proctor » set id core:randomUUID()
  proctor » validate ${id} @isUUID()@
  proctor » run Order*

Type 'help' inside the shell for all commands.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := newAppConfig()
		cfg.Out = cmd.OutOrStdout()
		cfg.Output = app.OutputQuiet

		application, err := app.NewApplication(cfg)
		if err != nil {
			return err
		}
		defer application.Close()

		shell, err := repl.New(application, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		return shell.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}
