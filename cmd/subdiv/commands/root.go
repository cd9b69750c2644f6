// Package commands implements the CLI commands for subdiv.
package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/subdiv/internal/app"
	"go.trai.ch/subdiv/internal/build"
)

// CLI represents the command line interface for subdiv.
type CLI struct {
	app     *app.App
	rootCmd *cobra.Command
}

// New creates a new CLI instance with the given app.
func New(a *app.App) *CLI {
	rootCmd := &cobra.Command{
		Use:           "subdiv",
		Short:         "Incremental subdivision-surface refinement",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().StringP("config", "c", "subdiv.yaml", "Path to configuration file")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	// The startup configuration already covers the default path.
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if !cmd.Flags().Changed("config") {
			return nil
		}
		path, err := cmd.Flags().GetString("config")
		if err != nil {
			return err
		}
		return c.app.Configure(path)
	}

	rootCmd.AddCommand(c.newRunCmd())
	rootCmd.AddCommand(c.newBackendsCmd())
	rootCmd.AddCommand(c.newPlansCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput redirects command output. Used for testing.
func (c *CLI) SetOutput(w io.Writer) {
	c.rootCmd.SetOut(w)
	c.rootCmd.SetErr(w)
}
