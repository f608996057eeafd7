package app

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/curator/cmd/curator/cmd/apply"
	"github.com/agentstation/curator/cmd/curator/cmd/batch"
	"github.com/agentstation/curator/cmd/curator/cmd/build"
	"github.com/agentstation/curator/cmd/curator/cmd/generate"
	"github.com/agentstation/curator/cmd/curator/cmd/match"
	"github.com/agentstation/curator/cmd/curator/cmd/proposals"
	"github.com/agentstation/curator/cmd/curator/cmd/reconcile"
	"github.com/agentstation/curator/cmd/curator/cmd/version"
	"github.com/agentstation/curator/internal/cmd/application"
)

// Ensure App implements Application at compile time.
var _ application.Application = (*App)(nil)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(reconcile.NewCommand(a))
	rootCmd.AddCommand(build.NewCommand(a))
	rootCmd.AddCommand(apply.NewCommand(a))
	rootCmd.AddCommand(batch.NewCommand(a))
	rootCmd.AddCommand(generate.NewCommand(a))

	// Management commands
	rootCmd.AddCommand(match.NewCommand(a))
	rootCmd.AddCommand(proposals.NewCommand(a))

	// Utility commands
	rootCmd.AddCommand(version.NewCommand(a))
}
