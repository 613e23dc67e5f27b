package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath   string
	socketPath   string
	outputFormat string
	verbose      bool
)

// NewRootCommand creates the root command for the CLI
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "upgrade-planner",
		Short: "Plan base upgrades across your builders",
		Long: `upgrade-planner turns an in-game inventory export into an upgrade schedule.

Every pending upgrade becomes a job; jobs are handed to free builders in
shortest- or longest-processing-time order while respecting level chains,
hero hall unlocks and an optional daily active window.

Examples:
  upgrade-planner plan --inventory export.json
  upgrade-planner plan --inventory export.json --heuristic SPT --boost 20 --by-builder
  upgrade-planner plan --compare --window 08:00-23:00 --timezone Europe/Berlin
  upgrade-planner catalog list --hall 9
  upgrade-planner history list
  upgrade-planner daemon status`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file (default: search ./config.yaml, ~/.upgrade-planner)")
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", getDefaultSocketPath(),
		"Path to daemon Unix socket")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table",
		"Output format: table or json")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")

	rootCmd.AddCommand(NewPlanCommand())
	rootCmd.AddCommand(NewCatalogCommand())
	rootCmd.AddCommand(NewHistoryCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewDaemonCommand())

	return rootCmd
}

// getDefaultSocketPath returns the default socket path
func getDefaultSocketPath() string {
	if path := os.Getenv("UP_DAEMON_SOCKET_PATH"); path != "" {
		return path
	}
	return "/tmp/upgrade-planner.sock"
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
