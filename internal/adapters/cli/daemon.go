package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	plannergrpc "github.com/andrescamacho/upgrade-planner/internal/adapters/grpc"
	"github.com/andrescamacho/upgrade-planner/internal/infrastructure/pidfile"
	"github.com/andrescamacho/upgrade-planner/pkg/utils"
)

// NewDaemonCommand creates the daemon command with subcommands
func NewDaemonCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Inspect or stop the planner daemon",
		Long: `The planner daemon (upgrade-planner-daemon) keeps the catalog, plan history
and metrics endpoint loaded and serves 'plan --daemon' requests over a Unix socket.

Examples:
  upgrade-planner daemon status
  upgrade-planner daemon stop`,
	}

	cmd.AddCommand(newDaemonStatusCommand())
	cmd.AddCommand(newDaemonStopCommand())

	return cmd
}

func newDaemonStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check whether the daemon is running and serving",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}

			pid, err := pidfile.New(cfg.Daemon.PIDFile).Running()
			if errors.Is(err, pidfile.ErrNotRunning) {
				fmt.Fprintln(out, "Daemon is not running")
				return nil
			}

			client, err := plannergrpc.NewDaemonClient(socketPath)
			if err != nil {
				return fmt.Errorf("failed to connect to daemon: %w", err)
			}
			defer client.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			health, err := client.Health(ctx)
			if err != nil {
				fmt.Fprintf(out, "Daemon process %d is running but not answering on %s: %v\n", pid, socketPath, err)
				return nil
			}

			if outputFormat == "json" {
				return writeJSON(out, health)
			}
			fmt.Fprintf(out, "Status:       %s\n", health.Status)
			fmt.Fprintf(out, "Version:      %s\n", health.Version)
			fmt.Fprintf(out, "PID:          %d\n", health.PID)
			fmt.Fprintf(out, "Uptime:       %s\n", utils.FormatHuman(health.UptimeSecond))
			fmt.Fprintf(out, "Active plans: %d/%d\n", health.ActivePlans, health.MaxPlans)
			return nil
		},
	}
}

func newDaemonStopCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			pf := pidfile.New(cfg.Daemon.PIDFile)
			if _, err := pf.Running(); err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Daemon is not running")
				return nil
			}
			if err := pf.KillExisting(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Daemon stopped")
			return nil
		},
	}
}
