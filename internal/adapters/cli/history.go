package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	plannergrpc "github.com/andrescamacho/upgrade-planner/internal/adapters/grpc"
	"github.com/andrescamacho/upgrade-planner/internal/application/planning/queries"
)

// NewHistoryCommand creates the history command with subcommands
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse stored plans",
		Long: `Browse plans stored with 'plan --save'.

Examples:
  upgrade-planner history list
  upgrade-planner history list --player "#2PP" --heuristic SPT --limit 5
  upgrade-planner history show plan-lpt-a3f8e2b1 --by-builder
  upgrade-planner history logs plan-lpt-a3f8e2b1 --level WARNING`,
	}

	cmd.AddCommand(newHistoryListCommand())
	cmd.AddCommand(newHistoryShowCommand())
	cmd.AddCommand(newHistoryLogsCommand())

	return cmd
}

// newHistoryListCommand lists stored plans, newest first
func newHistoryListCommand() *cobra.Command {
	var (
		playerTag string
		heuristic string
		limit     int
		offset    int
		useDaemon bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored plans, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			var resp *queries.ListPlanRunsResponse
			if useDaemon {
				client, err := plannergrpc.NewDaemonClient(socketPath)
				if err != nil {
					return fmt.Errorf("failed to connect to daemon: %w", err)
				}
				defer client.Close()
				resp, err = client.ListRuns(ctx, &plannergrpc.ListRunsRequest{
					PlayerTag: playerTag,
					Heuristic: heuristic,
					Limit:     limit,
					Offset:    offset,
				})
				if err != nil {
					return err
				}
			} else {
				app, err := newLocalApp(true)
				if err != nil {
					return err
				}
				defer app.Close()
				raw, err := app.mediator.Send(app.context(ctx), &queries.ListPlanRunsQuery{
					PlayerTag: playerTag,
					Heuristic: heuristic,
					Limit:     limit,
					Offset:    offset,
				})
				if err != nil {
					return err
				}
				resp = raw.(*queries.ListPlanRunsResponse)
			}

			if outputFormat == "json" {
				return writeJSON(cmd.OutOrStdout(), resp)
			}
			renderRuns(cmd.OutOrStdout(), resp.Runs)
			return nil
		},
	}

	cmd.Flags().StringVar(&playerTag, "player", "", "Filter by player tag")
	cmd.Flags().StringVar(&heuristic, "heuristic", "", "Filter by heuristic (SPT or LPT)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of plans to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of plans to skip")
	cmd.Flags().BoolVar(&useDaemon, "daemon", false, "Read history through the running daemon")

	return cmd
}

// newHistoryShowCommand prints one stored plan
func newHistoryShowCommand() *cobra.Command {
	var (
		byBuilder bool
		useDaemon bool
	)

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a stored plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			var resp *queries.GetPlanRunResponse
			if useDaemon {
				client, err := plannergrpc.NewDaemonClient(socketPath)
				if err != nil {
					return fmt.Errorf("failed to connect to daemon: %w", err)
				}
				defer client.Close()
				resp, err = client.GetRun(ctx, args[0])
				if err != nil {
					return err
				}
			} else {
				app, err := newLocalApp(true)
				if err != nil {
					return err
				}
				defer app.Close()
				raw, err := app.mediator.Send(app.context(ctx), &queries.GetPlanRunQuery{ID: args[0]})
				if err != nil {
					return err
				}
				resp = raw.(*queries.GetPlanRunResponse)
			}

			if outputFormat == "json" {
				return writeJSON(cmd.OutOrStdout(), resp.Run)
			}
			renderRun(cmd.OutOrStdout(), resp.Run, byBuilder)
			return nil
		},
	}

	cmd.Flags().BoolVar(&byBuilder, "by-builder", false, "Group the schedule per builder")
	cmd.Flags().BoolVar(&useDaemon, "daemon", false, "Read history through the running daemon")

	return cmd
}

// newHistoryLogsCommand prints the log lines persisted for a run
func newHistoryLogsCommand() *cobra.Command {
	var (
		level  string
		limit  int
		offset int
	)

	cmd := &cobra.Command{
		Use:   "logs <run-id>",
		Short: "Show log lines stored for a plan run",
		Long: `Show log lines stored for a plan run.

Lines are only stored when logging.persist_run_logs is enabled.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newLocalApp(true)
			if err != nil {
				return err
			}
			defer app.Close()

			var levelPtr *string
			if level != "" {
				upper := strings.ToUpper(level)
				levelPtr = &upper
			}
			entries, err := app.logRepo.GetLogs(context.Background(), args[0], limit, offset, levelPtr)
			if err != nil {
				return fmt.Errorf("failed to read logs: %w", err)
			}

			out := cmd.OutOrStdout()
			if outputFormat == "json" {
				return writeJSON(out, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No log lines stored for this run")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%s %-7s %s%s\n",
					e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Level, e.Message, formatMetadata(e.Metadata))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&level, "level", "", "Only show lines of this level")
	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum number of lines")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of lines to skip")

	return cmd
}

// formatMetadata renders metadata as sorted " key=value" pairs
func formatMetadata(metadata map[string]interface{}) string {
	if len(metadata) == 0 {
		return ""
	}
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, metadata[k])
	}
	return labelStyle.Render(b.String())
}
