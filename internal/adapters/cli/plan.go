package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	plannergrpc "github.com/andrescamacho/upgrade-planner/internal/adapters/grpc"
	"github.com/andrescamacho/upgrade-planner/internal/adapters/inventory"
	"github.com/andrescamacho/upgrade-planner/internal/application/planning"
	"github.com/andrescamacho/upgrade-planner/internal/application/planning/commands"
	"github.com/andrescamacho/upgrade-planner/internal/domain/catalog"
	"github.com/andrescamacho/upgrade-planner/internal/domain/upgrade"
	"github.com/andrescamacho/upgrade-planner/internal/infrastructure/config"
	"github.com/andrescamacho/upgrade-planner/pkg/utils"
)

// NewPlanCommand creates the plan command
func NewPlanCommand() *cobra.Command {
	var (
		inventoryPath string
		villageName   string
		origin        string
		label         string
		compare       bool
		byBuilder     bool
		save          bool
		useDaemon     bool
		flags         planFlags
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Schedule every pending upgrade of an inventory export",
		Long: `Build the upgrade jobs of an inventory export and schedule them on the
available builders.

Settings come from config.yaml and the stored preferences; flags override both
for this run only. The last inventory path is remembered, so --inventory can be
omitted on the next run.

Heuristics:
  SPT  - start the shortest ready upgrade first
  LPT  - start the longest ready upgrade first (default)

Examples:
  upgrade-planner plan --inventory export.json
  upgrade-planner plan --heuristic SPT --boost 20 --by-builder
  upgrade-planner plan --window 08:00-23:00 --timezone Europe/Berlin
  upgrade-planner plan --village builder --compare
  upgrade-planner plan --save --label "before war" --output json
  upgrade-planner plan --daemon`,
		RunE: func(cmd *cobra.Command, args []string) error {
			village, err := catalog.ParseVillage(villageName)
			if err != nil {
				return err
			}
			var originTime time.Time
			if origin != "" {
				originTime, err = time.Parse(time.RFC3339, origin)
				if err != nil {
					return fmt.Errorf("--origin must be RFC3339, e.g. 2026-03-01T09:00:00Z: %w", err)
				}
			}
			return runPlan(cmd, planRun{
				inventoryPath: inventoryPath,
				village:       village,
				origin:        originTime,
				label:         label,
				compare:       compare,
				byBuilder:     byBuilder,
				save:          save,
				useDaemon:     useDaemon,
				flags:         flags,
			})
		},
	}

	cmd.Flags().StringVarP(&inventoryPath, "inventory", "i", "", "Inventory export JSON file (default: last used)")
	cmd.Flags().StringVar(&villageName, "village", "home", "Village to plan: home or builder")
	cmd.Flags().StringVar(&origin, "origin", "", "Plan start time in RFC3339 (default: now)")
	cmd.Flags().StringVar(&label, "label", "", "Label stored with the plan")
	cmd.Flags().BoolVar(&compare, "compare", false, "Schedule with SPT and LPT and report both makespans")
	cmd.Flags().BoolVar(&byBuilder, "by-builder", false, "Group the schedule per builder")
	cmd.Flags().BoolVar(&save, "save", false, "Store the plan in the history database")
	cmd.Flags().BoolVar(&useDaemon, "daemon", false, "Send the request to the running daemon")

	cmd.Flags().StringVar(&flags.heuristic, "heuristic", "", "SPT or LPT")
	cmd.Flags().Float64Var(&flags.boostPercent, "boost", 0, "Builder time reduction in percent [0, 100)")
	cmd.Flags().BoolVar(&flags.fixedPriority, "fixed-priority", false, "Use planner.priority_table")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "Override the number of builders")
	cmd.Flags().IntVar(&flags.targetHall, "target-hall", 0, "Plan towards this hall level's caps")
	cmd.Flags().StringVar(&flags.window, "window", "", "Daily active window, e.g. 08:00-22:00")
	cmd.Flags().BoolVar(&flags.noWindow, "no-window", false, "Ignore any configured active window")
	cmd.Flags().StringVar(&flags.timezone, "timezone", "", "IANA time zone of the active window")

	return cmd
}

type planRun struct {
	inventoryPath string
	village       catalog.Village
	origin        time.Time
	label         string
	compare       bool
	byBuilder     bool
	save          bool
	useDaemon     bool
	flags         planFlags
}

func runPlan(cmd *cobra.Command, run planRun) error {
	if run.compare && run.save {
		return fmt.Errorf("--compare and --save cannot be combined")
	}

	app, err := newLocalApp(run.save && !run.useDaemon)
	if err != nil {
		return err
	}
	defer app.Close()

	settings, err := settingsFromConfig(&app.cfg.Planner, run.flags, cmd.Flags().Changed)
	if err != nil {
		return err
	}
	if msg := shortWindowWarning(settings); msg != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), warningStyle.Render("warning: "+msg))
	}

	out := cmd.OutOrStdout()
	snapshot, err := loadSnapshot(app, run.inventoryPath, run.village)
	var invalid *upgrade.InvalidInputError
	if errors.As(err, &invalid) {
		return reportInvalidInventory(out, run.compare, outputFormat == "json", settings.Heuristic, invalid.Reason)
	}
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(app.context(context.Background()), 2*time.Minute)
	defer cancel()

	if run.compare {
		resp, err := compareHeuristics(ctx, app, snapshot, settings, run)
		if err != nil {
			return err
		}
		if outputFormat == "json" {
			return writeJSON(out, resp)
		}
		renderComparison(out, resp)
		return nil
	}

	resp, err := generatePlan(ctx, app, snapshot, settings, run)
	if err != nil {
		return err
	}
	if outputFormat == "json" {
		return writeJSON(out, resp)
	}
	renderPlan(out, resp, run.byBuilder)
	return nil
}

// loadSnapshot parses the inventory export and remembers its path for the next run
func loadSnapshot(app *localApp, path string, village catalog.Village) (*upgrade.Snapshot, error) {
	if path == "" {
		prefs, err := app.prefs.Load()
		if err != nil {
			return nil, err
		}
		path = prefs.LastInventoryPath
	}
	if path == "" {
		return nil, fmt.Errorf("no inventory given: use --inventory <export.json>")
	}

	snapshot, err := inventory.NewExportParser(app.catalog).ParseFile(path, village)
	if err != nil {
		return nil, err
	}

	if abs, err := filepath.Abs(path); err == nil {
		if err := app.prefs.Update(func(p *config.UserPreferences) { p.LastInventoryPath = abs }); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to remember inventory path: %v\n", err)
		}
	}
	return snapshot, nil
}

// reportInvalidInventory prints an unusable export as a "nothing to schedule" outcome
func reportInvalidInventory(w io.Writer, compare, asJSON bool, heuristic, reason string) error {
	if compare {
		resp := &commands.CompareHeuristicsResponse{
			Outcome: planning.OutcomeNothingToSchedule,
			Reason:  reason,
			Results: []*commands.HeuristicSummary{},
		}
		if asJSON {
			return writeJSON(w, resp)
		}
		renderComparison(w, resp)
		return nil
	}

	resp := &commands.GeneratePlanResponse{
		Outcome:     planning.OutcomeNothingToSchedule,
		Reason:      reason,
		Heuristic:   heuristic,
		Makespan:    utils.FormatCompact(0),
		MakespanISO: utils.FormatISO8601(0),
		Jobs:        []*planning.ScheduledJobDTO{},
	}
	if asJSON {
		return writeJSON(w, resp)
	}
	renderPlan(w, resp, false)
	return nil
}

func generatePlan(ctx context.Context, app *localApp, snapshot *upgrade.Snapshot, settings planning.PlanSettings, run planRun) (*commands.GeneratePlanResponse, error) {
	if run.useDaemon {
		client, err := plannergrpc.NewDaemonClient(socketPath)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to daemon: %w", err)
		}
		defer client.Close()
		return client.GeneratePlan(ctx, &plannergrpc.PlanRequest{
			Snapshot: snapshot,
			Settings: settings,
			Origin:   run.origin,
			Label:    run.label,
			Save:     run.save,
		})
	}

	resp, err := app.mediator.Send(ctx, &commands.GeneratePlanCommand{
		Snapshot: snapshot,
		Settings: settings,
		Origin:   run.origin,
		Label:    run.label,
		Save:     run.save,
	})
	if err != nil {
		return nil, err
	}
	return resp.(*commands.GeneratePlanResponse), nil
}

func compareHeuristics(ctx context.Context, app *localApp, snapshot *upgrade.Snapshot, settings planning.PlanSettings, run planRun) (*commands.CompareHeuristicsResponse, error) {
	if run.useDaemon {
		client, err := plannergrpc.NewDaemonClient(socketPath)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to daemon: %w", err)
		}
		defer client.Close()
		return client.CompareHeuristics(ctx, &plannergrpc.PlanRequest{
			Snapshot: snapshot,
			Settings: settings,
			Origin:   run.origin,
		})
	}

	resp, err := app.mediator.Send(ctx, &commands.CompareHeuristicsCommand{
		Snapshot: snapshot,
		Settings: settings,
		Origin:   run.origin,
	})
	if err != nil {
		return nil, err
	}
	return resp.(*commands.CompareHeuristicsResponse), nil
}
