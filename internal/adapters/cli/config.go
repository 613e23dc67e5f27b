package cli

import (
	"fmt"
	"io"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/upgrade-planner/internal/domain/scheduling"
	"github.com/andrescamacho/upgrade-planner/internal/infrastructure/config"
)

// NewConfigCommand creates the config command with subcommands
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration and stored preferences",
		Long: `Manage planner configuration.

Configuration is loaded from multiple sources with priority:
1. Command-line flags
2. Stored preferences (~/.upgrade-planner/preferences.json)
3. Environment variables (UP_* prefix)
4. Config file (config.yaml)
5. Default values

Examples:
  upgrade-planner config show
  upgrade-planner config set --boost 20 --heuristic SPT
  upgrade-planner config set --window 08:00-23:00 --timezone Europe/Berlin
  upgrade-planner config set --no-window
  upgrade-planner config clear`,
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigClearCommand())

	return cmd
}

// newConfigShowCommand prints the effective configuration
func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, prefs, err := loadConfig()
			if err != nil {
				return err
			}
			if outputFormat == "json" {
				return writeJSON(cmd.OutOrStdout(), cfg)
			}
			renderConfig(cmd.OutOrStdout(), cfg, prefs.Path())
			return nil
		},
	}
}

func renderConfig(w io.Writer, cfg *config.Config, prefsPath string) {
	fmt.Fprintln(w, titleStyle.Render("Upgrade Planner Configuration"))

	fmt.Fprintln(w, "\nPlanner:")
	fmt.Fprintf(w, "  Heuristic:        %s\n", cfg.Planner.Heuristic)
	fmt.Fprintf(w, "  Builder boost:    %g%%\n", cfg.Planner.BuilderBoostPercent)
	fmt.Fprintf(w, "  Default priority: %d\n", cfg.Planner.DefaultPriority)
	fmt.Fprintf(w, "  Fixed priorities: %t (%d entries)\n", cfg.Planner.FixedPriority, len(cfg.Planner.PriorityTable))
	if cfg.Planner.WorkerOverride > 0 {
		fmt.Fprintf(w, "  Builders:         %d (override)\n", cfg.Planner.WorkerOverride)
	}
	window := "(off)"
	if aw := cfg.Planner.ActiveWindow; aw.Enabled {
		window = fmt.Sprintf("%s-%s %s", aw.Start, aw.End, zoneOrLocal(aw.Timezone))
	}
	fmt.Fprintf(w, "  Active window:    %s\n", window)
	fmt.Fprintf(w, "  Preferences:      %s\n", prefsPath)

	fmt.Fprintln(w, "\nCatalog:")
	if cfg.Catalog.Path != "" {
		fmt.Fprintf(w, "  Overrides:        %s\n", cfg.Catalog.Path)
	} else {
		fmt.Fprintln(w, "  Overrides:        (built-in data only)")
	}

	fmt.Fprintln(w, "\nDatabase:")
	fmt.Fprintf(w, "  Type:             %s\n", cfg.Database.Type)
	switch {
	case cfg.Database.URL != "":
		fmt.Fprintf(w, "  URL:              %s\n", maskPassword(cfg.Database.URL))
	case cfg.Database.Type == "sqlite":
		fmt.Fprintf(w, "  Path:             %s\n", cfg.Database.Path)
	default:
		fmt.Fprintf(w, "  Host:             %s:%d\n", cfg.Database.Host, cfg.Database.Port)
		fmt.Fprintf(w, "  Database:         %s\n", cfg.Database.Name)
		fmt.Fprintf(w, "  User:             %s\n", cfg.Database.User)
	}

	fmt.Fprintln(w, "\nDaemon:")
	fmt.Fprintf(w, "  Socket Path:      %s\n", cfg.Daemon.SocketPath)
	fmt.Fprintf(w, "  Max plans:        %d\n", cfg.Daemon.MaxConcurrentPlans)
	fmt.Fprintf(w, "  Rate Limit:       %d req/s (burst: %d)\n", cfg.Daemon.RateLimit.Requests, cfg.Daemon.RateLimit.Burst)

	fmt.Fprintln(w, "\nLogging:")
	fmt.Fprintf(w, "  Level:            %s\n", cfg.Logging.Level)
	fmt.Fprintf(w, "  Format:           %s\n", cfg.Logging.Format)
	fmt.Fprintf(w, "  Output:           %s\n", cfg.Logging.Output)

	fmt.Fprintln(w, "\nMetrics:")
	fmt.Fprintf(w, "  Enabled:          %t\n", cfg.Metrics.Enabled)
	if cfg.Metrics.Enabled {
		fmt.Fprintf(w, "  Endpoint:         http://%s:%d%s\n", cfg.Metrics.Host, cfg.Metrics.Port, cfg.Metrics.Path)
	}
}

// newConfigSetCommand stores preferences used by later runs
func newConfigSetCommand() *cobra.Command {
	var (
		boost     float64
		heuristic string
		window    string
		timezone  string
		noWindow  bool
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store planner preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			handler, err := config.NewPreferencesHandler()
			if err != nil {
				return err
			}

			var updateErr error
			err = handler.Update(func(p *config.UserPreferences) {
				updateErr = applyPreferenceFlags(p, cmd.Flags().Changed, boost, heuristic, window, timezone, noWindow)
			})
			if err != nil {
				return err
			}
			if updateErr != nil {
				return updateErr
			}

			fmt.Fprintln(cmd.OutOrStdout(), "✓ Preferences saved to", handler.Path())
			return nil
		},
	}

	cmd.Flags().Float64Var(&boost, "boost", 0, "Builder time reduction in percent [0, 100)")
	cmd.Flags().StringVar(&heuristic, "heuristic", "", "SPT or LPT")
	cmd.Flags().StringVar(&window, "window", "", "Daily active window, e.g. 08:00-22:00")
	cmd.Flags().StringVar(&timezone, "timezone", "", "IANA time zone of the active window")
	cmd.Flags().BoolVar(&noWindow, "no-window", false, "Turn the active window off")

	return cmd
}

// applyPreferenceFlags validates the changed flags and copies them into p.
// Invalid values leave p untouched.
func applyPreferenceFlags(p *config.UserPreferences, changed func(string) bool, boost float64, heuristic, window, timezone string, noWindow bool) error {
	next := *p

	if changed("boost") {
		if boost < 0 || boost >= 100 {
			return fmt.Errorf("--boost must be in [0, 100), got %g", boost)
		}
		next.BuilderBoostPercent = &boost
	}
	if changed("heuristic") {
		h, err := scheduling.ParseHeuristic(heuristic)
		if err != nil {
			return err
		}
		next.Heuristic = string(h)
	}
	if changed("window") {
		start, end, err := parseWindowFlag(window)
		if err != nil {
			return err
		}
		if _, err := scheduling.NewActiveWindow(start, end, nil); err != nil {
			return err
		}
		aw := &config.ActiveWindowPreference{Enabled: true, Start: start, End: end}
		if next.ActiveWindow != nil {
			aw.Timezone = next.ActiveWindow.Timezone
		}
		next.ActiveWindow = aw
	}
	if changed("timezone") {
		if next.ActiveWindow == nil {
			return fmt.Errorf("--timezone needs an active window, set --window too")
		}
		aw := *next.ActiveWindow
		aw.Timezone = timezone
		next.ActiveWindow = &aw
	}
	if noWindow {
		next.ActiveWindow = &config.ActiveWindowPreference{Enabled: false}
	}

	*p = next
	return nil
}

// newConfigClearCommand removes stored preferences
func newConfigClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget stored preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			handler, err := config.NewPreferencesHandler()
			if err != nil {
				return err
			}
			if err := handler.Save(&config.UserPreferences{}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Preferences cleared")
			return nil
		},
	}
}

// maskPassword hides the password of a connection URL
func maskPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Redacted()
}
