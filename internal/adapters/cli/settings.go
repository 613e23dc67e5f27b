package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/andrescamacho/upgrade-planner/internal/application/planning"
	"github.com/andrescamacho/upgrade-planner/internal/infrastructure/config"
)

// planFlags are the per-invocation overrides of the planner config
type planFlags struct {
	heuristic     string
	boostPercent  float64
	fixedPriority bool
	workers       int
	targetHall    int
	window        string
	noWindow      bool
	timezone      string
}

// settingsFromConfig builds plan settings from config, then applies the flags the user set
func settingsFromConfig(cfg *config.PlannerConfig, flags planFlags, changed func(string) bool) (planning.PlanSettings, error) {
	settings := planning.PlanSettings{
		Heuristic:        cfg.Heuristic,
		BoostFraction:    cfg.BoostFraction(),
		UseFixedPriority: cfg.FixedPriority,
		PriorityTable:    cfg.PriorityTable,
		DefaultPriority:  cfg.DefaultPriority,
		WorkerOverride:   cfg.WorkerOverride,
		IterationFactor:  cfg.IterationFactor,
	}
	if cfg.ActiveWindow.Enabled {
		settings.Window = &planning.WindowSettings{
			Start:    cfg.ActiveWindow.Start,
			End:      cfg.ActiveWindow.End,
			Timezone: zoneOrLocal(cfg.ActiveWindow.Timezone),
		}
	}

	if changed("heuristic") {
		settings.Heuristic = flags.heuristic
	}
	if changed("boost") {
		settings.BoostFraction = flags.boostPercent / 100
	}
	if changed("fixed-priority") {
		settings.UseFixedPriority = flags.fixedPriority
	}
	if changed("workers") {
		settings.WorkerOverride = flags.workers
	}
	if changed("target-hall") {
		settings.TargetHallLevel = flags.targetHall
	}
	if changed("window") {
		start, end, err := parseWindowFlag(flags.window)
		if err != nil {
			return settings, err
		}
		settings.Window = &planning.WindowSettings{Start: start, End: end, Timezone: zoneOrLocal(cfg.ActiveWindow.Timezone)}
	}
	if changed("timezone") && settings.Window != nil {
		settings.Window.Timezone = zoneOrLocal(flags.timezone)
	}
	if flags.noWindow {
		settings.Window = nil
	}
	return settings, nil
}

// parseWindowFlag splits "08:00-22:00"
func parseWindowFlag(value string) (string, string, error) {
	parts := strings.Split(strings.TrimSpace(value), "-")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("--window must look like 08:00-22:00, got %q", value)
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
}

// zoneOrLocal resolves an empty zone to the machine's zone name
func zoneOrLocal(zone string) string {
	if strings.TrimSpace(zone) != "" {
		return zone
	}
	return time.Local.String()
}

// shortWindowWarning returns a message when builders would only start work for under an hour a day
func shortWindowWarning(settings planning.PlanSettings) string {
	window, err := settings.ActiveWindow()
	if err != nil || window == nil {
		return ""
	}
	if window.Length() < time.Hour {
		return fmt.Sprintf("active window %s is open for only %s a day", window, window.Length())
	}
	return ""
}
