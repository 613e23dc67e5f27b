package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// DefaultPlannerDir is where preferences and the default database live
	DefaultPlannerDir = ".upgrade-planner"

	defaultActiveStart = "08:00"
	defaultActiveEnd   = "22:00"
)

// PlannerHome returns ~/.upgrade-planner, or a relative directory when no home is set
func PlannerHome() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return DefaultPlannerDir
	}
	return filepath.Join(home, DefaultPlannerDir)
}

// SetDefaults sets default values for all configuration fields
func SetDefaults(cfg *Config) {
	// Planner defaults
	cfg.Planner.Heuristic = strings.ToUpper(strings.TrimSpace(cfg.Planner.Heuristic))
	if cfg.Planner.Heuristic == "" {
		cfg.Planner.Heuristic = "LPT"
	}
	if cfg.Planner.DefaultPriority == 0 {
		cfg.Planner.DefaultPriority = 100
	}
	if cfg.Planner.IterationFactor == 0 {
		cfg.Planner.IterationFactor = 3
	}
	if cfg.Planner.ActiveWindow.Start == "" {
		cfg.Planner.ActiveWindow.Start = defaultActiveStart
	}
	if cfg.Planner.ActiveWindow.End == "" {
		cfg.Planner.ActiveWindow.End = defaultActiveEnd
	}

	// Database defaults
	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	if cfg.Database.Type == "sqlite" && cfg.Database.Path == "" {
		cfg.Database.Path = filepath.Join(PlannerHome(), "plans.db")
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "planner"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "upgrade_planner"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Pool.MaxOpen == 0 {
		cfg.Database.Pool.MaxOpen = 10
	}
	if cfg.Database.Pool.MaxIdle == 0 {
		cfg.Database.Pool.MaxIdle = 2
	}
	if cfg.Database.Pool.MaxLifetime == 0 {
		cfg.Database.Pool.MaxLifetime = 5 * time.Minute
	}

	// Daemon defaults
	if cfg.Daemon.SocketPath == "" {
		cfg.Daemon.SocketPath = "/tmp/upgrade-planner.sock"
	}
	if cfg.Daemon.PIDFile == "" {
		cfg.Daemon.PIDFile = "/tmp/upgrade-planner.pid"
	}
	if cfg.Daemon.MaxConcurrentPlans == 0 {
		cfg.Daemon.MaxConcurrentPlans = 4
	}
	if cfg.Daemon.RateLimit.Requests == 0 {
		cfg.Daemon.RateLimit.Requests = 5
	}
	if cfg.Daemon.RateLimit.Burst == 0 {
		cfg.Daemon.RateLimit.Burst = 10
	}
	if cfg.Daemon.ShutdownTimeout == 0 {
		cfg.Daemon.ShutdownTimeout = 10 * time.Second
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}

	// Metrics defaults
	if cfg.Metrics.Host == "" {
		cfg.Metrics.Host = "localhost"
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9464
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}
