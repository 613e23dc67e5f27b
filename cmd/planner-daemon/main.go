package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/andrescamacho/upgrade-planner/internal/adapters/gamedata"
	"github.com/andrescamacho/upgrade-planner/internal/adapters/grpc"
	"github.com/andrescamacho/upgrade-planner/internal/adapters/metrics"
	"github.com/andrescamacho/upgrade-planner/internal/adapters/persistence"
	"github.com/andrescamacho/upgrade-planner/internal/application/logging"
	"github.com/andrescamacho/upgrade-planner/internal/application/mediator"
	"github.com/andrescamacho/upgrade-planner/internal/application/planning"
	"github.com/andrescamacho/upgrade-planner/internal/application/planning/commands"
	"github.com/andrescamacho/upgrade-planner/internal/application/planning/queries"
	"github.com/andrescamacho/upgrade-planner/internal/infrastructure/config"
	"github.com/andrescamacho/upgrade-planner/internal/infrastructure/database"
	"github.com/andrescamacho/upgrade-planner/internal/infrastructure/pidfile"
)

const version = "0.1.0"

func main() {
	// Parse command-line flags
	forceFlag := flag.Bool("force", false, "Kill any existing daemon and start a new one")
	configFlag := flag.String("config", "", "Path to config file (default: search standard locations)")
	flag.Parse()

	fmt.Printf("Upgrade Planner Daemon v%s\n", version)
	fmt.Println("==========================")

	fmt.Println("Loading configuration...")
	cfg := config.MustLoadConfig(*configFlag)

	// Only one daemon may own the socket
	fmt.Printf("Acquiring PID file lock: %s\n", cfg.Daemon.PIDFile)
	pf := pidfile.New(cfg.Daemon.PIDFile)

	if err := pf.Acquire(); err != nil {
		if !*forceFlag {
			log.Fatalf("Failed to acquire PID file lock: %v\nUse --force to kill the existing daemon", err)
		}
		fmt.Println("Force mode enabled - attempting to kill existing daemon...")
		if killErr := pf.KillExisting(); killErr != nil {
			log.Fatalf("Failed to kill existing daemon: %v", killErr)
		}
		fmt.Println("Existing daemon killed")

		if err := pf.Acquire(); err != nil {
			log.Fatalf("Failed to acquire PID file lock after killing existing daemon: %v", err)
		}
	}

	defer func() {
		if err := pf.Release(); err != nil {
			log.Printf("Warning: failed to release PID file: %v", err)
		}
	}()
	fmt.Println("PID file lock acquired")

	if err := run(cfg); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run(cfg *config.Config) error {
	// 1. Logging
	out, closeOutput, err := logging.OpenOutput(cfg.Logging.Output, cfg.Logging.FilePath)
	if err != nil {
		return fmt.Errorf("failed to open log output: %w", err)
	}
	defer closeOutput()

	slogger := logging.NewSlogRunLogger(logging.SlogConfig{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Output:    out,
		AddSource: cfg.Logging.IncludeCaller,
	})

	// 2. Catalog
	cat, err := gamedata.Load(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	fmt.Println("Catalog loaded")

	// 3. Plan history
	fmt.Printf("Connecting to %s database...\n", cfg.Database.Type)
	db, err := database.Open(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close(db)
	fmt.Println("Database connected")

	runRepo := persistence.NewGormPlanRunRepository(db)
	logRepo := persistence.NewGormPlanLogRepository(db, nil) // nil = use RealClock

	// 4. Metrics
	var commandCollector *metrics.CommandMetricsCollector
	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()

		planCollector := metrics.NewPlanMetricsCollector()
		if err := planCollector.Register(); err != nil {
			return fmt.Errorf("failed to register plan metrics: %w", err)
		}
		metrics.SetGlobalPlanCollector(planCollector)

		commandCollector = metrics.NewCommandMetricsCollector()
		if err := commandCollector.Register(); err != nil {
			return fmt.Errorf("failed to register command metrics: %w", err)
		}

		metricsServer = metrics.NewServer(&cfg.Metrics)
		if err := metricsServer.Start(); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		fmt.Printf("Metrics available at http://%s%s\n", metricsServer.Addr(), cfg.Metrics.Path)

		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				log.Printf("Warning: metrics server shutdown: %v", err)
			}
		}()
	}

	// 5. Mediator
	var runLogger logging.RunLogger = slogger
	if cfg.Logging.PersistRunLogs {
		runLogger = logging.MultiLogger{slogger, persistence.NewRunLogAdapter(context.Background(), logRepo)}
	}

	med := mediator.NewMediator()
	med.RegisterMiddleware(logging.DefaultLoggerMiddleware(runLogger))
	med.RegisterMiddleware(logging.Middleware())
	med.RegisterMiddleware(metrics.PrometheusMiddleware(commandCollector))

	// 6. Handlers
	service := planning.NewPlanningService(cat)

	generateHandler := commands.NewGeneratePlanHandler(service, runRepo, nil) // nil = use RealClock
	if err := mediator.RegisterHandler[*commands.GeneratePlanCommand](med, generateHandler); err != nil {
		return fmt.Errorf("failed to register GeneratePlan handler: %w", err)
	}

	compareHandler := commands.NewCompareHeuristicsHandler(service, nil)
	if err := mediator.RegisterHandler[*commands.CompareHeuristicsCommand](med, compareHandler); err != nil {
		return fmt.Errorf("failed to register CompareHeuristics handler: %w", err)
	}

	listRunsHandler := queries.NewListPlanRunsHandler(runRepo)
	if err := mediator.RegisterHandler[*queries.ListPlanRunsQuery](med, listRunsHandler); err != nil {
		return fmt.Errorf("failed to register ListPlanRuns handler: %w", err)
	}

	getRunHandler := queries.NewGetPlanRunHandler(runRepo)
	if err := mediator.RegisterHandler[*queries.GetPlanRunQuery](med, getRunHandler); err != nil {
		return fmt.Errorf("failed to register GetPlanRun handler: %w", err)
	}

	// 7. Daemon server
	socketPath := cfg.Daemon.SocketPath
	fmt.Printf("Starting daemon server on: %s\n", socketPath)

	if err := os.MkdirAll(filepath.Dir(socketPath), 0755); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}

	daemonServer, err := grpc.NewDaemonServer(med, &cfg.Daemon, version)
	if err != nil {
		return fmt.Errorf("failed to create daemon server: %w", err)
	}

	slogger.Log(logging.LevelInfo, "Daemon started", map[string]interface{}{
		"socket":      socketPath,
		"max_plans":   cfg.Daemon.MaxConcurrentPlans,
		"persist_log": cfg.Logging.PersistRunLogs,
	})
	fmt.Println("\n✓ Daemon is ready to accept connections")
	fmt.Println("Press Ctrl+C to stop")

	// Blocks until shutdown
	if err := daemonServer.Start(); err != nil {
		return fmt.Errorf("daemon server error: %w", err)
	}

	fmt.Println("\nDaemon stopped")
	return nil
}
