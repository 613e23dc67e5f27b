package cli

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/andrescamacho/upgrade-planner/internal/adapters/gamedata"
	"github.com/andrescamacho/upgrade-planner/internal/adapters/persistence"
	"github.com/andrescamacho/upgrade-planner/internal/application/logging"
	"github.com/andrescamacho/upgrade-planner/internal/application/mediator"
	"github.com/andrescamacho/upgrade-planner/internal/application/planning"
	"github.com/andrescamacho/upgrade-planner/internal/application/planning/commands"
	"github.com/andrescamacho/upgrade-planner/internal/application/planning/queries"
	"github.com/andrescamacho/upgrade-planner/internal/domain/catalog"
	"github.com/andrescamacho/upgrade-planner/internal/domain/planrun"
	"github.com/andrescamacho/upgrade-planner/internal/infrastructure/config"
	"github.com/andrescamacho/upgrade-planner/internal/infrastructure/database"
)

// localApp is the in-process wiring used when the CLI does not go through the daemon
type localApp struct {
	cfg         *config.Config
	prefs       *config.PreferencesHandler
	catalog     *catalog.StaticCatalog
	mediator    mediator.Mediator
	logger      logging.RunLogger
	db          *gorm.DB
	logRepo     persistence.PlanLogRepository
	closeOutput func() error
}

// loadConfig reads config plus stored preferences
func loadConfig() (*config.Config, *config.PreferencesHandler, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	prefs, err := config.NewPreferencesHandler()
	if err != nil {
		return nil, nil, err
	}
	stored, err := prefs.Load()
	if err != nil {
		return nil, nil, err
	}
	config.ApplyPreferences(cfg, stored)
	return cfg, prefs, nil
}

// newLocalApp loads config, catalog and (when withHistory) the plan database,
// and registers every planning handler on a fresh mediator
func newLocalApp(withHistory bool) (*localApp, error) {
	cfg, prefs, err := loadConfig()
	if err != nil {
		return nil, err
	}

	out, closeOutput, err := logging.OpenOutput(cfg.Logging.Output, cfg.Logging.FilePath)
	if err != nil {
		return nil, err
	}
	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	slogger := logging.NewSlogRunLogger(logging.SlogConfig{
		Level:     level,
		Format:    cfg.Logging.Format,
		Output:    out,
		AddSource: cfg.Logging.IncludeCaller,
	})

	cat, err := gamedata.Load(cfg.Catalog.Path)
	if err != nil {
		closeOutput()
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	app := &localApp{
		cfg:         cfg,
		prefs:       prefs,
		catalog:     cat,
		mediator:    mediator.NewMediator(),
		logger:      slogger,
		closeOutput: closeOutput,
	}
	app.mediator.RegisterMiddleware(logging.Middleware())

	service := planning.NewPlanningService(cat)
	var runRepo planrun.PlanRunRepository
	if withHistory {
		db, err := database.Open(&cfg.Database)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to open plan history: %w", err)
		}
		app.db = db
		runRepo = persistence.NewGormPlanRunRepository(db)
		app.logRepo = persistence.NewGormPlanLogRepository(db, nil)
	}

	if err := registerHandlers(app.mediator, service, runRepo); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

// registerHandlers wires the planning commands and, when a repository exists, the history queries
func registerHandlers(med mediator.Mediator, service *planning.PlanningService, runRepo planrun.PlanRunRepository) error {
	generate := commands.NewGeneratePlanHandler(service, runRepo, nil)
	if err := mediator.RegisterHandler[*commands.GeneratePlanCommand](med, generate); err != nil {
		return err
	}
	if err := mediator.RegisterHandler[*commands.CompareHeuristicsCommand](med, commands.NewCompareHeuristicsHandler(service, nil)); err != nil {
		return err
	}
	if runRepo == nil {
		return nil
	}
	if err := mediator.RegisterHandler[*queries.ListPlanRunsQuery](med, queries.NewListPlanRunsHandler(runRepo)); err != nil {
		return err
	}
	return mediator.RegisterHandler[*queries.GetPlanRunQuery](med, queries.NewGetPlanRunHandler(runRepo))
}

// context returns a context carrying the run logger; per-run lines are also
// persisted when logging.persist_run_logs is set and history is open
func (a *localApp) context(parent context.Context) context.Context {
	logger := a.logger
	if a.logRepo != nil && a.cfg.Logging.PersistRunLogs {
		logger = logging.MultiLogger{a.logger, persistence.NewRunLogAdapter(parent, a.logRepo)}
	}
	return logging.WithLogger(parent, logger)
}

// Close releases the database and log output
func (a *localApp) Close() {
	if a.db != nil {
		_ = database.Close(a.db)
	}
	if a.closeOutput != nil {
		_ = a.closeOutput()
	}
}
