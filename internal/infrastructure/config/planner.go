package config

// PlannerConfig holds the defaults used when a plan request leaves a setting unset
type PlannerConfig struct {
	// Heuristic: SPT or LPT, any case
	Heuristic string `mapstructure:"heuristic" validate:"required,heuristic"`

	// Priority of ordinary upgrades; 1 and 2 are reserved
	DefaultPriority int `mapstructure:"default_priority" validate:"min=3"`

	// Use PriorityTable for per-item priorities
	FixedPriority bool `mapstructure:"fixed_priority"`

	// Item id -> priority, values must be >= 3
	PriorityTable map[string]int `mapstructure:"priority_table" validate:"dive,min=3"`

	// Builder time reduction in percent [0, 100)
	BuilderBoostPercent float64 `mapstructure:"builder_boost_percent" validate:"min=0,lt=100"`

	// Replace the worker count derived from the inventory (0 = derive)
	WorkerOverride int `mapstructure:"worker_override" validate:"min=0"`

	// Iteration cap = factor * jobs + slack
	IterationFactor int `mapstructure:"iteration_factor" validate:"min=1"`

	ActiveWindow ActiveWindowConfig `mapstructure:"active_window"`
}

// ActiveWindowConfig holds the daily window in which new upgrades may start
type ActiveWindowConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// "HH:MM" bounds; end before start wraps past midnight
	Start string `mapstructure:"start" validate:"omitempty,hhmm"`
	End   string `mapstructure:"end" validate:"omitempty,hhmm"`

	// IANA zone name, e.g. Europe/Berlin (empty = Local)
	Timezone string `mapstructure:"timezone" validate:"omitempty,timezone"`
}

// BoostFraction converts the percent setting into the [0, 1) fraction the builder expects
func (c PlannerConfig) BoostFraction() float64 {
	return c.BuilderBoostPercent / 100
}

// CatalogConfig holds catalog data configuration
type CatalogConfig struct {
	// YAML file whose items and caps replace or extend the embedded catalog
	Path string `mapstructure:"path"`
}
