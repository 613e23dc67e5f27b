package config

// MetricsConfig controls the daemon's Prometheus endpoint. The CLI never serves metrics.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Listen address; localhost by default so plan history stays private
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port" validate:"omitempty,min=1024,max=65535"`

	// Scrape path, /metrics by default
	Path string `mapstructure:"path" validate:"omitempty,startswith=/"`
}
