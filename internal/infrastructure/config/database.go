package config

import "time"

// DatabaseConfig locates the plan history store. The default is a sqlite file under
// PlannerHome; postgres is for a daemon shared by several users.
type DatabaseConfig struct {
	Type string `mapstructure:"type" validate:"required,oneof=postgres sqlite"`

	// sqlite file, or ":memory:" for throwaway history
	Path string `mapstructure:"path"`

	// postgres DSN such as postgresql://planner:secret@db:5432/plans; wins over the fields below
	URL string `mapstructure:"url"`

	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode" validate:"omitempty,oneof=disable require verify-ca verify-full"`

	// Only applied to postgres
	Pool PoolConfig `mapstructure:"pool"`
}

// PoolConfig sizes the postgres connection pool
type PoolConfig struct {
	MaxOpen     int           `mapstructure:"max_open" validate:"min=1"`
	MaxIdle     int           `mapstructure:"max_idle" validate:"min=1"`
	MaxLifetime time.Duration `mapstructure:"max_lifetime"`
}
