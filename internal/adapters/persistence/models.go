package persistence

import (
	"time"
)

// PlanRunModel represents the plan_runs table
type PlanRunModel struct {
	ID              string    `gorm:"column:id;primaryKey;not null"`
	Label           string    `gorm:"column:label"`
	PlayerTag       string    `gorm:"column:player_tag;index"`
	Village         string    `gorm:"column:village;not null;default:'home'"`
	Heuristic       string    `gorm:"column:heuristic;not null;index"`
	Workers         int       `gorm:"column:workers;not null"`
	HallLevel       int       `gorm:"column:hall_level;not null"`
	TargetHallLevel int       `gorm:"column:target_hall_level;not null"`
	BoostFraction   float64   `gorm:"column:boost_fraction;not null;default:0"`
	ActiveWindow    string    `gorm:"column:active_window"`
	Origin          time.Time `gorm:"column:origin;not null"`
	MakespanSeconds int64     `gorm:"column:makespan_seconds;not null"`
	JobCount        int       `gorm:"column:job_count;not null"`
	Warnings        string    `gorm:"column:warnings;type:text"` // JSON array as text
	CreatedAt       time.Time `gorm:"column:created_at;not null;index"`

	Jobs []ScheduledJobModel `gorm:"foreignKey:PlanRunID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (PlanRunModel) TableName() string {
	return "plan_runs"
}

// ScheduledJobModel represents the scheduled_jobs table
type ScheduledJobModel struct {
	ID           int    `gorm:"column:id;primaryKey;autoIncrement"`
	PlanRunID    string `gorm:"column:plan_run_id;not null;index"`
	Position     int    `gorm:"column:position;not null"`
	ItemID       string `gorm:"column:item_id;not null"`
	InstanceIter string `gorm:"column:instance_iter;not null"`
	TargetLevel  int    `gorm:"column:target_level;not null"`
	Priority     int    `gorm:"column:priority;not null"`
	Hero         bool   `gorm:"column:hero;not null;default:false"`
	Worker       int    `gorm:"column:worker;not null"`
	StartOffset  int64  `gorm:"column:start_offset;not null"`
	EndOffset    int64  `gorm:"column:end_offset;not null"`
}

func (ScheduledJobModel) TableName() string {
	return "scheduled_jobs"
}

// PlanLogModel represents the plan_logs table
type PlanLogModel struct {
	ID        int       `gorm:"column:id;primaryKey;autoIncrement"`
	RunID     string    `gorm:"column:run_id;not null;index"`
	Timestamp time.Time `gorm:"column:timestamp;not null"`
	Level     string    `gorm:"column:level;not null;default:'INFO'"`
	Message   string    `gorm:"column:message;type:text;not null"`
	Metadata  string    `gorm:"column:metadata;type:text"` // JSON as text
}

func (PlanLogModel) TableName() string {
	return "plan_logs"
}
