package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/andrescamacho/upgrade-planner/internal/domain/planrun"
)

// GormPlanRunRepository implements planrun.PlanRunRepository using GORM
type GormPlanRunRepository struct {
	db *gorm.DB
}

// NewGormPlanRunRepository creates a new GORM plan run repository
func NewGormPlanRunRepository(db *gorm.DB) *GormPlanRunRepository {
	return &GormPlanRunRepository{db: db}
}

// Save persists a plan run and its entries in one transaction
func (r *GormPlanRunRepository) Save(ctx context.Context, run *planrun.PlanRun) error {
	model, err := r.toModel(run)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Jobs").Create(model).Error; err != nil {
			return fmt.Errorf("failed to save plan run: %w", err)
		}
		if len(model.Jobs) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(model.Jobs, 200).Error; err != nil {
			return fmt.Errorf("failed to save scheduled jobs: %w", err)
		}
		return nil
	})
}

// FindByID retrieves a plan run with its entries in schedule order
func (r *GormPlanRunRepository) FindByID(ctx context.Context, id string) (*planrun.PlanRun, error) {
	var model PlanRunModel
	result := r.db.WithContext(ctx).
		Preload("Jobs", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("id = ?", id).
		First(&model)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, &planrun.ErrPlanRunNotFound{ID: id}
		}
		return nil, fmt.Errorf("failed to find plan run: %w", result.Error)
	}

	return r.toDomain(&model)
}

// List returns plan runs newest first without their entries
func (r *GormPlanRunRepository) List(ctx context.Context, opts planrun.QueryOptions) ([]*planrun.PlanRun, error) {
	query := r.db.WithContext(ctx).Model(&PlanRunModel{})

	if opts.PlayerTag != "" {
		query = query.Where("player_tag = ?", opts.PlayerTag)
	}
	if opts.Heuristic != "" {
		query = query.Where("heuristic = ?", opts.Heuristic)
	}
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}

	var models []PlanRunModel
	if err := query.Order("created_at DESC").Order("id ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list plan runs: %w", err)
	}

	runs := make([]*planrun.PlanRun, 0, len(models))
	for i := range models {
		run, err := r.toDomain(&models[i])
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func (r *GormPlanRunRepository) toModel(run *planrun.PlanRun) (*PlanRunModel, error) {
	var warnings string
	if w := run.Warnings(); len(w) > 0 {
		data, err := json.Marshal(w)
		if err != nil {
			return nil, fmt.Errorf("failed to encode warnings: %w", err)
		}
		warnings = string(data)
	}

	entries := run.Entries()
	jobs := make([]ScheduledJobModel, len(entries))
	for i, e := range entries {
		jobs[i] = ScheduledJobModel{
			PlanRunID:    run.ID(),
			Position:     i,
			ItemID:       e.ItemID,
			InstanceIter: e.InstanceIter,
			TargetLevel:  e.TargetLevel,
			Priority:     e.Priority,
			Hero:         e.Hero,
			Worker:       e.Worker,
			StartOffset:  e.StartOffset,
			EndOffset:    e.EndOffset,
		}
	}

	return &PlanRunModel{
		ID:              run.ID(),
		Label:           run.Label(),
		PlayerTag:       run.PlayerTag(),
		Village:         run.Village(),
		Heuristic:       run.Heuristic(),
		Workers:         run.Workers(),
		HallLevel:       run.HallLevel(),
		TargetHallLevel: run.TargetHallLevel(),
		BoostFraction:   run.BoostFraction(),
		ActiveWindow:    run.ActiveWindow(),
		Origin:          run.Origin(),
		MakespanSeconds: run.MakespanSeconds(),
		JobCount:        len(entries),
		Warnings:        warnings,
		CreatedAt:       run.CreatedAt(),
		Jobs:            jobs,
	}, nil
}

func (r *GormPlanRunRepository) toDomain(model *PlanRunModel) (*planrun.PlanRun, error) {
	var warnings []string
	if model.Warnings != "" {
		if err := json.Unmarshal([]byte(model.Warnings), &warnings); err != nil {
			return nil, fmt.Errorf("failed to decode warnings of plan run %s: %w", model.ID, err)
		}
	}

	entries := make([]planrun.ScheduledEntry, len(model.Jobs))
	for i, j := range model.Jobs {
		entries[i] = planrun.ScheduledEntry{
			ItemID:       j.ItemID,
			InstanceIter: j.InstanceIter,
			TargetLevel:  j.TargetLevel,
			Priority:     j.Priority,
			Hero:         j.Hero,
			Worker:       j.Worker,
			StartOffset:  j.StartOffset,
			EndOffset:    j.EndOffset,
		}
	}

	return planrun.ReconstructPlanRun(planrun.NewPlanRunParams{
		ID:              model.ID,
		Label:           model.Label,
		PlayerTag:       model.PlayerTag,
		Village:         model.Village,
		Heuristic:       model.Heuristic,
		Workers:         model.Workers,
		HallLevel:       model.HallLevel,
		TargetHallLevel: model.TargetHallLevel,
		BoostFraction:   model.BoostFraction,
		ActiveWindow:    model.ActiveWindow,
		Origin:          model.Origin,
		MakespanSeconds: model.MakespanSeconds,
		Warnings:        warnings,
		Entries:         entries,
		CreatedAt:       model.CreatedAt,
		JobCount:        model.JobCount,
	}), nil
}

var _ planrun.PlanRunRepository = (*GormPlanRunRepository)(nil)
