package helpers

import (
	"context"
	"sort"
	"sync"

	"github.com/andrescamacho/upgrade-planner/internal/domain/planrun"
)

// MockPlanRunRepository is an in-memory implementation of PlanRunRepository for testing
type MockPlanRunRepository struct {
	mu      sync.Mutex
	Runs    map[string]*planrun.PlanRun
	SaveErr error
	ListErr error
}

// NewMockPlanRunRepository creates a new mock plan run repository
func NewMockPlanRunRepository() *MockPlanRunRepository {
	return &MockPlanRunRepository{
		Runs: make(map[string]*planrun.PlanRun),
	}
}

// Save stores the run in memory
func (m *MockPlanRunRepository) Save(ctx context.Context, run *planrun.PlanRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Runs[run.ID()] = run
	return nil
}

// FindByID returns a stored run or ErrPlanRunNotFound
func (m *MockPlanRunRepository) FindByID(ctx context.Context, id string) (*planrun.PlanRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	run, ok := m.Runs[id]
	if !ok {
		return nil, &planrun.ErrPlanRunNotFound{ID: id}
	}
	return run, nil
}

// List filters and pages runs newest first
func (m *MockPlanRunRepository) List(ctx context.Context, opts planrun.QueryOptions) ([]*planrun.PlanRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListErr != nil {
		return nil, m.ListErr
	}

	runs := make([]*planrun.PlanRun, 0, len(m.Runs))
	for _, run := range m.Runs {
		if opts.PlayerTag != "" && run.PlayerTag() != opts.PlayerTag {
			continue
		}
		if opts.Heuristic != "" && run.Heuristic() != opts.Heuristic {
			continue
		}
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].CreatedAt().Equal(runs[j].CreatedAt()) {
			return runs[i].CreatedAt().After(runs[j].CreatedAt())
		}
		return runs[i].ID() < runs[j].ID()
	})

	if opts.Offset >= len(runs) {
		return []*planrun.PlanRun{}, nil
	}
	runs = runs[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(runs) {
		runs = runs[:opts.Limit]
	}
	return runs, nil
}

var _ planrun.PlanRunRepository = (*MockPlanRunRepository)(nil)
