package planrun

import "context"

// PlanRunRepository defines persistence operations for plan runs
type PlanRunRepository interface {
	// Save persists a new plan run with its entries
	Save(ctx context.Context, run *PlanRun) error

	// FindByID retrieves a plan run and its entries
	FindByID(ctx context.Context, id string) (*PlanRun, error)

	// List returns plan runs newest first, without entries
	List(ctx context.Context, opts QueryOptions) ([]*PlanRun, error)
}

// QueryOptions filters plan run listings
type QueryOptions struct {
	PlayerTag string
	Heuristic string
	Limit     int
	Offset    int
}

// DefaultQueryOptions returns default query options
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{Limit: 20}
}
