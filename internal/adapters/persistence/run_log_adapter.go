package persistence

import (
	"context"
	"log"
)

// RunLogAdapter writes run-scoped log lines into a PlanLogRepository.
// Lines without a run_id in their metadata are not persisted.
type RunLogAdapter struct {
	repo PlanLogRepository
	ctx  context.Context
}

// NewRunLogAdapter creates an adapter that persists with ctx
func NewRunLogAdapter(ctx context.Context, repo PlanLogRepository) *RunLogAdapter {
	return &RunLogAdapter{repo: repo, ctx: ctx}
}

// Log implements logging.RunLogger
func (a *RunLogAdapter) Log(level, message string, metadata map[string]interface{}) {
	runID, _ := metadata["run_id"].(string)
	if runID == "" {
		return
	}

	rest := make(map[string]interface{}, len(metadata))
	for k, v := range metadata {
		if k != "run_id" {
			rest[k] = v
		}
	}

	// Persisting logs is best effort; a failed insert must not fail the plan
	if err := a.repo.Log(a.ctx, runID, message, level, rest); err != nil {
		log.Printf("failed to persist plan log for %s: %v", runID, err)
	}
}
