package scheduling

import (
	"fmt"

	"github.com/andrescamacho/upgrade-planner/internal/domain/shared"
	"github.com/andrescamacho/upgrade-planner/internal/domain/upgrade"
)

// precedenceGraph is the adjacency of one job set, indexed by insertion position
type precedenceGraph struct {
	index map[upgrade.JobKey]int
	preds [][]int
	succs [][]int

	// levelPred is the same-instance previous-level job, or -1
	levelPred []int
}

// buildPrecedenceGraph resolves predecessor keys once per run.
//
// Explicit predecessors must exist in the set. The same-instance previous level is
// added implicitly whenever that job is present, so hand-built job sets chain correctly.
func buildPrecedenceGraph(jobs []*upgrade.Job) (*precedenceGraph, error) {
	g := &precedenceGraph{
		index:     make(map[upgrade.JobKey]int, len(jobs)),
		preds:     make([][]int, len(jobs)),
		succs:     make([][]int, len(jobs)),
		levelPred: make([]int, len(jobs)),
	}

	for i, j := range jobs {
		if j == nil {
			return nil, shared.NewConfigurationError("jobs", fmt.Sprintf("job %d is nil", i))
		}
		if prev, dup := g.index[j.Key()]; dup {
			return nil, shared.NewConfigurationError("jobs",
				fmt.Sprintf("duplicate job key %s at positions %d and %d", j.Key(), prev, i))
		}
		g.index[j.Key()] = i
	}

	var missing []upgrade.JobKey
	for i, j := range jobs {
		seen := make(map[int]bool)
		add := func(p int) {
			if p == i || seen[p] {
				return
			}
			seen[p] = true
			g.preds[i] = append(g.preds[i], p)
			g.succs[p] = append(g.succs[p], i)
		}

		g.levelPred[i] = -1
		if p, ok := g.index[j.PreviousLevelKey()]; ok {
			g.levelPred[i] = p
			add(p)
		}
		for _, key := range j.Predecessors() {
			p, ok := g.index[key]
			if !ok {
				missing = append(missing, key)
				continue
			}
			add(p)
		}
	}

	if len(missing) > 0 {
		return nil, &DeadlockError{Missing: missing}
	}
	return g, nil
}
