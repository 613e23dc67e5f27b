package scheduling

import (
	"fmt"
	"strings"

	"github.com/andrescamacho/upgrade-planner/internal/domain/shared"
)

// Heuristic selects how ready jobs of equal priority are ranked by duration
type Heuristic string

const (
	// HeuristicSPT - shortest processing time first
	HeuristicSPT Heuristic = "SPT"

	// HeuristicLPT - longest processing time first
	HeuristicLPT Heuristic = "LPT"
)

// AllHeuristics lists the supported heuristics in a stable order
func AllHeuristics() []Heuristic {
	return []Heuristic{HeuristicSPT, HeuristicLPT}
}

// ParseHeuristic converts a case-insensitive name into a Heuristic
func ParseHeuristic(name string) (Heuristic, error) {
	h := Heuristic(strings.ToUpper(strings.TrimSpace(name)))
	if err := h.Validate(); err != nil {
		return "", err
	}
	return h, nil
}

// Validate returns a *shared.ConfigurationError for unsupported values
func (h Heuristic) Validate() error {
	switch h {
	case HeuristicSPT, HeuristicLPT:
		return nil
	default:
		return shared.NewConfigurationError("heuristic", fmt.Sprintf("%q is not one of SPT, LPT", string(h)))
	}
}

func (h Heuristic) String() string {
	return string(h)
}
