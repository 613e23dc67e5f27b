package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateRunID creates a human-readable plan run ID.
// Format: plan-{heuristic}-{8charHexUUID}
//
// Example:
//   - Input: heuristic="LPT"
//   - Output: "plan-lpt-a3f8e2b1"
func GenerateRunID(heuristic string) string {
	label := strings.ToLower(strings.TrimSpace(heuristic))
	if label == "" {
		label = "run"
	}
	return "plan-" + label + "-" + generateShortUUID()
}

// generateShortUUID creates an 8-character hex string from a UUID
func generateShortUUID() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")[:8]
}
