package upgrade

import "fmt"

// MissingCatalogEntryError indicates an inventory item has no catalog data.
// The builder recovers from it by skipping the item.
type MissingCatalogEntryError struct {
	ItemID string
}

func (e *MissingCatalogEntryError) Error() string {
	return fmt.Sprintf("no catalog entry for %s", e.ItemID)
}

// DataInconsistencyError indicates the job set cannot satisfy a required unlock
type DataInconsistencyError struct {
	ItemID        string
	TargetLevel   int
	RequiredItem  string
	RequiredLevel int
}

func (e *DataInconsistencyError) Error() string {
	return fmt.Sprintf("%s level %d requires %s level %d but no job reaches that level",
		e.ItemID, e.TargetLevel, e.RequiredItem, e.RequiredLevel)
}

// InvalidInputError indicates a snapshot the planner cannot work from at all
// (nothing pasted, no structures, no hall). Callers report it as "nothing to schedule".
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid inventory: %s", e.Reason)
}
