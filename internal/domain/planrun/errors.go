package planrun

import "fmt"

// ErrInvalidPlanRun represents validation errors for plan runs
type ErrInvalidPlanRun struct {
	Field  string
	Reason string
}

func (e *ErrInvalidPlanRun) Error() string {
	return fmt.Sprintf("invalid plan run: %s - %s", e.Field, e.Reason)
}

// ErrPlanRunNotFound represents errors when a plan run cannot be found
type ErrPlanRunNotFound struct {
	ID string
}

func (e *ErrPlanRunNotFound) Error() string {
	return fmt.Sprintf("plan run not found: %s", e.ID)
}
