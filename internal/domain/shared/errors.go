package shared

import "fmt"

// DomainError is the base error type for all domain errors
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func NewDomainError(message string) *DomainError {
	return &DomainError{Message: message}
}

// Validation error

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// Configuration error

// ConfigurationError is returned before any planning work starts when the caller
// supplied settings that can never produce a schedule (worker count, heuristic name,
// reserved priorities, colliding job keys).
type ConfigurationError struct {
	*DomainError
	Setting string
}

func NewConfigurationError(setting, message string) *ConfigurationError {
	return &ConfigurationError{
		DomainError: &DomainError{Message: fmt.Sprintf("invalid %s: %s", setting, message)},
		Setting:     setting,
	}
}
