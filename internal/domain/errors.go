package domain

import (
	"fmt"
)

// ErrTemplateNotFound is returned when a persisted template cannot be found.
type ErrTemplateNotFound struct {
	Message string
}

func (e *ErrTemplateNotFound) Error() string {
	return e.Message
}

// ErrNotFound is the generic entity-not-found error.
type ErrNotFound struct {
	Entity string
	ID     string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found with ID: %s", e.Entity, e.ID)
}

// ValidationError represents an error that occurs due to invalid input or
// parameters.
type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NewValidationError creates a new validation error with the given message
func NewValidationError(message string) error {
	return ValidationError{
		Message: message,
	}
}

// ErrGenerationFailed wraps a failure of the AI generation collaborator for
// a specific section, keeping enough context for the caller to decide on
// retry or refund.
type ErrGenerationFailed struct {
	SectionID string
	Reason    string
	Err       error
}

func (e *ErrGenerationFailed) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation failed [%s]: %s - %v", e.SectionID, e.Reason, e.Err)
	}
	return fmt.Sprintf("generation failed [%s]: %s", e.SectionID, e.Reason)
}

func (e *ErrGenerationFailed) Unwrap() error {
	return e.Err
}
