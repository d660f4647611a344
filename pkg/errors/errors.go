// Package errors provides custom error types for the featurereg system.
// These errors enable programmatic error checking across the analysis
// pipeline, the review action layer, and the CLI and HTTP surfaces.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the featurereg system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates that a resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrFetchFailed indicates that an analysis input could not be read
	ErrFetchFailed = errors.New("data fetch failed")

	// ErrMutationFailed indicates that a review mutation did not apply
	ErrMutationFailed = errors.New("mutation failed")

	// ErrInvalidTransition indicates an illegal review status change
	ErrInvalidTransition = errors.New("invalid review transition")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a request or configuration that was rejected
// before any side effect took place.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// DataFetchError is returned when the registry or the record store cannot be
// read. Analysis never proceeds on partial input.
type DataFetchError struct {
	Source string // "registry", "store"
	Err    error
}

// Error implements the error interface
func (e *DataFetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.Source, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *DataFetchError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *DataFetchError) Is(target error) bool {
	return target == ErrFetchFailed
}

// NewDataFetchError creates a new DataFetchError
func NewDataFetchError(source string, err error) *DataFetchError {
	return &DataFetchError{Source: source, Err: err}
}

// MutationError describes a single review action that failed. In bulk
// operations one is recorded per failed item.
type MutationError struct {
	Action string // "archive", "delete", "keep", "undo_keep"
	ID     string
	Err    error
}

// Error implements the error interface
func (e *MutationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Action, e.ID, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *MutationError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *MutationError) Is(target error) bool {
	return target == ErrMutationFailed
}

// NewMutationError creates a new MutationError
func NewMutationError(action, id string, err error) *MutationError {
	return &MutationError{Action: action, ID: id, Err: err}
}

// TransitionError reports a review status change the state machine forbids.
type TransitionError struct {
	From string
	To   string
}

// Error implements the error interface
func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move review status from %s to %s", e.From, e.To)
}

// Is implements errors.Is support
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// NewTransitionError creates a new TransitionError
func NewTransitionError(from, to string) *TransitionError {
	return &TransitionError{From: from, To: to}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "yaml", "csv"
	File    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "open", "close"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsFetchError checks if an error came from reading analysis inputs
func IsFetchError(err error) bool {
	return errors.Is(err, ErrFetchFailed)
}

// IsMutationError checks if an error is a failed review mutation
func IsMutationError(err error) bool {
	return errors.Is(err, ErrMutationFailed)
}

// IsInvalidTransition checks if an error is an illegal status change
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}

// IsCanceled checks if an error is a cancellation error
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// Helper wrapping functions for common patterns

// WrapValidation wraps an error as a ValidationError
func WrapValidation(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapFetch wraps an error as a DataFetchError
func WrapFetch(source string, err error) error {
	if err == nil {
		return nil
	}
	return NewDataFetchError(source, err)
}

// WrapMutation wraps an error as a MutationError
func WrapMutation(action, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewMutationError(action, id, err)
}
