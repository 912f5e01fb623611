package relquery

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors for common operations.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("relquery: entity not found")

	// ErrNotSingular is returned when a query that expects exactly one result
	// returns zero or multiple results.
	ErrNotSingular = errors.New("relquery: entity not singular")

	// ErrTxStarted is returned when attempting to start a new transaction
	// within an existing transaction.
	ErrTxStarted = errors.New("relquery: cannot start a transaction within a transaction")
)

// NotFoundError represents an error when an entity is not found.
type NotFoundError struct {
	label string
	id    any // Optional: the ID that was searched for
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	if e.id != nil {
		return fmt.Sprintf("relquery: %s not found (id=%v)", e.label, e.id)
	}
	return fmt.Sprintf("relquery: %s not found", e.label)
}

// Is reports whether the target error matches NotFoundError.
// This allows errors.Is(notFoundErr, ErrNotFound) to return true.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Label returns the entity label.
func (e *NotFoundError) Label() string {
	return e.label
}

// ID returns the ID that was searched for, if available.
func (e *NotFoundError) ID() any {
	return e.id
}

// NewNotFoundError returns a new NotFoundError for the given entity type.
func NewNotFoundError(label string) *NotFoundError {
	return &NotFoundError{label: label}
}

// NewNotFoundErrorWithID returns a new NotFoundError with the ID that was searched for.
func NewNotFoundErrorWithID(label string, id any) *NotFoundError {
	return &NotFoundError{label: label, id: id}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// NotSingularError represents an error when a query expects a singular result
// but receives zero or multiple results.
type NotSingularError struct {
	label string
	count int // Number of results returned (-1 if unknown)
}

// Error returns the error string.
func (e *NotSingularError) Error() string {
	if e.count >= 0 {
		return fmt.Sprintf("relquery: %s not singular (got %d results, expected 1)", e.label, e.count)
	}
	return fmt.Sprintf("relquery: %s not singular", e.label)
}

// Is reports whether the target error matches NotSingularError.
// This allows errors.Is(notSingularErr, ErrNotSingular) to return true.
func (e *NotSingularError) Is(err error) bool {
	return err == ErrNotSingular
}

// Label returns the entity label.
func (e *NotSingularError) Label() string {
	return e.label
}

// Count returns the number of results, or -1 if unknown.
func (e *NotSingularError) Count() int {
	return e.count
}

// NewNotSingularError returns a new NotSingularError for the given entity type.
func NewNotSingularError(label string) *NotSingularError {
	return &NotSingularError{label: label, count: -1}
}

// NewNotSingularErrorWithCount returns a new NotSingularError with the result count.
func NewNotSingularErrorWithCount(label string, count int) *NotSingularError {
	return &NotSingularError{label: label, count: count}
}

// IsNotSingular returns true if the error is a NotSingularError.
func IsNotSingular(err error) bool {
	if err == nil {
		return false
	}
	var e *NotSingularError
	return errors.As(err, &e) || errors.Is(err, ErrNotSingular)
}

// NotLoadedError represents an error when attempting to access an edge
// that was not loaded (eager-loaded).
type NotLoadedError struct {
	edge string
}

// Error returns the error string.
func (e *NotLoadedError) Error() string {
	return fmt.Sprintf("relquery: edge %q was not loaded", e.edge)
}

// NewNotLoadedError returns a new NotLoadedError for the given edge name.
func NewNotLoadedError(edge string) *NotLoadedError {
	return &NotLoadedError{edge: edge}
}

// IsNotLoaded returns true if the error is a NotLoadedError.
func IsNotLoaded(err error) bool {
	if err == nil {
		return false
	}
	var e *NotLoadedError
	return errors.As(err, &e)
}

// ConstraintError represents a database constraint violation error.
type ConstraintError struct {
	msg  string
	wrap error
}

// Error returns the error string.
func (e ConstraintError) Error() string {
	return fmt.Sprintf("relquery: constraint failed: %s", e.msg)
}

// Unwrap returns the underlying error.
func (e ConstraintError) Unwrap() error {
	return e.wrap
}

// NewConstraintError returns a new ConstraintError with the given message.
func NewConstraintError(msg string, wrap error) error {
	return ConstraintError{msg: msg, wrap: wrap}
}

// IsConstraintError returns true if the error is a ConstraintError.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var e ConstraintError
	return errors.As(err, &e)
}

// ValidationError represents a validation error for field values.
type ValidationError struct {
	Name string // Field or entity name
	Err  error  // Underlying validation error
}

// Error returns the error string.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("relquery: validator failed for field %q: %s", e.Name, e.Err)
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError returns a new ValidationError for the given field.
func NewValidationError(name string, err error) *ValidationError {
	return &ValidationError{Name: name, Err: err}
}

// IsValidationError returns true if the error is a ValidationError.
func IsValidationError(err error) bool {
	if err == nil {
		return false
	}
	var e *ValidationError
	return errors.As(err, &e)
}

// RollbackError wraps an error that occurred during a transaction rollback.
type RollbackError struct {
	Err error // Original error that triggered rollback
}

// Error returns the error string.
func (e *RollbackError) Error() string {
	return fmt.Sprintf("relquery: rollback failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *RollbackError) Unwrap() error {
	return e.Err
}

// AggregateError represents multiple errors collected during an operation.
type AggregateError struct {
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "relquery: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("relquery: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// NewAggregateError returns a new AggregateError if there are errors,
// otherwise returns nil.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &AggregateError{Errors: filtered}
}

// QueryError wraps a query error with additional context.
type QueryError struct {
	Entity string // Entity type being queried
	Op     string // Operation (e.g., "select", "count", "exist")
	Err    error  // Underlying error
}

// Error returns the error string.
func (e *QueryError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("relquery: querying %s (%s): %v", e.Entity, e.Op, e.Err)
	}
	return fmt.Sprintf("relquery: querying %s: %v", e.Entity, e.Err)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// NewQueryError returns a new QueryError.
func NewQueryError(entity, op string, err error) *QueryError {
	return &QueryError{Entity: entity, Op: op, Err: err}
}

// IsQueryError returns true if the error is a QueryError.
func IsQueryError(err error) bool {
	if err == nil {
		return false
	}
	var e *QueryError
	return errors.As(err, &e)
}

// MutationError wraps a mutation error with additional context.
type MutationError struct {
	Entity string // Entity type being mutated
	Op     string // Operation (e.g., "create", "update", "delete")
	Err    error  // Underlying error
}

// Error returns the error string.
func (e *MutationError) Error() string {
	return fmt.Sprintf("relquery: %s %s: %v", e.Op, e.Entity, e.Err)
}

// Unwrap returns the underlying error.
func (e *MutationError) Unwrap() error {
	return e.Err
}

// NewMutationError returns a new MutationError.
func NewMutationError(entity, op string, err error) *MutationError {
	return &MutationError{Entity: entity, Op: op, Err: err}
}

// IsMutationError returns true if the error is a MutationError.
func IsMutationError(err error) bool {
	if err == nil {
		return false
	}
	var e *MutationError
	return errors.As(err, &e)
}

// InvalidInputError represents a validation failure of operation args
// against a model's schema. It is never retried by the caller.
type InvalidInputError struct {
	Model     string // Model the args were validated against
	Operation string // Operation being validated (e.g. "findMany", "create")
	Path      string // Dotted path to the offending key, e.g. "where.tags.some.nam"
	Err       error  // Underlying reason
}

// Error returns the error string.
func (e *InvalidInputError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("relquery: invalid input for %s.%s at %q: %v", e.Model, e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("relquery: invalid input for %s.%s: %v", e.Model, e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *InvalidInputError) Unwrap() error {
	return e.Err
}

// NewInvalidInputError returns a new InvalidInputError.
func NewInvalidInputError(model, operation, path string, err error) *InvalidInputError {
	return &InvalidInputError{Model: model, Operation: operation, Path: path, Err: err}
}

// IsInvalidInput returns true if the error is an InvalidInputError.
func IsInvalidInput(err error) bool {
	if err == nil {
		return false
	}
	var e *InvalidInputError
	return errors.As(err, &e)
}

// CompileError represents a schema or relation inconsistency discovered
// while building SQL: a missing inverse relation, mismatched fields/
// references lengths, an unknown relation or field, or a many-to-many
// relation used outside the junction path. It indicates a programmer or
// schema-hydration bug and is fatal to the operation.
type CompileError struct {
	Model    string // Model being compiled
	Relation string // Relation involved, if any
	Reason   string // Human-readable reason
}

// Error returns the error string.
func (e *CompileError) Error() string {
	if e.Relation != "" {
		return fmt.Sprintf("relquery: cannot compile %s.%s: %s", e.Model, e.Relation, e.Reason)
	}
	return fmt.Sprintf("relquery: cannot compile %s: %s", e.Model, e.Reason)
}

// NewCompileError returns a new CompileError.
func NewCompileError(model, relation, reason string) *CompileError {
	return &CompileError{Model: model, Relation: relation, Reason: reason}
}

// IsCompileError returns true if the error is a CompileError.
func IsCompileError(err error) bool {
	if err == nil {
		return false
	}
	var e *CompileError
	return errors.As(err, &e)
}

// FeatureNotSupportedError represents use of an optional adapter surface
// the active dialect does not implement, e.g. lateral joins on SQLite or
// vector operators on a non-vector driver. Fatal to the operation; never
// retried.
type FeatureNotSupportedError struct {
	Dialect string
	Feature string
}

// Error returns the error string.
func (e *FeatureNotSupportedError) Error() string {
	return fmt.Sprintf("relquery: %s does not support %s", e.Dialect, e.Feature)
}

// NewFeatureNotSupportedError returns a new FeatureNotSupportedError.
func NewFeatureNotSupportedError(dialect, feature string) *FeatureNotSupportedError {
	return &FeatureNotSupportedError{Dialect: dialect, Feature: feature}
}

// IsFeatureNotSupported returns true if the error is a FeatureNotSupportedError.
func IsFeatureNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var e *FeatureNotSupportedError
	return errors.As(err, &e)
}

// NestedWriteError wraps a failure during a specific step of a nested
// write. It carries the relation and model the failing step belonged to
// so the caller can see a path like "[Model.relation]"; the whole
// enclosing transaction is rolled back regardless of which step failed.
type NestedWriteError struct {
	Model    string
	Relation string
	Err      error
}

// Error returns the error string.
func (e *NestedWriteError) Error() string {
	return fmt.Sprintf("relquery: nested write [%s.%s]: %v", e.Model, e.Relation, e.Err)
}

// Unwrap returns the underlying error.
func (e *NestedWriteError) Unwrap() error {
	return e.Err
}

// NewNestedWriteError returns a new NestedWriteError.
func NewNestedWriteError(model, relation string, err error) *NestedWriteError {
	return &NestedWriteError{Model: model, Relation: relation, Err: err}
}

// IsNestedWriteError returns true if the error is a NestedWriteError.
func IsNestedWriteError(err error) bool {
	if err == nil {
		return false
	}
	var e *NestedWriteError
	return errors.As(err, &e)
}
