package repository

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a looked-up record does not exist
var ErrNotFound = errors.New("record not found")

// ErrDatabaseBusy is returned when the database stayed locked past the
// connection busy timeout. The operation was rolled back and may be retried.
var ErrDatabaseBusy = errors.New("database is busy, please retry")

// IsRetryable reports whether err is a transient lock failure
func IsRetryable(err error) bool {
	return errors.Is(err, ErrDatabaseBusy)
}

// SchemaError is a fatal failure of the schema manager
type SchemaError struct {
	Table string
	Step  string
	Err   error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema %s failed for table %s: %v", e.Step, e.Table, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// DuplicateReferenceError reports a reference id already held by another row
type DuplicateReferenceError struct {
	Entity    string
	Reference string
}

func (e *DuplicateReferenceError) Error() string {
	return fmt.Sprintf("%s reference %q is already in use", e.Entity, e.Reference)
}

// DependentRecordsError reports a delete refused because other rows still
// reference the record
type DependentRecordsError struct {
	Entity     string
	ID         uint
	Dependents string
	Count      int64
}

func (e *DependentRecordsError) Error() string {
	if e.Count > 0 {
		return fmt.Sprintf("cannot delete %s %d: it still has %d linked %s", e.Entity, e.ID, e.Count, e.Dependents)
	}
	return fmt.Sprintf("cannot delete %s %d: it is still referenced by %s", e.Entity, e.ID, e.Dependents)
}

// ConstraintViolationError wraps any other integrity failure (missing parent,
// NOT NULL, unique business column)
type ConstraintViolationError struct {
	Entity string
	Err    error
}

func (e *ConstraintViolationError) Error() string {
	return fmt.Sprintf("%s violates a database constraint: %v", e.Entity, e.Err)
}

func (e *ConstraintViolationError) Unwrap() error {
	return e.Err
}

// InsufficientStockError is returned by the reject stock policy
type InsufficientStockError struct {
	ProductID uint
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

// ValidationError describes input rejected before any write
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalid(field, "is required")
	}
	return nil
}

// ReconciliationWarning flags a supplier service whose logged expense no
// longer matches it, or whose expense could not be found. It is reported,
// never raised.
type ReconciliationWarning struct {
	ServiceID uint   `json:"service_id"`
	Reference string `json:"reference"`
	Message   string `json:"message"`
}

func (w ReconciliationWarning) String() string {
	return fmt.Sprintf("service %d (%s): %s", w.ServiceID, w.Reference, w.Message)
}
