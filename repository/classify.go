package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

func isBusy(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "database table is locked")
}

func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "foreign key constraint failed") || strings.Contains(msg, "violates foreign key constraint")
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) &&
		(sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") || strings.Contains(msg, "duplicate key value")
}

func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "constraint failed") || strings.Contains(msg, "violates")
}

// classify maps driver errors onto the repository error taxonomy. Errors
// that already belong to the taxonomy pass through unchanged.
func classify(entity string, err error) error {
	if err == nil {
		return nil
	}

	var (
		dup  *DuplicateReferenceError
		dep  *DependentRecordsError
		cv   *ConstraintViolationError
		vErr *ValidationError
		sErr *InsufficientStockError
	)
	switch {
	case errors.As(err, &dup), errors.As(err, &dep), errors.As(err, &cv),
		errors.As(err, &vErr), errors.As(err, &sErr),
		errors.Is(err, ErrNotFound), errors.Is(err, ErrDatabaseBusy):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case isBusy(err):
		return fmt.Errorf("%w: %v", ErrDatabaseBusy, err)
	case isForeignKeyViolation(err), isUniqueViolation(err), isConstraintViolation(err):
		return &ConstraintViolationError{Entity: entity, Err: err}
	}
	return fmt.Errorf("%s: %w", entity, err)
}

// classifyDelete is classify for deletes, where a foreign key failure means
// some RESTRICT child still points at the row.
func classifyDelete(entity string, id uint, dependents string, err error) error {
	if err != nil && isForeignKeyViolation(err) {
		return &DependentRecordsError{Entity: entity, ID: id, Dependents: dependents}
	}
	return classify(entity, err)
}
