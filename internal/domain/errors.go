package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSchemaNotFound signals an unrecognized entry type.
	ErrSchemaNotFound = errors.New("schema not found")
	// ErrSchemaInvalid signals a malformed schema definition (fatal at load time).
	ErrSchemaInvalid = errors.New("invalid schema definition")
	// ErrListNotFound signals a missing directory list.
	ErrListNotFound = errors.New("list not found")
	// ErrUnknownFilterField signals a filter key the schema does not declare searchable.
	ErrUnknownFilterField = errors.New("unknown filter field")
	// ErrUnknownAttributeField signals an attribute key the schema does not declare.
	ErrUnknownAttributeField = errors.New("unknown attribute field")
	// ErrMissingRequiredField signals a mapped entry lacking a schema-required attribute.
	ErrMissingRequiredField = errors.New("missing required field")
	// ErrInvalidRow signals a source row the mapper or entry validation rejected.
	ErrInvalidRow = errors.New("invalid row")
	// ErrUnknownMapper signals an import naming a mapper that is not registered.
	ErrUnknownMapper = errors.New("unknown mapper")
	// ErrQueryParse signals an unparsable text query. Recovered internally by
	// falling back to substring matching; never surfaced to callers.
	ErrQueryParse = errors.New("query parse error")
	// ErrAccessDenied signals a list outside the caller's allow-list.
	ErrAccessDenied = errors.New("access denied")
	// ErrImportTooSmall signals an import with fewer rows than the configured minimum.
	ErrImportTooSmall = errors.New("import below minimum row count")
	// ErrEntryTypeMismatch signals a re-import with a different entry type than the list.
	ErrEntryTypeMismatch = errors.New("entry type mismatch")
)

// UnknownFilterFieldError wraps ErrUnknownFilterField with the offending key.
type UnknownFilterFieldError struct {
	Field string
}

func (e *UnknownFilterFieldError) Error() string {
	return fmt.Sprintf("%s: %q is not a searchable field", ErrUnknownFilterField.Error(), e.Field)
}

func (e *UnknownFilterFieldError) Unwrap() error { return ErrUnknownFilterField }

// UnknownAttributeFieldError wraps ErrUnknownAttributeField, citing the source row (1-based).
type UnknownAttributeFieldError struct {
	Row   int
	Field string
}

func (e *UnknownAttributeFieldError) Error() string {
	return fmt.Sprintf("%s: row %d has undeclared attribute %q",
		ErrUnknownAttributeField.Error(), e.Row, e.Field)
}

func (e *UnknownAttributeFieldError) Unwrap() error { return ErrUnknownAttributeField }

// MissingRequiredFieldError wraps ErrMissingRequiredField, citing the source row (1-based).
type MissingRequiredFieldError struct {
	Row   int
	Field string
}

func (e *MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("%s: row %d lacks required attribute %q",
		ErrMissingRequiredField.Error(), e.Row, e.Field)
}

func (e *MissingRequiredFieldError) Unwrap() error { return ErrMissingRequiredField }

// InvalidRowError wraps ErrInvalidRow, citing the source row (1-based) and
// the mapper or validation failure.
type InvalidRowError struct {
	Row   int
	Cause error
}

func (e *InvalidRowError) Error() string {
	return fmt.Sprintf("%s: row %d: %v", ErrInvalidRow.Error(), e.Row, e.Cause)
}

func (e *InvalidRowError) Unwrap() error { return ErrInvalidRow }
