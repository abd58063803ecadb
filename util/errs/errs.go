// Package errs holds the error taxonomy shared by services, repositories and
// transports. Controllers switch on Code(err) to pick a response.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

type ErrCode string

const (
	CodeNotFound    ErrCode = "NOT_FOUND"
	CodeConflict    ErrCode = "CONFLICT"
	CodeValidation  ErrCode = "VALIDATION"
	CodePersistence ErrCode = "PERSISTENCE"
)

// Entity names used in NotFoundError.
const (
	EntityLibrary = "library"
	EntityBook    = "book"
	EntityMember  = "member"
	EntityLoan    = "loan"
)

// NotFoundError reports a referenced row that does not exist.
type NotFoundError struct {
	Entity string
	ID     int64
}

func NotFound(entity string, id int64) error { return &NotFoundError{Entity: entity, ID: id} }

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s %d not found", e.Entity, e.ID) }
func (e *NotFoundError) Code() ErrCode { return CodeNotFound }

// ConflictError reports an invariant violation.
type ConflictError struct {
	Reason string
}

func Conflict(reason string) error { return &ConflictError{Reason: reason} }

func (e *ConflictError) Error() string { return "conflict: " + e.Reason }
func (e *ConflictError) Code() ErrCode { return CodeConflict }

// Reasons surfaced by the loan lifecycle.
const (
	ReasonBookOnLoan       = "book already on loan"
	ReasonLibraryMismatch  = "book does not belong to library"
	ReasonHasActiveLoans   = "active loans reference this record"
	ReasonLoansOnBook      = "book has loans; its library cannot change"
	ReasonReferencedByLoan = "record is referenced by loans"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries per-field messages for caller-correctable input.
type ValidationError struct {
	Fields []FieldError
}

// Invalid builds a single-field ValidationError.
func Invalid(field, msg string) error {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: msg}}}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
func (e *ValidationError) Code() ErrCode { return CodeValidation }

// Add appends a field error.
func (e *ValidationError) Add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
}

// OrNil returns e when it holds at least one field error.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// PersistenceError wraps a storage failure. Transient failures may be retried by the caller.
type PersistenceError struct {
	Op        string
	Err       error
	Transient bool
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}
func (e *PersistenceError) Code() ErrCode { return CodePersistence }
func (e *PersistenceError) Unwrap() error { return e.Err }

// Persistence wraps err unless it already carries a code.
func Persistence(op string, err error, transient bool) error {
	if err == nil {
		return nil
	}
	if Code(err) != "" {
		return err
	}
	return &PersistenceError{Op: op, Err: err, Transient: transient}
}

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// IsTransient reports whether err is a retryable storage failure.
func IsTransient(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe) && pe.Transient
}

func IsNotFound(err error) bool { return Code(err) == CodeNotFound }
func IsConflict(err error) bool { return Code(err) == CodeConflict }
