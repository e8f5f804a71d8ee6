package store

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes store failures.
type ErrorCode string

const (
	// ErrCodeFarmerNotFound indicates a farm references a farmer that does not exist.
	ErrCodeFarmerNotFound ErrorCode = "FARMER_NOT_FOUND"

	// ErrCodeStorage indicates the database rejected or failed an operation.
	// The transaction was rolled back.
	ErrCodeStorage ErrorCode = "STORAGE"

	// ErrCodeUnsupported indicates the entity does not support the operation.
	ErrCodeUnsupported ErrorCode = "UNSUPPORTED"
)

// Error is a failed store operation. Nothing it attempted was applied.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// IsFarmerNotFound returns true if err is a missing farmer error.
// Uses errors.As to handle wrapped errors.
func IsFarmerNotFound(err error) bool {
	return hasCode(err, ErrCodeFarmerNotFound)
}

// IsStorage returns true if err is a database failure.
func IsStorage(err error) bool {
	return hasCode(err, ErrCodeStorage)
}

// IsUnsupported returns true if the operation is not defined for the entity.
func IsUnsupported(err error) bool {
	return hasCode(err, ErrCodeUnsupported)
}

func hasCode(err error, code ErrorCode) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

func storageError(op string, err error) *Error {
	return &Error{Code: ErrCodeStorage, Message: op, Err: err}
}

func farmerNotFound(name string) *Error {
	return &Error{Code: ErrCodeFarmerNotFound, Message: fmt.Sprintf("farmer %q not found", name)}
}

func unsupported(op, entity string) *Error {
	return &Error{Code: ErrCodeUnsupported, Message: fmt.Sprintf("%s does not support %s", entity, op)}
}
