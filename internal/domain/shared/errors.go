package shared

import (
	"errors"
	"fmt"
)

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

// Ship-related errors

type ShipError struct {
	*DomainError
}

func NewShipError(message string) *ShipError {
	return &ShipError{DomainError: &DomainError{Message: message}}
}

type InvalidNavStatusError struct {
	*ShipError
}

func NewInvalidNavStatusError(message string) *InvalidNavStatusError {
	return &InvalidNavStatusError{ShipError: NewShipError(message)}
}

type InsufficientFuelError struct {
	*ShipError
	Required  int
	Available int
}

func NewInsufficientFuelError(required, available int) *InsufficientFuelError {
	return &InsufficientFuelError{
		ShipError: NewShipError(fmt.Sprintf("insufficient fuel: need %d, have %d", required, available)),
		Required:  required,
		Available: available,
	}
}

type InvalidShipDataError struct {
	*ShipError
}

func NewInvalidShipDataError(message string) *InvalidShipDataError {
	return &InvalidShipDataError{ShipError: NewShipError(message)}
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

// §7 error kinds. RemoteApi, Database, Serialization and Io wrap an
// external failure; NotEnoughFunds, InvalidEnumValue and InvalidTimestamp
// are raised by the core itself.

// RemoteApiError normalizes a game API failure, preserving its documented
// numeric error code when one was returned.
type RemoteApiError struct {
	Status  int
	Code    int
	Message string
}

func (e *RemoteApiError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("remote api error: status=%d code=%d: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("remote api error: status=%d: %s", e.Status, e.Message)
}

func NewRemoteApiError(status, code int, message string) *RemoteApiError {
	return &RemoteApiError{Status: status, Code: code, Message: message}
}

// IsRateLimited reports whether this error is a transient 429 response.
func (e *RemoteApiError) IsRateLimited() bool { return e.Status == 429 }

// NotEnoughFundsError aborts the current work item; its reserved fund
// (if any) must transition to Cancelled.
type NotEnoughFundsError struct {
	Have int64
	Need int64
}

func (e *NotEnoughFundsError) Error() string {
	return fmt.Sprintf("not enough funds: have %d, need %d", e.Have, e.Need)
}

func NewNotEnoughFundsError(have, need int64) *NotEnoughFundsError {
	return &NotEnoughFundsError{Have: have, Need: need}
}

type InvalidEnumValueError struct {
	Field string
	Value string
}

func (e *InvalidEnumValueError) Error() string {
	return fmt.Sprintf("invalid enum value for %s: %q", e.Field, e.Value)
}

func NewInvalidEnumValueError(field, value string) *InvalidEnumValueError {
	return &InvalidEnumValueError{Field: field, Value: value}
}

type InvalidTimestampError struct {
	Raw string
}

func (e *InvalidTimestampError) Error() string {
	return fmt.Sprintf("invalid timestamp: %q", e.Raw)
}

func NewInvalidTimestampError(raw string) *InvalidTimestampError {
	return &InvalidTimestampError{Raw: raw}
}

type DatabaseError struct{ *DomainError }

func NewDatabaseError(message string) *DatabaseError {
	return &DatabaseError{DomainError: &DomainError{Message: message}}
}

type SerializationError struct{ *DomainError }

func NewSerializationError(message string) *SerializationError {
	return &SerializationError{DomainError: &DomainError{Message: message}}
}

type IoError struct{ *DomainError }

func NewIoError(message string) *IoError {
	return &IoError{DomainError: &DomainError{Message: message}}
}

// GeneralError is used for the cancellation-propagation case (§7):
// cancellation of a pilot cycle is surfaced as General("cancelled").
type GeneralError struct{ *DomainError }

func NewGeneralError(message string) *GeneralError {
	return &GeneralError{DomainError: &DomainError{Message: message}}
}

// ErrCancelled is the sentinel a pilot cycle must distinguish from other
// errors via the cancellation token, per §7.
var ErrCancelled = NewGeneralError("cancelled")

// IsCancelled reports whether err is (or wraps) ErrCancelled.
func IsCancelled(err error) bool {
	var g *GeneralError
	return errors.As(err, &g) && g.Message == ErrCancelled.Message
}
