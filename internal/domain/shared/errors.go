// Package shared contains common domain types, errors, and events that are
// used across all domain packages.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation    = errors.New("validation error")
	ErrInvalidID     = errors.New("invalid ID")
	ErrInvalidInput  = errors.New("invalid input")
	ErrEmptyValue    = errors.New("value cannot be empty")
	ErrNegativeValue = errors.New("value cannot be negative")

	// State errors
	ErrInvalidState = errors.New("invalid state")
	ErrDisabled     = errors.New("feature disabled")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "progression", "reward", "moderation"
	Op      string // Operation that failed, e.g., "Advance", "Sync"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Identity errors
var (
	ErrInvalidCommunityID = NewDomainError("shared", "Validate", ErrInvalidID, "invalid community ID")
	ErrInvalidUserID      = NewDomainError("shared", "Validate", ErrInvalidID, "invalid user ID")
	ErrInvalidChannelID   = NewDomainError("shared", "Validate", ErrInvalidID, "invalid channel ID")
	ErrInvalidRoleID      = NewDomainError("shared", "Validate", ErrInvalidID, "invalid role ID")
)

// Progression domain errors
var (
	ErrLevelingDisabled = NewDomainError("progression", "Check", ErrDisabled, "leveling is disabled for this community")
	ErrRecordNotFound   = NewDomainError("progression", "Get", ErrNotFound, "progression record not found")
	ErrStoreUnavailable = NewDomainError("progression", "Store", ErrServiceUnavailable, "progression store unavailable")
	ErrInvalidExpGain   = NewDomainError("progression", "Advance", ErrInvalidInput, "exp gain must be positive")
)

// Reward domain errors
var (
	ErrRoleUnresolvable = NewDomainError("reward", "Resolve", ErrNotFound, "reward role no longer exists")
	ErrRewardSyncFailed = NewDomainError("reward", "Sync", ErrExternalService, "reward synchronization failed")
)

// Notification errors
var (
	ErrNotificationFailed = NewDomainError("notification", "Send", ErrExternalService, "failed to deliver notification")
)

// Moderation domain errors
var (
	ErrSelfWarn        = NewDomainError("moderation", "Warn", ErrInvalidInput, "cannot warn yourself")
	ErrWarningNotFound = NewDomainError("moderation", "Find", ErrNotFound, "warning not found")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDisabled checks if the error is a feature-disabled error.
func IsDisabled(err error) bool {
	return errors.Is(err, ErrDisabled)
}

// IsExternalService checks if the error came from an external collaborator.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable)
}
