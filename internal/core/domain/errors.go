package domain

import (
	"errors"
	"fmt"
)

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the caller lacks permission for this action
	ErrForbidden = errors.New("forbidden")

	// ErrSyncInProgress indicates a sync for the same store and window is already running
	ErrSyncInProgress = errors.New("sync already running for this window")

	// ErrNoStoresConfigured indicates no store has usable ERP credentials
	ErrNoStoresConfigured = errors.New("no stores configured")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")
)

// ConfigurationError is returned when a store has no registered ERP credentials.
type ConfigurationError struct {
	Store StoreID
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("dapic credentials not configured for store %s", e.Store)
}

// AuthenticationError is returned when the ERP login for a store fails or
// yields an unusable token.
type AuthenticationError struct {
	Store StoreID
	Err   error
}

func (e *AuthenticationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("dapic authentication failed for store %s", e.Store)
	}
	return fmt.Sprintf("dapic authentication failed for store %s: %v", e.Store, e.Err)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// TransportError wraps any HTTP-level failure of an ERP data call.
type TransportError struct {
	Store    StoreID
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("dapic request %s for store %s: %v", e.Endpoint, e.Store, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RecordNormalizationError reports a single external sale that could not be
// converted or persisted. It never aborts a sync run.
type RecordNormalizationError struct {
	SaleCode string
	Reason   string
	Err      error
}

func (e *RecordNormalizationError) Error() string {
	msg := "sale record rejected"
	if e.SaleCode != "" {
		msg += " (" + e.SaleCode + ")"
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RecordNormalizationError) Unwrap() error { return e.Err }
