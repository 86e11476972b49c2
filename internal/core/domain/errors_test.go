package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"ErrNotFound", ErrNotFound, "not found"},
		{"ErrInvalidInput", ErrInvalidInput, "invalid input"},
		{"ErrUnauthorized", ErrUnauthorized, "unauthorized"},
		{"ErrForbidden", ErrForbidden, "forbidden"},
		{"ErrSyncInProgress", ErrSyncInProgress, "sync already running for this window"},
		{"ErrNoStoresConfigured", ErrNoStoresConfigured, "no stores configured"},
		{"ErrTokenExpired", ErrTokenExpired, "token expired"},
		{"ErrTokenInvalid", ErrTokenInvalid, "token invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.msg {
				t.Errorf("expected %q, got %q", tt.msg, tt.err.Error())
			}
		})
	}
}

func TestErrorsAreDistinct(t *testing.T) {
	allErrors := []error{
		ErrNotFound,
		ErrInvalidInput,
		ErrUnauthorized,
		ErrForbidden,
		ErrSyncInProgress,
		ErrNoStoresConfigured,
		ErrTokenExpired,
		ErrTokenInvalid,
	}

	for i, err1 := range allErrors {
		for j, err2 := range allErrors {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("errors should be distinct: %v and %v", err1, err2)
			}
		}
	}
}

func TestConfigurationError(t *testing.T) {
	var err error = &ConfigurationError{Store: StoreSaron2}
	wrapped := fmt.Errorf("fetch: %w", err)

	var cfgErr *ConfigurationError
	if !errors.As(wrapped, &cfgErr) {
		t.Fatal("expected errors.As to find ConfigurationError")
	}
	if cfgErr.Store != StoreSaron2 {
		t.Errorf("expected store saron2, got %s", cfgErr.Store)
	}
	if !strings.Contains(err.Error(), "saron2") {
		t.Errorf("expected message to name the store, got %q", err.Error())
	}
}

func TestAuthenticationError_Unwrap(t *testing.T) {
	cause := errors.New("status 401")
	err := &AuthenticationError{Store: StoreSaron1, Err: cause}

	if !errors.Is(err, cause) {
		t.Error("expected AuthenticationError to unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "saron1") {
		t.Errorf("expected message to name the store, got %q", err.Error())
	}

	bare := &AuthenticationError{Store: StoreSaron3}
	if bare.Error() != "dapic authentication failed for store saron3" {
		t.Errorf("unexpected message %q", bare.Error())
	}
}

func TestTransportError(t *testing.T) {
	cause := errors.New("connection reset")
	err := &TransportError{Store: StoreSaron1, Endpoint: "/v1/vendaspdv", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("expected TransportError to unwrap to its cause")
	}
	msg := err.Error()
	if !strings.Contains(msg, "/v1/vendaspdv") || !strings.Contains(msg, "saron1") {
		t.Errorf("expected store and endpoint in message, got %q", msg)
	}
}

func TestRecordNormalizationError(t *testing.T) {
	err := &RecordNormalizationError{SaleCode: "V-10", Reason: "insert failed", Err: errors.New("duplicate key")}
	if err.Error() != "sale record rejected (V-10): insert failed: duplicate key" {
		t.Errorf("unexpected message %q", err.Error())
	}

	noCode := &RecordNormalizationError{Reason: "missing sale code"}
	if noCode.Error() != "sale record rejected: missing sale code" {
		t.Errorf("unexpected message %q", noCode.Error())
	}
}
