package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestErrorClass_String(t *testing.T) {
	tests := []struct {
		class    ErrorClass
		expected string
	}{
		{ErrorTransient, "transient"},
		{ErrorInvalid, "invalid"},
		{ErrorFatal, "fatal"},
		{ErrorClass(999), "unknown"},
	}

	for _, test := range tests {
		t.Run(test.expected, func(t *testing.T) {
			result := test.class.String()
			if result != test.expected {
				t.Errorf("expected %s, got %s", test.expected, result)
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"fetch failed", ErrFetchFailed, true},
		{"dispatch failed", ErrDispatchFailed, true},
		{"connection timeout", ErrConnectionTimeout, true},
		{"no connection", ErrNoConnection, true},
		{"context deadline exceeded", context.DeadlineExceeded, true},
		{"type mismatch", ErrTypeMismatch, false},
		{"step limit exceeded", ErrStepLimitExceeded, false},
		{"timeout in message", fmt.Errorf("operation timeout occurred"), true},
		{"network error", fmt.Errorf("network connection failed"), true},
		{"classified transient", &ClassifiedError{Class: ErrorTransient, Err: fmt.Errorf("test")}, true},
		{"classified fatal", &ClassifiedError{Class: ErrorFatal, Err: fmt.Errorf("test")}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsTransient(test.err)
			if result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"invalid config", ErrInvalidConfig, true},
		{"missing config", ErrMissingConfig, true},
		{"step limit exceeded", ErrStepLimitExceeded, true},
		{"missing context value", ErrMissingContextValue, true},
		{"fetch failed", ErrFetchFailed, false},
		{"classified fatal", &ClassifiedError{Class: ErrorFatal, Err: fmt.Errorf("test")}, true},
		{"classified transient", &ClassifiedError{Class: ErrorTransient, Err: fmt.Errorf("test")}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsFatal(test.err)
			if result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestIsInvalid(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"malformed definition", ErrMalformedDefinition, true},
		{"duplicate node id", ErrDuplicateNodeID, true},
		{"unknown node id", ErrUnknownNodeID, true},
		{"unknown node type", ErrUnknownNodeType, true},
		{"unresolved start", ErrUnresolvedStart, true},
		{"type mismatch", ErrTypeMismatch, true},
		{"unknown operator", ErrUnknownOperator, true},
		{"fetch failed", ErrFetchFailed, false},
		{"classified invalid", &ClassifiedError{Class: ErrorInvalid, Err: fmt.Errorf("test")}, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsInvalid(test.err)
			if result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorClass
	}{
		{"nil defaults to transient", nil, ErrorTransient},
		{"load error is invalid", ErrUnknownNodeID, ErrorInvalid},
		{"step limit is fatal", ErrStepLimitExceeded, ErrorFatal},
		{"fetch error is transient", ErrFetchFailed, ErrorTransient},
		{"unknown defaults to transient", errors.New("weird"), ErrorTransient},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Classify(test.err); got != test.expected {
				t.Errorf("expected %v, got %v", test.expected, got)
			}
		})
	}
}

func TestWrapHelpers(t *testing.T) {
	base := errors.New("boom")

	wrapped := Wrap(base, "GraphLoader", "Load", "parse definition")
	if !errors.Is(wrapped, base) {
		t.Error("Wrap should preserve the error chain")
	}
	expected := "GraphLoader.Load: parse definition failed: boom"
	if wrapped.Error() != expected {
		t.Errorf("expected %q, got %q", expected, wrapped.Error())
	}

	if Wrap(nil, "x", "y", "z") != nil {
		t.Error("Wrap(nil) should return nil")
	}

	transient := WrapTransient(base, "Source", "Fetch", "read topic")
	if !IsTransient(transient) {
		t.Error("WrapTransient result should classify as transient")
	}
	if !errors.Is(transient, base) {
		t.Error("WrapTransient should preserve the error chain")
	}

	fatal := WrapFatal(base, "Engine", "Run", "resolve node")
	if !IsFatal(fatal) {
		t.Error("WrapFatal result should classify as fatal")
	}

	invalid := WrapInvalid(base, "GraphLoader", "Load", "validate")
	if !IsInvalid(invalid) {
		t.Error("WrapInvalid result should classify as invalid")
	}
}

func TestRetryConfig_ShouldRetry(t *testing.T) {
	rc := DefaultRetryConfig()

	if rc.ShouldRetry(nil, 0) {
		t.Error("nil error should not retry")
	}
	if !rc.ShouldRetry(ErrFetchFailed, 0) {
		t.Error("transient error should retry")
	}
	if rc.ShouldRetry(ErrFetchFailed, rc.MaxRetries) {
		t.Error("should not retry past MaxRetries")
	}
	if rc.ShouldRetry(ErrTypeMismatch, 0) {
		t.Error("invalid error should not retry")
	}
}

func TestRetryConfig_ToRetryConfig(t *testing.T) {
	rc := RetryConfig{
		MaxRetries:    4,
		InitialDelay:  50 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 1.5,
	}

	cfg := rc.ToRetryConfig()
	if cfg.MaxAttempts != 5 {
		t.Errorf("expected 5 total attempts, got %d", cfg.MaxAttempts)
	}
	if cfg.InitialDelay != rc.InitialDelay || cfg.MaxDelay != rc.MaxDelay {
		t.Error("delays should carry over unchanged")
	}
	if !cfg.AddJitter {
		t.Error("jitter should be enabled")
	}
}
