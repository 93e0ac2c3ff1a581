package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeMissingData, "missing commit on %s", "core")

	if err.Code != ErrCodeMissingData {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeMissingData)
	}

	if err.Message != "missing commit on core" {
		t.Errorf("Message = %v, want %v", err.Message, "missing commit on core")
	}

	expected := "MISSING_DATA: missing commit on core"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("exit status 1")
	err := Wrap(ErrCodeVCS, cause, "failed to push")

	if err.Code != ErrCodeVCS {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeVCS)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	if unwrapped := errors.Unwrap(err); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeConflict, "test"),
			code:     ErrCodeConflict,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeConflict, "test"),
			code:     ErrCodeVCS,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeVCS, New(ErrCodeMissingData, "inner"), "outer"),
			code:     ErrCodeVCS,
			expected: true,
		},
		{
			name:     "fmt wrapped",
			err:      fmt.Errorf("context: %w", New(ErrCodeNotFound, "inner")),
			code:     ErrCodeNotFound,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidInput,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidInput,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{"Error type", New(ErrCodePrecondition, "test"), ErrCodePrecondition},
		{"plain error", errors.New("plain"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"Error type", New(ErrCodeInvalidInput, "friendly message"), "friendly message"},
		{"wrapped", Wrap(ErrCodeVCS, errors.New("exit status 128"), "failed to clone core"), "failed to clone core: exit status 128"},
		{"plain error", errors.New("plain error"), "plain error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestConflictError(t *testing.T) {
	err := &ConflictError{
		Package:  "lib",
		Property: "commit",
		First:    "app",
		FirstVal: "aaa",
		Other:    "tool",
		OtherVal: "bbb",
	}

	msg := err.Error()
	for _, want := range []string{"app", "tool", "aaa", "bbb", "lib"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}

	if err.Code() != ErrCodeConflict {
		t.Errorf("Code() = %v, want %v", err.Code(), ErrCodeConflict)
	}

	if !IsConflict(fmt.Errorf("checkout: %w", err)) {
		t.Error("IsConflict should see through wrapping")
	}
	if IsConflict(errors.New("other")) {
		t.Error("IsConflict(plain) = true, want false")
	}
}
