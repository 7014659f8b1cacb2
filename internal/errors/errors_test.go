package errors

import (
	"errors"
	"testing"
)

type codedError struct {
	Code string
}

func (e codedError) Error() string { return e.Code }

func TestWrap(t *testing.T) {
	base := errors.New("cache miss")

	t.Run("wrap non-nil error", func(t *testing.T) {
		wrapped := Wrap(base, "load profile")
		if wrapped == nil {
			t.Fatal("expected wrapped error, got nil")
		}
		if wrapped.Error() != "load profile: cache miss" {
			t.Errorf("unexpected message: %s", wrapped.Error())
		}
		if !errors.Is(wrapped, base) {
			t.Error("expected wrapped error to wrap base")
		}
	})

	t.Run("wrap nil error", func(t *testing.T) {
		if wrapped := Wrap(nil, "load profile"); wrapped != nil {
			t.Errorf("expected nil, got %v", wrapped)
		}
	})
}

func TestWrapf(t *testing.T) {
	base := errors.New("cache miss")

	wrapped := Wrapf(base, "subject %s", "u1")
	if wrapped == nil {
		t.Fatal("expected wrapped error, got nil")
	}
	if wrapped.Error() != "subject u1: cache miss" {
		t.Errorf("unexpected message: %s", wrapped.Error())
	}
	if !errors.Is(wrapped, base) {
		t.Error("expected wrapped error to wrap base")
	}

	if wrapped := Wrapf(nil, "subject %s", "u1"); wrapped != nil {
		t.Errorf("expected nil, got %v", wrapped)
	}
}

func TestIs(t *testing.T) {
	wrapped := Wrap(ErrTooManyRequests, "login")
	if !Is(wrapped, ErrTooManyRequests) {
		t.Error("expected wrapped ErrTooManyRequests to match sentinel")
	}
	if Is(wrapped, ErrUnauthorized) {
		t.Error("expected ErrTooManyRequests NOT to match ErrUnauthorized")
	}
}

func TestAs(t *testing.T) {
	coded := codedError{Code: "invalid_code"}
	wrapped := Wrap(coded, "mfa verify")

	var target codedError
	if !As(wrapped, &target) {
		t.Fatal("expected to extract codedError from chain")
	}
	if target.Code != "invalid_code" {
		t.Errorf("unexpected code: %s", target.Code)
	}
}
