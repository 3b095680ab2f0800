package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:    PhaseExtract,
				Kind:     KindTypeError,
				Path:     []string{"numel", "t"},
				GoType:   "*tensor.Tensor",
				HostType: "list",
				Detail:   "expected a tensor, got list",
			},
			contains: []string{"[extract]", "type_error", "numel.t", "*tensor.Tensor", "host type list", "expected a tensor, got list"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseRuntime,
				Kind:  KindInvalidHandle,
			},
			contains: []string{"[runtime]", "invalid_handle"},
		},
		{
			name: "host type only",
			err: &Error{
				Phase:    PhaseExtract,
				Kind:     KindTypeError,
				HostType: "int",
			},
			contains: []string{": host type int"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseNative,
				Kind:   KindValueError,
				Detail: "wrap failed",
				Cause:  errors.New("heap exhausted"),
			},
			contains: []string{"[native]", "value_error", "wrap failed", "caused by", "heap exhausted"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseNative,
		Kind:  KindValueError,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase:    PhaseExtract,
		Kind:     KindTypeError,
		HostType: "int",
	}

	if !err.Is(&Error{Phase: PhaseExtract, Kind: KindTypeError}) {
		t.Error("Is should match same phase and kind")
	}

	if err.Is(&Error{Phase: PhaseNative, Kind: KindTypeError}) {
		t.Error("Is should not match different phase")
	}

	if err.Is(&Error{Phase: PhaseExtract, Kind: KindValueError}) {
		t.Error("Is should not match different kind")
	}

	var target *Error
	if !errors.As(error(err), &target) || target.HostType != "int" {
		t.Error("errors.As should recover *Error")
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("TypeError", func(t *testing.T) {
		err := TypeError(PhaseExtract, nil, "tensor", "list")
		if err.Kind != KindTypeError {
			t.Errorf("Kind = %v, want %v", err.Kind, KindTypeError)
		}
		if err.HostType != "list" {
			t.Errorf("HostType = %v", err.HostType)
		}
		if !strings.Contains(err.Error(), "expected a tensor, got list") {
			t.Errorf("message = %q", err.Error())
		}
	})

	t.Run("ValueError", func(t *testing.T) {
		cause := errors.New("boom")
		err := ValueError(PhaseNative, "boom", cause)
		if err.Kind != KindValueError || err.Cause != cause {
			t.Errorf("unexpected %+v", err)
		}
	})

	t.Run("AllocationFailed", func(t *testing.T) {
		err := AllocationFailed(PhaseNative, "host object", nil)
		if err.Kind != KindAllocation {
			t.Errorf("Kind = %v, want %v", err.Kind, KindAllocation)
		}
		if !strings.Contains(err.Detail, "host object") {
			t.Errorf("Detail = %v", err.Detail)
		}
	})

	t.Run("InvalidHandle", func(t *testing.T) {
		cause := errors.New("dead")
		err := InvalidHandle(PhaseHost, 7, cause)
		if err.Kind != KindInvalidHandle || err.Value != uint32(7) {
			t.Errorf("unexpected %+v", err)
		}
		if !errors.Is(err, cause) {
			t.Error("errors.Is should reach the cause")
		}
	})

	t.Run("OutOfBounds", func(t *testing.T) {
		err := OutOfBounds(PhaseHost, []string{"dim"}, 10, 5)
		if err.Kind != KindOutOfBounds {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOutOfBounds)
		}
		if err.Value != 10 {
			t.Errorf("Value = %v, want 10", err.Value)
		}
	})

	t.Run("NilPointer", func(t *testing.T) {
		err := NilPointer(PhaseInject, "*tensor.Tensor")
		if err.Kind != KindNilPointer || err.GoType != "*tensor.Tensor" {
			t.Errorf("unexpected %+v", err)
		}
	})

	t.Run("Registration", func(t *testing.T) {
		err := Registration(PhaseRuntime, "tensor type", "int", errors.New("dup"))
		if !strings.Contains(err.Error(), `register tensor type "int"`) {
			t.Errorf("message = %q", err.Error())
		}
	})

	t.Run("NotInitialized", func(t *testing.T) {
		cause := errors.New("closed")
		err := NotInitialized(PhaseNative, "heap", cause)
		if err.Detail != "heap not initialized" {
			t.Errorf("Detail = %q", err.Detail)
		}
		if !errors.Is(err, cause) {
			t.Error("errors.Is should reach the cause")
		}
	})
}
