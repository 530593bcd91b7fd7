package errors

import (
	"errors"
	"fmt"
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
				Phase:  PhaseRelocate,
				Kind:   KindDuplicateRelocation,
				Path:   []string{".debug_info"},
				Detail: "multiple relocations at offset 0x00000010",
			},
			contains: []string{"[relocate]", "duplicate_relocation", ".debug_info", "0x00000010"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseLoad,
				Kind:  KindMalformedContainer,
			},
			contains: []string{"[load]", "malformed_container"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhasePatch,
				Kind:   KindIO,
				Detail: "rename",
				Cause:  errors.New("permission denied"),
			},
			contains: []string{"[patch]", "io", "rename", "caused by", "permission denied"},
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
		Phase: PhaseLoad,
		Kind:  KindIO,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find cause through Unwrap")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseRelocate,
		Kind:  KindUnresolvedSymbol,
		Path:  []string{".debug_line"},
	}

	if !err.Is(&Error{Phase: PhaseRelocate, Kind: KindUnresolvedSymbol}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseLoad, Kind: KindUnresolvedSymbol}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseRelocate, Kind: KindDuplicateRelocation}) {
		t.Error("Is should not match different kind")
	}
	if !errors.Is(err, ErrUnresolvedSymbol) {
		t.Error("errors.Is should match kind sentinel")
	}
	if errors.Is(err, ErrIO) {
		t.Error("errors.Is should not match other kind sentinel")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseRelocate, KindUnsupportedRelocation).
		Path(".debug_info").
		Value(uint64(16)).
		Cause(cause).
		Detail("relocation type %d", 3).
		Build()

	if err.Phase != PhaseRelocate {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseRelocate)
	}
	if err.Kind != KindUnsupportedRelocation {
		t.Errorf("Kind = %v, want %v", err.Kind, KindUnsupportedRelocation)
	}
	if len(err.Path) != 1 || err.Path[0] != ".debug_info" {
		t.Errorf("Path = %v, want [.debug_info]", err.Path)
	}
	if err.Value != uint64(16) {
		t.Errorf("Value = %v, want 16", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "relocation type 3" {
		t.Errorf("Detail = %q, want 'relocation type 3'", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("MalformedContainer", func(t *testing.T) {
		err := MalformedContainer(PhaseLoad, "bad magic", nil)
		if err.Kind != KindMalformedContainer {
			t.Errorf("Kind = %v, want %v", err.Kind, KindMalformedContainer)
		}
	})

	t.Run("MissingSection", func(t *testing.T) {
		err := MissingSection(PhaseLoad, "code", "no code section")
		if err.Kind != KindMissingSection {
			t.Errorf("Kind = %v, want %v", err.Kind, KindMissingSection)
		}
		if err.Path[0] != "code" {
			t.Errorf("Path = %v, want [code]", err.Path)
		}
	})

	t.Run("UnsupportedRelocation", func(t *testing.T) {
		err := UnsupportedRelocation(".debug_info", 0x20, "R_WASM_TABLE_INDEX_SLEB")
		if err.Kind != KindUnsupportedRelocation {
			t.Errorf("Kind = %v, want %v", err.Kind, KindUnsupportedRelocation)
		}
		if !strings.Contains(err.Error(), "0x00000020") {
			t.Errorf("Error() = %q, should contain offset", err.Error())
		}
	})

	t.Run("DuplicateRelocation", func(t *testing.T) {
		err := DuplicateRelocation(".debug_line", 4)
		if err.Kind != KindDuplicateRelocation || err.Value != uint64(4) {
			t.Errorf("got %+v", err)
		}
	})

	t.Run("UnresolvedSymbol", func(t *testing.T) {
		err := UnresolvedSymbol(".debug_info", 8, 99)
		if err.Kind != KindUnresolvedSymbol || err.Value != uint32(99) {
			t.Errorf("got %+v", err)
		}
	})

	t.Run("Overflow", func(t *testing.T) {
		err := Overflow(PhasePosition, uint64(1)<<40, "uint32")
		if err.Kind != KindOverflow {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOverflow)
		}
	})

	t.Run("IO", func(t *testing.T) {
		cause := errors.New("no such file")
		err := IO(PhasePatch, "/tmp/x.wasm", cause)
		if err.Kind != KindIO || !errors.Is(err, cause) {
			t.Errorf("got %+v", err)
		}
		if !strings.Contains(err.Error(), "/tmp/x.wasm") {
			t.Errorf("Error() = %q, should contain path", err.Error())
		}
	})

	t.Run("DebugInfo", func(t *testing.T) {
		err := DebugInfo(PhasePosition, "read compile unit", errors.New("truncated"))
		if !errors.Is(err, ErrDebugInfo) {
			t.Error("errors.Is should match ErrDebugInfo")
		}
	})
}

func TestIsAs(t *testing.T) {
	inner := Overflow(PhasePosition, int64(1)<<40, "int32 line")
	wrapped := fmt.Errorf("build: %w", inner)

	if !Is(wrapped, ErrOverflow) {
		t.Error("Is did not find overflow through wrapping")
	}
	if Is(wrapped, ErrIO) {
		t.Error("Is matched the wrong kind")
	}

	e, ok := As(wrapped)
	if !ok || e != inner {
		t.Fatalf("As = %v, %v", e, ok)
	}
	if _, ok := As(errors.New("plain")); ok {
		t.Error("As matched a plain error")
	}
}
