package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorMessageIncludesCause(t *testing.T) {
	err := Wrap(CodeProviderFailure, "read boss", stderrors.New("timeout"))
	if got := err.Error(); got != "read boss: timeout" {
		t.Fatalf("Error() = %q, want %q", got, "read boss: timeout")
	}
	if got := New(CodeNoCharacter, "no character").Error(); got != "no character" {
		t.Fatalf("Error() = %q, want %q", got, "no character")
	}
}

func TestCodeOfWalksChain(t *testing.T) {
	inner := New(CodeTxReverted, "reverted")
	wrapped := fmt.Errorf("attack: %w", inner)

	if got := CodeOf(wrapped); got != CodeTxReverted {
		t.Fatalf("CodeOf() = %q, want %q", got, CodeTxReverted)
	}
	if got := CodeOf(stderrors.New("plain")); got != CodeUnknown {
		t.Fatalf("CodeOf(plain) = %q, want %q", got, CodeUnknown)
	}
	if got := CodeOf(nil); got != "" {
		t.Fatalf("CodeOf(nil) = %q, want empty", got)
	}
}

func TestHasCodeMatchesByCode(t *testing.T) {
	err := fmt.Errorf("mint: %w", Wrap(CodeUserRejected, "denied", stderrors.New("4001")))
	if !HasCode(err, CodeUserRejected) {
		t.Fatal("expected USER_REJECTED match")
	}
	if HasCode(err, CodeTxReverted) {
		t.Fatal("unexpected TX_REVERTED match")
	}
}

func TestSeverity(t *testing.T) {
	tests := []struct {
		code Code
		want Severity
	}{
		{CodeUserRejected, SeverityInfo},
		{CodeCharacterDefeated, SeverityWarning},
		{CodeWrongChain, SeverityWarning},
		{CodeTxReverted, SeverityError},
		{CodeProviderMissing, SeverityError},
	}
	for _, tt := range tests {
		if got := tt.code.Severity(); got != tt.want {
			t.Fatalf("%s.Severity() = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestRetryable(t *testing.T) {
	if !CodeTxDroppedOrReplaced.Retryable() {
		t.Fatal("expected dropped tx to be retryable")
	}
	if CodeProviderMissing.Retryable() {
		t.Fatal("expected missing provider to be terminal")
	}
}
