package core

import (
	"strings"
	"testing"
)

func TestNewPaymentRef(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		ref := NewPaymentRef()
		if !strings.HasPrefix(ref, "pr_") {
			t.Fatalf("expected pr_ prefix, got %q", ref)
		}
		if len(ref) < 10 {
			t.Fatalf("suspiciously short ref %q", ref)
		}
		if seen[ref] {
			t.Fatalf("duplicate ref %q", ref)
		}
		seen[ref] = true
	}
}
