package random

import (
	"testing"
)

func TestCode_Length(t *testing.T) {
	t.Parallel()

	for i := 0; i < 50; i++ {
		code, err := Code(6)
		if err != nil {
			t.Fatalf("Code error: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("non-digit in code %q", code)
			}
		}
	}
}
