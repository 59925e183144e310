package random

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	s, err := String(32)
	if err != nil {
		t.Fatal(err)
	}
	if len(s) != 32 {
		t.Fatalf("expected 32 characters, got %d", len(s))
	}
	for _, c := range s {
		if !strings.ContainsRune(charset, c) {
			t.Fatalf("unexpected character %q", c)
		}
	}

	o := MustString(32)
	if o == s {
		t.Fatal("two draws returned the same string")
	}
}
