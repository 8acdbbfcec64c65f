package token

import (
	"strings"
	"testing"
)

func TestGenerateLength(t *testing.T) {
	// 32 random bytes encode to 43 base64url characters without padding.
	tok, err := Generate(DefaultBytes)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(tok) != 43 {
		t.Errorf("len = %d, want 43", len(tok))
	}
}

func TestGenerateClampsBelowMin(t *testing.T) {
	// Anything under 16 bytes is raised to 16, which encodes to 22 chars.
	for _, n := range []int{-5, 0, 1, 15} {
		tok, err := Generate(n)
		if err != nil {
			t.Fatalf("generate(%d): %v", n, err)
		}
		if len(tok) != 22 {
			t.Errorf("generate(%d) len = %d, want 22", n, len(tok))
		}
	}
}

func TestGenerateClampsAboveMax(t *testing.T) {
	// Anything over 128 bytes is lowered to 128, which encodes to 171 chars.
	tok, err := Generate(4096)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(tok) != 171 {
		t.Errorf("len = %d, want 171", len(tok))
	}
}

func TestGenerateURLSafeAlphabet(t *testing.T) {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	for i := 0; i < 50; i++ {
		tok, err := Generate(DefaultBytes)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		for _, c := range tok {
			if !strings.ContainsRune(alphabet, c) {
				t.Fatalf("token contains non-url-safe character %q", c)
			}
		}
	}
}

func TestGenerateUnique(t *testing.T) {
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		tok, err := Generate(DefaultBytes)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if _, dup := seen[tok]; dup {
			t.Fatalf("duplicate token after %d draws", i)
		}
		seen[tok] = struct{}{}
	}
}
