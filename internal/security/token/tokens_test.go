package tokens

import (
	"strings"
	"testing"
)

func TestGenerateClientSecret(t *testing.T) {
	a, err := GenerateClientSecret()
	if err != nil {
		t.Fatalf("GenerateClientSecret: %v", err)
	}
	b, err := GenerateClientSecret()
	if err != nil {
		t.Fatalf("GenerateClientSecret: %v", err)
	}
	if a == b {
		t.Fatalf("two secrets should differ")
	}
	// 32 bytes -> 43 chars base64url sin padding.
	if len(a) != 43 {
		t.Fatalf("len = %d", len(a))
	}
	if strings.ContainsAny(a, "+/=") {
		t.Fatalf("secret is not URL-safe: %q", a)
	}
}

func TestConstantTimeEquals(t *testing.T) {
	if !ConstantTimeEquals("abc", "abc") {
		t.Fatalf("equal strings should match")
	}
	if ConstantTimeEquals("abc", "abd") || ConstantTimeEquals("abc", "abcd") || ConstantTimeEquals("", "a") {
		t.Fatalf("different strings should not match")
	}
	if !ConstantTimeEquals("", "") {
		t.Fatalf("empty strings should match")
	}
}
