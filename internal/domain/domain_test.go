package domain

import (
	"strings"
	"testing"
)

func TestParseEmail_Valid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Email
	}{
		{"simple", "test@example.com", "test@example.com"},
		{"short domain", "a@b.co", "a@b.co"},
		{"normalized case", "Alice@EXAMPLE.com", "alice@example.com"},
		{"trimmed", "  alice@example.com  ", "alice@example.com"},
		{"plus tag", "alice+tag@example.com", "alice+tag@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEmail(tt.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestParseEmail_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"no at sign", "testexample.com"},
		{"no local part", "@example.com"},
		{"no domain", "test@"},
		{"bare domain", "test@example"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseEmail(tt.raw); err == nil {
				t.Errorf("expected error for %q", tt.raw)
			}
		})
	}
}

func TestParsePassword(t *testing.T) {
	if _, err := ParsePassword("Str0ng!Pass", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParsePassword("short", nil); err == nil {
		t.Error("expected error for short password")
	}
	// A stricter pluggable policy is honored.
	strict := MinLengthPolicy(20)
	if _, err := ParsePassword("Str0ng!Pass", strict); err == nil {
		t.Error("expected strict policy to reject an 11-char password")
	}
}

func TestNewChallengeCode_Shape(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := NewChallengeCode()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := ParseChallengeCode(code); err != nil {
			t.Fatalf("generated code %q failed validation: %v", code, err)
		}
		if code < "100000" || code > "999999" {
			t.Fatalf("code %q outside [100000, 999999]", code)
		}
	}
}

func TestParseChallengeCode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"too short", "12345"},
		{"too long", "1234567"},
		{"letters", "12a456"},
		{"empty", ""},
		{"spaces", "123 56"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseChallengeCode(tt.raw); err == nil {
				t.Errorf("expected error for %q", tt.raw)
			}
		})
	}
}

func TestChallengeID_RoundTrip(t *testing.T) {
	id := NewChallengeID()
	parsed, err := ParseChallengeID(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed != id {
		t.Errorf("expected %q, got %q", id, parsed)
	}
}

func TestParseChallengeID_Invalid(t *testing.T) {
	if _, err := ParseChallengeID("not-a-uuid"); err == nil {
		t.Error("expected error for malformed id")
	}
	if _, err := ParseChallengeID(strings.Repeat("a", 36)); err == nil {
		t.Error("expected error for wrong-shape id")
	}
}

func TestNewChallengeID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewChallengeID()
		if seen[id] {
			t.Fatalf("challenge id collision after %d iterations", i)
		}
		seen[id] = true
	}
}
