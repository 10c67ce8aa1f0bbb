package security

import (
	"strings"
	"testing"
)

func TestSanitizeName_TrimsSurroundingWhitespace(t *testing.T) {
	s := NewFieldSanitizer()

	got := s.SanitizeName("  Jane  ")
	if got != "Jane" {
		t.Errorf("SanitizeName = %q, want %q", got, "Jane")
	}
}

func TestSanitizeName_TruncatesTo100Runes(t *testing.T) {
	s := NewFieldSanitizer()

	long := strings.Repeat("a", 150)
	got := s.SanitizeName(long)
	if len([]rune(got)) != 100 {
		t.Errorf("length = %d, want 100", len([]rune(got)))
	}
	if got != strings.Repeat("a", 100) {
		t.Error("truncated value should be the first 100 characters")
	}
}

func TestSanitizeName_TruncatesMultibyteByRunes(t *testing.T) {
	s := NewFieldSanitizer()

	long := strings.Repeat("あ", 150)
	got := s.SanitizeName(long)
	if len([]rune(got)) != 100 {
		t.Errorf("rune length = %d, want 100", len([]rune(got)))
	}
	if got != strings.Repeat("あ", 100) {
		t.Error("multibyte characters must not be split mid-rune")
	}
}

func TestSanitizeName_StripsHTML(t *testing.T) {
	s := NewFieldSanitizer()

	got := s.SanitizeName(`<script>alert("x")</script>Jane`)
	if strings.Contains(got, "<") || strings.Contains(got, "script") {
		t.Errorf("SanitizeName = %q, should not contain markup", got)
	}
	if !strings.Contains(got, "Jane") {
		t.Errorf("SanitizeName = %q, should keep plain text", got)
	}
}

func TestSanitizeName_PreservesApostrophes(t *testing.T) {
	s := NewFieldSanitizer()

	got := s.SanitizeName("O'Brien")
	if got != "O'Brien" {
		t.Errorf("SanitizeName = %q, want %q", got, "O'Brien")
	}
}

func TestSanitizeName_EmptyInput_ReturnsEmpty(t *testing.T) {
	s := NewFieldSanitizer()

	if got := s.SanitizeName(""); got != "" {
		t.Errorf("SanitizeName = %q, want empty", got)
	}
	if got := s.SanitizeName("   "); got != "" {
		t.Errorf("SanitizeName(whitespace) = %q, want empty", got)
	}
}

func TestClampAge_BelowMinimum_ReturnsZero(t *testing.T) {
	if got := ClampAge(-5); got != 0 {
		t.Errorf("ClampAge(-5) = %d, want 0", got)
	}
}

func TestClampAge_AboveMaximum_Returns150(t *testing.T) {
	if got := ClampAge(999); got != 150 {
		t.Errorf("ClampAge(999) = %d, want 150", got)
	}
}

func TestClampAge_InRange_Unchanged(t *testing.T) {
	if got := ClampAge(42); got != 42 {
		t.Errorf("ClampAge(42) = %d, want 42", got)
	}
	if got := ClampAge(0); got != 0 {
		t.Errorf("ClampAge(0) = %d, want 0", got)
	}
	if got := ClampAge(150); got != 150 {
		t.Errorf("ClampAge(150) = %d, want 150", got)
	}
}
