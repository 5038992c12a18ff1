package util

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestHashUserKey(t *testing.T) {
	id := "user-12345"
	got := HashUserKey(id)
	if got != HashUserKey(id) {
		t.Fatalf("expected stable hash, got %s", got)
	}
	if len(got) != 64 || strings.Trim(got, "0123456789abcdef") != "" {
		t.Fatalf("expected 64 lowercase hex characters, got %q", got)
	}
}

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		in, want string
		wantErr  bool
	}{
		{"resume.pdf", "resume.pdf", false},
		{" a/b\\c.pdf ", "a_b_c.pdf", false},
		{"cv\x00\n.pdf", "cv.pdf", false},
		{"../etc/passwd", "", true},
		{"   ", "", true},
		{"\x01\x02", "", true},
	}
	for _, tc := range cases {
		got, err := SanitizeFileName(tc.in)
		if (err != nil) != tc.wantErr || got != tc.want {
			t.Fatalf("SanitizeFileName(%q) = (%q, %v)", tc.in, got, err)
		}
	}
}

func TestSanitizeFileNameCapsLength(t *testing.T) {
	got, err := SanitizeFileName(strings.Repeat("é", 300) + ".docx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if utf8.RuneCountInString(got) != maxFileNameRunes || !strings.HasSuffix(got, ".docx") {
		t.Fatalf("unexpected result %q", got)
	}
}
