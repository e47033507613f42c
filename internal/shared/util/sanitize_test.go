package util

import (
	"errors"
	"strings"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	got, err := SanitizeFileName("  cv/final\\v2.pdf ")
	if err != nil {
		t.Fatalf("SanitizeFileName: %v", err)
	}
	if got != "cv_final_v2.pdf" {
		t.Fatalf("unexpected name: %q", got)
	}
	cases := map[string]string{
		"Jane.Doe..Resume.pdf": "Jane.Doe..Resume.pdf",
		"../etc/passwd.pdf":    ".._etc_passwd.pdf",
		"cv\tfinal.docx":      "cvfinal.docx",
	}
	for in, want := range cases {
		got, err := SanitizeFileName(in)
		if err != nil {
			t.Fatalf("SanitizeFileName(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", in, got, want)
		}
	}
	for _, bad := range []string{"", "   ", "..", " . "} {
		if _, err := SanitizeFileName(bad); !errors.Is(err, ErrInvalidFileName) {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestExtension(t *testing.T) {
	cases := map[string]string{
		"resume.PDF": ".pdf",
		"a.b.docx":   ".docx",
		"noext":      "",
		" old.Doc ":  ".doc",
	}
	for in, want := range cases {
		if got := Extension(in); got != want {
			t.Fatalf("Extension(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizeErrorMessage(t *testing.T) {
	if got := SanitizeErrorMessage(nil); got != "" {
		t.Fatalf("expected empty message for nil, got %q", got)
	}
	got := SanitizeErrorMessage(errors.New("line one\nline two\r\n"))
	if got != "line one line two" {
		t.Fatalf("unexpected message: %q", got)
	}
	long := SanitizeErrorMessage(errors.New(strings.Repeat("é", 400)))
	if len(long) > maxErrorMessageLen {
		t.Fatalf("expected message capped at %d bytes, got %d", maxErrorMessageLen, len(long))
	}
	if !strings.HasPrefix(long, "é") || strings.HasSuffix(long, "\xc3") {
		t.Fatalf("expected cap on a rune boundary")
	}
}
