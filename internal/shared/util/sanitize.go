package util

import (
	"errors"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const maxErrorMessageLen = 500

// ErrInvalidFileName marks a client file name with nothing usable left after sanitizing.
var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName replaces path separators and control characters. The result is a
// display name only; it is never used as a path on disk.
func SanitizeFileName(name string) (string, error) {
	s := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, name)
	s = strings.TrimSpace(s)
	if s == "" || strings.Trim(s, ".") == "" {
		return "", ErrInvalidFileName
	}
	return s, nil
}

// Extension returns the lower-cased extension of name including the dot.
func Extension(name string) string {
	return strings.ToLower(filepath.Ext(strings.TrimSpace(name)))
}

// SanitizeErrorMessage flattens err into a single line capped at 500 bytes.
func SanitizeErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	if len(msg) > maxErrorMessageLen {
		msg = msg[:maxErrorMessageLen]
		for !utf8.ValidString(msg) {
			msg = msg[:len(msg)-1]
		}
	}
	return msg
}
