// Package logutil holds helpers for putting untrusted values into log lines.
package logutil

import "unicode/utf8"

// TruncateForLog shortens s to at most maxLen runes, appending "..." when
// anything was cut. It never splits a multi-byte character.
func TruncateForLog(s string, maxLen int) string {
	if maxLen <= 0 {
		return "..."
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}

	n := 0
	for i := range s {
		if n == maxLen {
			return s[:i] + "..."
		}
		n++
	}
	return s
}
