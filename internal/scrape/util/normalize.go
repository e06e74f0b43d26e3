package util

import "strings"

// CleanText collapses whitespace (including nbsp) the way rendered innerText reads.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

// OrDefault returns the cleaned value, or def when nothing is left.
func OrDefault(s, def string) string {
	if c := CleanText(s); c != "" {
		return c
	}
	return def
}
