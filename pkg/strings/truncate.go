package strings

import (
	"strings"
)

// DefaultMaxLen is the default maximum length for payloads and error messages
// shown in tables and console output.
const DefaultMaxLen = 60

// MinTruncateLen is the smallest maxLen Truncate honours. Anything shorter
// would not leave room for one character plus "...".
const MinTruncateLen = 4

// SingleLine collapses every run of whitespace (including newlines) into a
// single space.
func SingleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate shortens s to at most maxLen runes, collapsing it to a single line
// first and appending "..." when anything was cut.
func Truncate(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}

	s = SingleLine(s)

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}
