// ABOUTME: Preview derivation for conversation list rendering
// ABOUTME: Truncates the latest message content to a short summary string

package preview

import "unicode/utf8"

// Sentinel is the preview shown for a conversation with no messages yet.
// Callers must treat it as "empty", never as real message content.
const Sentinel = "No messages yet"

// maxLen is the number of characters kept before truncation.
const maxLen = 50

// ellipsis marks a truncated preview.
const ellipsis = "..."

// Derive computes the preview string for the given message content.
// Content longer than 50 characters is cut at 50 and suffixed with "...";
// shorter content is returned verbatim. Empty content yields the sentinel.
func Derive(content string) string {
	if content == "" {
		return Sentinel
	}
	if utf8.RuneCountInString(content) <= maxLen {
		return content
	}
	runes := []rune(content)
	return string(runes[:maxLen]) + ellipsis
}
