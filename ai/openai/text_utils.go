package openai

import "strings"

// cleanReply trims whitespace and strips a markdown code fence wrapped
// around the whole reply.
func cleanReply(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop a language tag on the opening fence line
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && isTag(s[:nl]) {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// isTag returns true if s is empty or consists only of ASCII letters.
func isTag(s string) bool {
	for _, r := range s {
		if !isLetter(r) {
			return false
		}
	}
	return true
}

// isLetter returns true if the rune is an ASCII letter.
func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
