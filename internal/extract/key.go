package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// maxKeyLen bounds the dedup key. The key is local-only and never sent to
// the remote service.
const maxKeyLen = 200

// Normalization regexes compiled once at package init.
var (
	reSourcePath = regexp.MustCompile(`/[\w./\\-]+\.(py|js|ts|rs|go|rb|java|c|cpp|h)`)
	reLineCol    = regexp.MustCompile(`:\d+:\d+`)
	reLineWord   = regexp.MustCompile(`(?i)line \d+`)
)

// Key derives a session-scoped dedup key from raw error text. Two error
// texts that differ only in file paths or line numbers map to the same key.
// Key is a pure function of its input.
func Key(text string) string {
	cleaned := reSourcePath.ReplaceAllString(text, "<FILE>")
	cleaned = reLineCol.ReplaceAllString(cleaned, ":<N>")
	cleaned = reLineWord.ReplaceAllString(cleaned, "line <N>")
	cleaned = truncate(cleaned, maxKeyLen)
	return strings.ToLower(strings.TrimSpace(cleaned))
}

// truncate shortens s to at most maxBytes without splitting UTF-8 runes.
func truncate(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	for maxBytes > 0 && !utf8.RuneStart(s[maxBytes]) {
		maxBytes--
	}
	return s[:maxBytes]
}
