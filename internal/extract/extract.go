// Package extract finds error text in unstructured tool output and derives
// stable dedup keys from it. Tool output is multi-line and noisy (tracebacks,
// compiler diagnostics, test runners), so extraction is line-triggered with a
// bounded capture window rather than structured parsing.
package extract

import "strings"

const (
	// maxCaptureLines bounds the line-capture path.
	maxCaptureLines = 10
	// fallbackBefore/fallbackAfter bound the window returned when a pattern
	// matches mid-string but never on a full line scan.
	fallbackBefore = 200
	fallbackAfter  = 500
)

// Extractor detects error text in tool output using a pattern catalog.
type Extractor struct {
	catalog *Catalog
}

// New creates an Extractor. A nil catalog falls back to the default one.
func New(catalog *Catalog) *Extractor {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Extractor{catalog: catalog}
}

// Extract returns the most relevant error text from output, or ok=false when
// no pattern matches. Once a line matches any pattern, that line and every
// following line are captured until the input ends or maxCaptureLines are
// collected.
func (e *Extractor) Extract(output string) (string, bool) {
	lines := strings.Split(strings.TrimSpace(output), "\n")

	var captured []string
	capture := false
	for _, line := range lines {
		if !capture {
			for _, p := range e.catalog.patterns {
				if p.Match(line) {
					capture = true
					break
				}
			}
		}
		if capture {
			captured = append(captured, line)
			if len(captured) >= maxCaptureLines {
				break
			}
		}
	}

	if len(captured) > 0 {
		return strings.Join(captured, "\n"), true
	}

	// Fallback: a pattern may match mid-string without owning a full line
	// pass (e.g. single-line output with no trailing newline structure).
	for _, p := range e.catalog.patterns {
		if start, end, ok := p.Find(output); ok {
			lo := start - fallbackBefore
			if lo < 0 {
				lo = 0
			}
			hi := end + fallbackAfter
			if hi > len(output) {
				hi = len(output)
			}
			return strings.TrimSpace(output[lo:hi]), true
		}
	}

	return "", false
}
