package extract

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Pattern is a single error-indicator rule in the catalog.
type Pattern struct {
	Name string
	re   *regexp.Regexp
}

// Match reports whether the pattern matches anywhere in s.
func (p Pattern) Match(s string) bool {
	return p.re.MatchString(s)
}

// Find returns the byte offsets of the first match in s, or ok=false.
func (p Pattern) Find(s string) (start, end int, ok bool) {
	loc := p.re.FindStringIndex(s)
	if loc == nil {
		return 0, 0, false
	}
	return loc[0], loc[1], true
}

// Catalog is an ordered set of error-indicator patterns. The default catalog
// covers common runtimes and build tools; hosts can extend it from a YAML file.
type Catalog struct {
	patterns []Pattern
}

// DefaultCatalog returns the built-in error-indicator patterns.
func DefaultCatalog() *Catalog {
	mk := func(name, expr string) Pattern {
		return Pattern{Name: name, re: regexp.MustCompile(expr)}
	}
	return &Catalog{patterns: []Pattern{
		mk("python-traceback", `(?i)Traceback \(most recent call last\)`),
		mk("error-prefix", `(?i)(?:Error|Exception|FAILED|FATAL):`),
		mk("rust-error-code", `(?i)error\[E\d+\]`),
		mk("node-error-code", `ERR_[A-Z_]+`),
		mk("posix-errno", `ECONNREFUSED|ENOENT|EACCES|EPERM`),
		mk("python-exception", `ModuleNotFoundError|ImportError|SyntaxError|TypeError|ValueError`),
		mk("typescript-error", `error TS\d+:`),
		mk("test-failure", `(?i)FAILED.*tests?|tests? FAILED`),
		mk("build-failure", `(?i)Build failed|Compilation failed|Cannot find module`),
	}}
}

// catalogFile mirrors the YAML shape of a pattern catalog file.
type catalogFile struct {
	Patterns []catalogEntry `yaml:"patterns"`
}

type catalogEntry struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
}

// ExtendFromFile appends patterns from a YAML file to the catalog. Entries
// that fail to compile are skipped with a warning so one bad rule cannot
// disable error watching.
func (c *Catalog) ExtendFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading pattern catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing pattern catalog: %w", err)
	}

	for _, e := range file.Patterns {
		re, err := regexp.Compile(e.Pattern)
		if err != nil {
			slog.Warn("skipping invalid error pattern", "name", e.Name, "pattern", e.Pattern, "error", err)
			continue
		}
		c.patterns = append(c.patterns, Pattern{Name: e.Name, re: re})
	}
	return nil
}

// Len returns the number of patterns in the catalog.
func (c *Catalog) Len() int {
	return len(c.patterns)
}
