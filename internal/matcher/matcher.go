// Package matcher matches property terms against the patterns template
// settings use to name editable and fillable terms, e.g. "dcterms:*" or
// "^bibo:(isbn|issn)$". A pattern is a regex when it carries regex syntax,
// otherwise a shell-style glob; a plain term is a glob matching itself.
package matcher

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

// Kind is how a pattern is interpreted.
type Kind int

const (
	// Glob uses shell-style glob patterns (*, ?, []).
	Glob Kind = iota
	// Regex uses regular expressions, unanchored unless the pattern says so.
	Regex
)

// String returns a string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case Glob:
		return "glob"
	case Regex:
		return "regex"
	default:
		return "unknown"
	}
}

var regexIndicators = []string{
	"^", "$", "\\d", "\\w", "\\s",
	"(?:", "(?i)", "{", "}", "+", "|", "(", ")",
}

// Detect reports the kind a pattern is compiled as.
func Detect(pattern string) Kind {
	for _, indicator := range regexIndicators {
		if strings.Contains(pattern, indicator) {
			return Regex
		}
	}
	return Glob
}

// Pattern is a compiled term pattern.
type Pattern struct {
	source string
	kind   Kind
	re     *regexp.Regexp
}

// Compile compiles pattern as the kind Detect gives it.
func Compile(pattern string) (*Pattern, error) {
	p := &Pattern{source: pattern, kind: Detect(pattern)}
	switch p.kind {
	case Regex:
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern %q: %w", pattern, err)
		}
		p.re = re
	default:
		if _, err := path.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}
	}
	return p, nil
}

// Match reports whether term matches the pattern.
func (p *Pattern) Match(term string) bool {
	if p.kind == Regex {
		return p.re.MatchString(term)
	}
	ok, _ := path.Match(p.source, term)
	return ok
}

// Kind returns how the pattern was compiled.
func (p *Pattern) Kind() Kind {
	return p.kind
}

// String returns the source pattern.
func (p *Pattern) String() string {
	return p.source
}

// Set matches a term against any of several patterns.
type Set []*Pattern

// CompileSet compiles every pattern.
func CompileSet(patterns []string) (Set, error) {
	set := make(Set, 0, len(patterns))
	for _, pattern := range patterns {
		p, err := Compile(pattern)
		if err != nil {
			return nil, err
		}
		set = append(set, p)
	}
	return set, nil
}

// Match reports whether any pattern matches term.
func (s Set) Match(term string) bool {
	for _, p := range s {
		if p.Match(term) {
			return true
		}
	}
	return false
}
