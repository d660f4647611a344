// Package matcher compiles the glob and regular expression patterns accepted
// by the --filter flag and the q query parameter. Both forms compile to a
// single regexp so a glob star also crosses the slashes of route paths.
package matcher

import (
	"fmt"
	"regexp"
	"strings"
)

// PatternType selects how a pattern is interpreted.
type PatternType int

const (
	// Glob uses shell-style wildcards (*, ?, []).
	Glob PatternType = iota
	// Regex uses Go regular expressions.
	Regex
	// Auto picks Regex when the pattern contains regex-only syntax.
	Auto
)

// String returns the name of the pattern type.
func (pt PatternType) String() string {
	switch pt {
	case Glob:
		return "glob"
	case Regex:
		return "regex"
	case Auto:
		return "auto"
	default:
		return "unknown"
	}
}

// ParsePatternType maps a flag value to a PatternType.
func ParsePatternType(s string) (PatternType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return Auto, nil
	case "glob":
		return Glob, nil
	case "regex", "regexp":
		return Regex, nil
	default:
		return Auto, fmt.Errorf("unknown pattern type %q", s)
	}
}

// Matcher tests strings against one compiled pattern. It is safe for
// concurrent use.
type Matcher struct {
	pattern     string
	patternType PatternType
	re          *regexp.Regexp
}

// New compiles pattern. A glob without wildcards matches as a substring, so
// "leave" finds "ess_leave" and "/admin/leave". Matching ignores case unless
// caseSensitive is set.
func New(patternType PatternType, pattern string, caseSensitive bool) (*Matcher, error) {
	if patternType == Auto {
		patternType = detect(pattern)
	}

	var expr string
	switch patternType {
	case Glob:
		if strings.ContainsAny(pattern, "*?[") {
			expr = GlobToRegex(pattern)
		} else {
			expr = regexp.QuoteMeta(pattern)
		}
	case Regex:
		expr = pattern
	default:
		return nil, fmt.Errorf("unsupported pattern type: %v", patternType)
	}
	if !caseSensitive && !strings.HasPrefix(expr, "(?i)") {
		expr = "(?i)" + expr
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid %s pattern %q: %w", patternType, pattern, err)
	}
	return &Matcher{pattern: pattern, patternType: patternType, re: re}, nil
}

// MustNew is New for patterns known at compile time.
func MustNew(patternType PatternType, pattern string) *Matcher {
	m, err := New(patternType, pattern, false)
	if err != nil {
		panic(err)
	}
	return m
}

// Match reports whether input matches.
func (m *Matcher) Match(input string) bool {
	return m.re.MatchString(input)
}

// MatchAny reports whether any input matches.
func (m *Matcher) MatchAny(inputs ...string) bool {
	for _, in := range inputs {
		if m.Match(in) {
			return true
		}
	}
	return false
}

// Pattern returns the source pattern.
func (m *Matcher) Pattern() string {
	return m.pattern
}

// Type returns the resolved pattern type.
func (m *Matcher) Type() PatternType {
	return m.patternType
}

func detect(pattern string) PatternType {
	for _, indicator := range []string{"^", "$", `\d`, `\w`, `\s`, "(?", "{", "+", "|", "(", ".*"} {
		if strings.Contains(pattern, indicator) {
			return Regex
		}
	}
	return Glob
}

// GlobToRegex converts a glob into an anchored regular expression.
func GlobToRegex(glob string) string {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(glob); i++ {
		switch c := glob[i]; c {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		case '[':
			end := strings.IndexByte(glob[i+1:], ']')
			if end < 0 {
				b.WriteString(`\[`)
				continue
			}
			class := glob[i+1 : i+1+end]
			if strings.HasPrefix(class, "!") {
				class = "^" + class[1:]
			}
			b.WriteString("[" + class + "]")
			i += end + 1
		case '\\':
			if i+1 < len(glob) {
				i++
				b.WriteString(regexp.QuoteMeta(string(glob[i])))
			}
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteString("$")
	return b.String()
}
