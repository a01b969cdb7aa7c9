package symbol

import (
	"regexp"
	"strings"
)

// AssemblyFilter excludes assemblies whose name contains any of the
// configured patterns. Matching is case-insensitive substring.
type AssemblyFilter struct {
	patterns []string
}

// NewAssemblyFilter builds a filter from a comma- or semicolon-
// separated pattern list. Empty segments are ignored.
func NewAssemblyFilter(spec string) *AssemblyFilter {
	f := &AssemblyFilter{}
	for _, p := range splitPatterns(spec) {
		f.patterns = append(f.patterns, strings.ToLower(p))
	}
	return f
}

// ShouldExclude reports whether the assembly name matches a pattern.
func (f *AssemblyFilter) ShouldExclude(name string) bool {
	lower := strings.ToLower(name)
	for _, p := range f.patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// NameFilter excludes type or member names matching wildcard
// patterns. '*' matches any run, '?' a single character; matching is
// case-sensitive against either the plain name or the full FQN.
type NameFilter struct {
	res []*regexp.Regexp
}

// NewNameFilter builds a wildcard filter from a comma- or semicolon-
// separated pattern list.
func NewNameFilter(spec string) *NameFilter {
	f := &NameFilter{}
	for _, p := range splitPatterns(spec) {
		f.res = append(f.res, wildcardToRegexp(p))
	}
	return f
}

// ShouldExclude reports whether the name matches any pattern. The
// whole string must match.
func (f *NameFilter) ShouldExclude(name string) bool {
	for _, re := range f.res {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

func splitPatterns(spec string) []string {
	var out []string
	for _, p := range strings.FieldsFunc(spec, func(r rune) bool {
		return r == ',' || r == ';'
	}) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func wildcardToRegexp(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}
