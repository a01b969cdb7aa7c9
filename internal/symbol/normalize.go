// Package symbol canonicalizes fully-qualified symbol names so that
// coverage, static-analysis, and lint tools reporting the same symbol
// under different spellings merge into one identity, and provides the
// name-pattern filters applied before tree insertion.
//
// Canonical scheme (cross-tool identity is brittle by construction,
// so one convention is fixed here): nested types use "." rather than
// "+", generic parameter lists collapse to backtick arity (List`1),
// and method parameter lists collapse to the "(...)" placeholder.
// Compiler-generated wrappers (async state machines, lambda display
// classes, property backing fields) resolve to the user-visible name.
package symbol

import (
	"regexp"
	"strconv"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

var (
	// <MoveNext>d__3, <Run>b__2_1 — state machine / lambda wrappers.
	generatedWrapperRe = regexp.MustCompile(`<(\w+)>[a-z]__\d+(?:_\d+)?`)

	// <Prop>k__BackingField — auto-property backing fields.
	backingFieldRe = regexp.MustCompile(`<(\w+)>k__BackingField`)

	// .<>c, .<>c__DisplayClass2_0 — synthesized closure containers.
	displayClassRe = regexp.MustCompile(`\.?<>[^.()<>]*`)
)

// Normalize returns the canonical fully-qualified name for a raw
// symbol name as reported by any of the supported tools. It is total
// and deterministic: names that cannot be interpreted pass through
// unchanged (with a warning) rather than failing, and the function is
// idempotent over its own output.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return s
	}

	// IL-style names carry a return type and use "::" between type
	// and member: "System.Void Ns.Type::Method(System.Int32)".
	if idx := strings.Index(s, "::"); idx >= 0 {
		if sp := strings.LastIndex(s[:idx], " "); sp >= 0 {
			s = s[sp+1:]
		}
		s = strings.Replace(s, "::", ".", 1)
	}

	// Nested type separator.
	s = strings.ReplaceAll(s, "+", ".")

	// Compiler-generated wrappers resolve to the source-level name.
	s = generatedWrapperRe.ReplaceAllString(s, "$1")
	s = backingFieldRe.ReplaceAllString(s, "$1")
	s = displayClassRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "..", ".")

	// Parameter list first: its contents may hold generic commas that
	// must not count toward arity.
	s, balanced := collapseParams(s)
	if !balanced {
		charmlog.Warn("unparseable symbol name left as-is", "name", raw)
		return strings.TrimSpace(raw)
	}

	s, balanced = collapseGenerics(s)
	if !balanced {
		charmlog.Warn("unparseable symbol name left as-is", "name", raw)
		return strings.TrimSpace(raw)
	}

	return s
}

// collapseParams replaces a trailing method parameter list with the
// "(...)" placeholder. Reports false when parentheses are unbalanced.
func collapseParams(s string) (string, bool) {
	open := strings.Index(s, "(")
	if open < 0 {
		return s, !strings.Contains(s, ")")
	}
	close := strings.LastIndex(s, ")")
	if close < open {
		return s, false
	}
	return s[:open] + "(...)" + s[close+1:], true
}

// collapseGenerics rewrites every generic parameter group to backtick
// arity: "Dictionary<TKey, TValue>" becomes "Dictionary`2". Nested
// groups count as a single argument of the enclosing group. Reports
// false when angle brackets are unbalanced.
func collapseGenerics(s string) (string, bool) {
	if !strings.ContainsAny(s, "<>") {
		return s, true
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); {
		c := s[i]
		if c == '>' {
			return s, false
		}
		if c != '<' {
			b.WriteByte(c)
			i++
			continue
		}

		depth := 0
		args := 1
		j := i
		for ; j < len(s); j++ {
			switch s[j] {
			case '<':
				depth++
			case '>':
				depth--
			case ',':
				if depth == 1 {
					args++
				}
			}
			if depth == 0 {
				break
			}
		}
		if depth != 0 {
			return s, false
		}
		// Empty group "<>" survived the generated-name cleanup only
		// if it is genuinely unparseable.
		if j == i+1 {
			return s, false
		}
		b.WriteString("`")
		b.WriteString(strconv.Itoa(args))
		i = j + 1
	}

	return b.String(), true
}
