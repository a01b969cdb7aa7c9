// Package query answers read-side questions over an already-built
// metrics report. Queries are pure: they never mutate the report and
// carry no state between calls.
package query

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/unbound-force/tally/internal/errs"
	"github.com/unbound-force/tally/internal/metric"
	"github.com/unbound-force/tally/internal/source"
	"github.com/unbound-force/tally/internal/tree"
)

// Options narrows a violation query.
type Options struct {
	// Namespace is a fully-qualified-name prefix. Empty matches all.
	Namespace string

	// Metric restricts the query to one metric. Empty matches all.
	Metric metric.ID

	// Kind restricts matches to type or member nodes. Empty means
	// both, with types ordered before members.
	Kind metric.Kind

	// All returns every match instead of the single most severe.
	All bool

	// IncludeSuppressed counts suppressed violations as violations.
	IncludeSuppressed bool
}

// Violation is one metric in warning or error state on one symbol.
type Violation struct {
	FullyQualifiedName string           `json:"fullyQualifiedName"`
	Kind               metric.Kind      `json:"kind"`
	Metric             metric.ID        `json:"metric"`
	Value              *decimal.Decimal `json:"value,omitempty"`
	Delta              *decimal.Decimal `json:"delta,omitempty"`
	Status             metric.Status    `json:"status"`
	Suppressed         bool             `json:"suppressed,omitempty"`
	Justification      string           `json:"justification,omitempty"`
	Location           *source.Location `json:"location,omitempty"`
}

// Result is the outcome of a ReadAny query. An empty result is a
// successful query that found nothing, reported distinctly from
// success with data.
type Result struct {
	Violations []Violation `json:"violations"`
	Message    string      `json:"message,omitempty"`
}

// NoViolationsMessage is the payload text for an empty query result.
const NoViolationsMessage = "no violations found"

// Empty reports whether the query matched nothing.
func (r *Result) Empty() bool { return len(r.Violations) == 0 }

// ReadAny returns the violations matching opts: the single most
// severe one, or all of them when opts.All is set. Ordering is
// severity first, then largest absolute delta, then types before
// members, then name.
func ReadAny(rep *tree.Report, opts Options) *Result {
	var out []Violation

	rep.Solution.Walk(func(n *tree.Node) {
		if !matchNode(n, opts) {
			return
		}
		for id, v := range n.Metrics {
			if opts.Metric != "" && id != opts.Metric {
				continue
			}
			if !violating(v, opts.IncludeSuppressed) {
				continue
			}
			out = append(out, violationOf(n, id, v))
		}
	})

	sortViolations(out)
	if !opts.All && len(out) > 1 {
		out = out[:1]
	}

	res := &Result{Violations: out}
	if res.Empty() {
		res.Message = NoViolationsMessage
	}
	return res
}

// TestResult is the outcome of a single-symbol check.
type TestResult struct {
	IsOk    bool       `json:"isOk"`
	Details *Violation `json:"details,omitempty"`
}

// Test checks a single symbol by exact fully-qualified name. The
// check passes when the symbol is absent, when its status is passing,
// or when the violation is suppressed and suppressed values are not
// counted. Prefix matching never applies here.
func Test(rep *tree.Report, fqn string, id metric.ID, includeSuppressed bool) TestResult {
	node := rep.Find(fqn)
	if node == nil {
		return TestResult{IsOk: true}
	}
	v, ok := node.Metrics[id]
	if !ok || !violating(v, includeSuppressed) {
		return TestResult{IsOk: true}
	}
	detail := violationOf(node, id, v)
	return TestResult{IsOk: false, Details: &detail}
}

func matchNode(n *tree.Node, opts Options) bool {
	switch n.Kind {
	case metric.KindType, metric.KindMember:
	default:
		return false
	}
	if opts.Kind != "" && n.Kind != opts.Kind {
		return false
	}
	if opts.Namespace != "" && !strings.HasPrefix(n.FullyQualifiedName, opts.Namespace) {
		return false
	}
	return true
}

func violating(v *tree.Value, includeSuppressed bool) bool {
	if v.Status != metric.StatusWarning && v.Status != metric.StatusError {
		return false
	}
	if v.Suppressed && !includeSuppressed {
		return false
	}
	return true
}

func violationOf(n *tree.Node, id metric.ID, v *tree.Value) Violation {
	return Violation{
		FullyQualifiedName: n.FullyQualifiedName,
		Kind:               n.Kind,
		Metric:             id,
		Value:              v.Value,
		Delta:              v.Delta,
		Status:             v.Status,
		Suppressed:         v.Suppressed,
		Justification:      v.Justification,
		Location:           n.Location,
	}
}

func sortViolations(out []Violation) {
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Status.Severity() != b.Status.Severity() {
			return a.Status.Severity() > b.Status.Severity()
		}
		da, db := absDelta(a.Delta), absDelta(b.Delta)
		if !da.Equal(db) {
			return da.GreaterThan(db)
		}
		if a.Kind != b.Kind {
			return a.Kind == metric.KindType
		}
		if a.FullyQualifiedName != b.FullyQualifiedName {
			return a.FullyQualifiedName < b.FullyQualifiedName
		}
		return a.Metric < b.Metric
	})
}

func absDelta(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return d.Abs()
}

// GroupBy selects the grouping axis for SARIF queries.
type GroupBy string

const (
	GroupByRule      GroupBy = "Rule"
	GroupByMethod    GroupBy = "Method"
	GroupByType      GroupBy = "Type"
	GroupByNamespace GroupBy = "Namespace"
)

// ParseGroupBy interprets a user-supplied grouping name.
func ParseGroupBy(s string) (GroupBy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "rule", "ruleid":
		return GroupByRule, nil
	case "method", "member":
		return GroupByMethod, nil
	case "type":
		return GroupByType, nil
	case "namespace":
		return GroupByNamespace, nil
	default:
		return "", errs.Validation("unknown group-by %q (want rule, method, type, or namespace)", s)
	}
}
