package tree

import (
	"github.com/unbound-force/tally/internal/metric"
	"github.com/unbound-force/tally/internal/suppress"
	"github.com/unbound-force/tally/internal/threshold"
)

// Evaluate recomputes the threshold status of every metric value in
// the report and flags suppressed violations. Statuses are terminal
// classifications: each call fully replaces the previous one, never
// partially updates.
func Evaluate(r *Report, table *threshold.Table, sup *suppress.Set) {
	if table == nil {
		table = threshold.NewTable()
	}
	if sup == nil {
		sup = suppress.NewSet(nil)
	}

	r.Solution.Walk(func(n *Node) {
		for id, v := range n.Metrics {
			v.Status = threshold.Evaluate(v.Value, table.Lookup(id, n.Kind))

			if e, ok := sup.Match(n.FullyQualifiedName, id); ok {
				v.Suppressed = true
				v.Justification = e.Justification
			} else {
				v.Suppressed = false
				v.Justification = ""
			}

			suppressRules(n.FullyQualifiedName, v, sup)
		}
	})
}

// suppressRules applies per-rule suppressions to a SARIF breakdown. A
// rule entry silences only its own rows; the metric as a whole rolls
// up as suppressed once every rule in the breakdown is.
func suppressRules(fqn string, v *Value, sup *suppress.Set) {
	if len(v.Breakdown) == 0 {
		return
	}
	all := true
	for ruleID, entry := range v.Breakdown {
		if e, ok := sup.MatchRule(fqn, ruleID); ok {
			entry.Suppressed = true
			entry.Justification = e.Justification
		} else {
			entry.Suppressed = false
			entry.Justification = ""
			all = false
		}
	}
	if all && !v.Suppressed {
		v.Suppressed = true
	}
}

// WorstStatus returns the most severe status found anywhere in the
// report, counting suppressed violations as passing unless
// includeSuppressed is set.
func WorstStatus(r *Report, includeSuppressed bool) metric.Status {
	worst := metric.StatusNotApplicable
	r.Solution.Walk(func(n *Node) {
		for _, v := range n.Metrics {
			if v.Suppressed && !includeSuppressed {
				continue
			}
			if v.Status.Severity() > worst.Severity() {
				worst = v.Status
			}
		}
	})
	return worst
}
