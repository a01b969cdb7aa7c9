package query

import (
	"sort"
	"strings"

	"github.com/unbound-force/tally/internal/metric"
	"github.com/unbound-force/tally/internal/tree"
)

// SarifRow is one rule's findings on one symbol, expanded from the
// breakdown stored on the node.
type SarifRow struct {
	RuleID             string           `json:"ruleId"`
	Description        string           `json:"description,omitempty"`
	FullyQualifiedName string           `json:"fullyQualifiedName"`
	Namespace          string           `json:"namespace,omitempty"`
	TypeName           string           `json:"typeName,omitempty"`
	Count              int              `json:"count"`
	Status             metric.Status    `json:"status"`
	Suppressed         bool             `json:"suppressed,omitempty"`
	Justification      string           `json:"justification,omitempty"`
	Violations         []tree.Violation `json:"violations,omitempty"`
}

// SarifGroup is one bucket of rows under the chosen grouping axis.
type SarifGroup struct {
	Key  string     `json:"key"`
	Rows []SarifRow `json:"rows"`
}

// SarifResult is the outcome of a ReadSarif query.
type SarifResult struct {
	GroupBy GroupBy      `json:"groupBy"`
	Groups  []SarifGroup `json:"groups"`
	Message string       `json:"message,omitempty"`
}

// Empty reports whether the query matched nothing.
func (r *SarifResult) Empty() bool { return len(r.Groups) == 0 }

// SarifOptions narrows a ReadSarif query.
type SarifOptions struct {
	Options

	// RuleID restricts the expansion to one rule.
	RuleID string

	// GroupBy selects the grouping axis. Zero value groups by rule.
	GroupBy GroupBy
}

// ReadSarif filters like ReadAny and then expands each matching
// value's per-rule breakdown into violation rows, grouped by rule,
// method, type, or namespace.
func ReadSarif(rep *tree.Report, opts SarifOptions) *SarifResult {
	groupBy := opts.GroupBy
	if groupBy == "" {
		groupBy = GroupByRule
	}

	var rows []SarifRow
	collectSarifRows(rep.Solution, "", "", opts, &rows)

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Status.Severity() != b.Status.Severity() {
			return a.Status.Severity() > b.Status.Severity()
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.RuleID != b.RuleID {
			return a.RuleID < b.RuleID
		}
		return a.FullyQualifiedName < b.FullyQualifiedName
	})
	if !opts.All && len(rows) > 1 {
		rows = rows[:1]
	}

	res := &SarifResult{GroupBy: groupBy, Groups: groupRows(rows, groupBy)}
	if res.Empty() {
		res.Message = NoViolationsMessage
	}
	return res
}

// collectSarifRows walks the tree carrying the enclosing namespace
// and type names, which the grouping axes need.
func collectSarifRows(n *tree.Node, namespace, typeName string, opts SarifOptions, rows *[]SarifRow) {
	switch n.Kind {
	case metric.KindNamespace:
		namespace = n.FullyQualifiedName
	case metric.KindType:
		typeName = n.FullyQualifiedName
	}

	if matchNode(n, opts.Options) {
		for id, v := range n.Metrics {
			if opts.Metric != "" && id != opts.Metric {
				continue
			}
			if id != metric.SarifCaRuleViolations && id != metric.SarifIdeRuleViolations {
				continue
			}
			if !violating(v, opts.IncludeSuppressed) {
				continue
			}
			ruleIDs := make([]string, 0, len(v.Breakdown))
			for ruleID := range v.Breakdown {
				ruleIDs = append(ruleIDs, ruleID)
			}
			sort.Strings(ruleIDs)

			for _, ruleID := range ruleIDs {
				entry := v.Breakdown[ruleID]
				if opts.RuleID != "" && !strings.EqualFold(opts.RuleID, ruleID) {
					continue
				}
				// Rule-level suppressions drop their rows without
				// touching the metric's other rules.
				if entry.Suppressed && !opts.IncludeSuppressed {
					continue
				}
				justification := entry.Justification
				if justification == "" {
					justification = v.Justification
				}
				*rows = append(*rows, SarifRow{
					RuleID:             ruleID,
					Description:        entry.Description,
					FullyQualifiedName: n.FullyQualifiedName,
					Namespace:          namespace,
					TypeName:           typeName,
					Count:              entry.Count,
					Status:             v.Status,
					Suppressed:         v.Suppressed || entry.Suppressed,
					Justification:      justification,
					Violations:         entry.Violations,
				})
			}
		}
	}

	for _, c := range n.Children {
		collectSarifRows(c, namespace, typeName, opts, rows)
	}
}

func groupRows(rows []SarifRow, groupBy GroupBy) []SarifGroup {
	key := func(r SarifRow) string {
		switch groupBy {
		case GroupByMethod:
			return r.FullyQualifiedName
		case GroupByType:
			return r.TypeName
		case GroupByNamespace:
			return r.Namespace
		default:
			return r.RuleID
		}
	}

	byKey := make(map[string][]SarifRow)
	var order []string
	for _, r := range rows {
		k := key(r)
		if _, ok := byKey[k]; !ok {
			order = append(order, k)
		}
		byKey[k] = append(byKey[k], r)
	}
	sort.Strings(order)

	groups := make([]SarifGroup, 0, len(order))
	for _, k := range order {
		rs := byKey[k]
		sort.SliceStable(rs, func(i, j int) bool {
			if rs[i].Count != rs[j].Count {
				return rs[i].Count > rs[j].Count
			}
			if rs[i].RuleID != rs[j].RuleID {
				return rs[i].RuleID < rs[j].RuleID
			}
			return rs[i].FullyQualifiedName < rs[j].FullyQualifiedName
		})
		groups = append(groups, SarifGroup{Key: k, Rows: rs})
	}
	return groups
}
