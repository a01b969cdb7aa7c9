package tree

// ApplyBaseline computes per-metric deltas on the current report
// against a prior snapshot. Nodes match strictly by fully-qualified
// name at each level: unmatched current nodes keep a nil delta (new
// symbol), unmatched baseline nodes are ignored (removed symbol).
// A nil baseline is a no-op, leaving every delta nil.
//
// Deltas are exact decimal subtraction, current minus baseline.
func ApplyBaseline(current, baseline *Report) {
	if baseline == nil || baseline.Solution == nil || current == nil {
		return
	}
	diffNode(current.Solution, baseline.Solution)
}

func diffNode(cur, base *Node) {
	if cur.FullyQualifiedName != base.FullyQualifiedName {
		return
	}

	for id, v := range cur.Metrics {
		if v.Value == nil {
			continue
		}
		bv, ok := base.Metrics[id]
		if !ok || bv.Value == nil {
			continue
		}
		d := v.Value.Sub(*bv.Value)
		v.Delta = &d
	}

	for _, bc := range base.Children {
		if cc := cur.Child(bc.Name); cc != nil {
			diffNode(cc, bc)
		}
	}
}
