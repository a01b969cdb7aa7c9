package tree

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/unbound-force/tally/internal/errs"
	"github.com/unbound-force/tally/internal/metric"
	"github.com/unbound-force/tally/internal/source"
	"github.com/unbound-force/tally/internal/symbol"
)

// BuildOptions configures report assembly.
type BuildOptions struct {
	// SolutionName names the root node. Defaults to "Solution".
	SolutionName string

	// ToolVersion is stamped into report metadata.
	ToolVersion string
}

// globalNamespace holds types that carry no namespace qualifier.
const globalNamespace = "(global)"

// defaultAssembly holds symbols whose source reported no assembly
// and that no other source placed first.
const defaultAssembly = "(default)"

// Build merges the flat elements of all parsed documents into one
// hierarchical report. Documents are processed in input order and
// elements in file order, so node insertion order is deterministic.
//
// Elements that carry an assembly name (coverage, Roslyn) are placed
// first; assembly-less elements (SARIF findings) then join existing
// nodes by fully-qualified name, so the merge does not depend on
// which tool ran first.
//
// The same symbol reported by two different coverage input files is
// an ambiguous coverage source and aborts the build with a validation
// error. Roslyn re-reports overwrite; SARIF findings accumulate into
// per-rule breakdowns.
func Build(docs []*source.Document, opts BuildOptions) (*Report, error) {
	name := opts.SolutionName
	if name == "" {
		name = "Solution"
	}

	b := &builder{
		rep: &Report{
			Metadata: Metadata{
				GeneratedAt:   time.Now().UTC(),
				ToolVersion:   opts.ToolVersion,
				SchemaVersion: SchemaVersion,
			},
			Solution: NewNode(metric.KindSolution, name, name),
		},
		byFQN:        make(map[string]*Node),
		coverageSeen: make(map[string]string),
	}

	for _, doc := range docs {
		b.rep.Metadata.SourceFiles = append(b.rep.Metadata.SourceFiles, doc.SourceFile)
		for k, d := range doc.RuleDescriptions {
			if b.rep.Metadata.RuleDescriptions == nil {
				b.rep.Metadata.RuleDescriptions = make(map[string]source.RuleDescription)
			}
			b.rep.Metadata.RuleDescriptions[k] = d
		}
	}

	// Pass 1: elements that name their assembly.
	for _, doc := range docs {
		for _, e := range doc.Elements {
			if e.Assembly == "" {
				continue
			}
			if err := b.place(doc, e); err != nil {
				return nil, err
			}
		}
	}

	// Pass 2: assembly-less elements join existing symbols.
	for _, doc := range docs {
		for _, e := range doc.Elements {
			if e.Assembly != "" {
				continue
			}
			if err := b.place(doc, e); err != nil {
				return nil, err
			}
		}
	}

	b.attachRuleDescriptions()
	return b.rep, nil
}

type builder struct {
	rep          *Report
	byFQN        map[string]*Node
	coverageSeen map[string]string
}

func (b *builder) place(doc *source.Document, e source.Element) error {
	fqn := symbol.Normalize(e.FQN)
	node := b.locate(e.Kind, e.Assembly, fqn)
	if node == nil {
		return nil
	}

	if doc.Format == source.FormatOpenCover || doc.Format == source.FormatGoCover {
		key := string(e.Kind) + "\x00" + fqn
		if prev, ok := b.coverageSeen[key]; ok && prev != e.SourceFile {
			return errs.Validation(
				"ambiguous coverage source for %q: reported by both %s and %s",
				fqn, prev, e.SourceFile)
		}
		b.coverageSeen[key] = e.SourceFile
	}

	if node.Location == nil && e.Location != nil {
		loc := *e.Location
		node.Location = &loc
	}

	for id, raw := range e.Values {
		v := node.Metric(id)
		switch id {
		case metric.SarifCaRuleViolations, metric.SarifIdeRuleViolations:
			addFinding(v, raw.IntPart(), e)
		default:
			val := raw
			v.Value = &val
		}
	}
	return nil
}

// locate walks or creates the node chain for an element and returns
// the node the element's metrics belong on. Missing intermediate
// containers are synthesized with empty metrics. When the element
// carries no assembly, an existing node with the same identity is
// preferred over creating one under the default assembly.
func (b *builder) locate(kind metric.Kind, assembly, fqn string) *Node {
	if fqn == "" && kind != metric.KindAssembly {
		return nil
	}

	if kind == metric.KindSolution {
		return b.rep.Solution
	}

	if assembly == "" {
		if n, ok := b.byFQN[fqnKey(kind, fqn)]; ok {
			return n
		}
		if n := b.attachToExisting(kind, fqn); n != nil {
			return n
		}
		assembly = defaultAssembly
	}

	asm := b.ensure(b.rep.Solution, metric.KindAssembly, assembly, assembly)

	switch kind {
	case metric.KindAssembly:
		return asm
	case metric.KindNamespace:
		return b.ensure(asm, metric.KindNamespace, fqn, fqn)
	case metric.KindType:
		ns, typeName := splitType(fqn)
		nsNode := b.ensure(asm, metric.KindNamespace, ns, ns)
		return b.ensure(nsNode, metric.KindType, typeName, fqn)
	case metric.KindMember:
		ns, typeName, memberName := splitMember(fqn)
		nsNode := b.ensure(asm, metric.KindNamespace, ns, ns)
		typeFQN := typeName
		if ns != globalNamespace {
			typeFQN = ns + "." + typeName
		}
		typeNode := b.ensure(nsNode, metric.KindType, typeName, typeFQN)
		return b.ensure(typeNode, metric.KindMember, memberName, fqn)
	default:
		return nil
	}
}

// attachToExisting joins an assembly-less element to the tree through
// its nearest existing ancestor, so a finding on a previously unseen
// member of a known type lands under that type's real assembly
// instead of cloning the type chain under the default one.
func (b *builder) attachToExisting(kind metric.Kind, fqn string) *Node {
	switch kind {
	case metric.KindMember:
		ns, typeName, memberName := splitMember(fqn)
		typeFQN := typeName
		if ns != globalNamespace {
			typeFQN = ns + "." + typeName
		}
		if typeNode, ok := b.byFQN[fqnKey(metric.KindType, typeFQN)]; ok {
			return b.ensure(typeNode, metric.KindMember, memberName, fqn)
		}
		if nsNode, ok := b.byFQN[fqnKey(metric.KindNamespace, ns)]; ok {
			typeNode := b.ensure(nsNode, metric.KindType, typeName, typeFQN)
			return b.ensure(typeNode, metric.KindMember, memberName, fqn)
		}
	case metric.KindType:
		ns, typeName := splitType(fqn)
		if nsNode, ok := b.byFQN[fqnKey(metric.KindNamespace, ns)]; ok {
			return b.ensure(nsNode, metric.KindType, typeName, fqn)
		}
	}
	return nil
}

// ensure wraps EnsureChild and keeps the identity index current.
func (b *builder) ensure(parent *Node, kind metric.Kind, name, fqn string) *Node {
	n := parent.EnsureChild(kind, name, fqn)
	b.byFQN[fqnKey(kind, fqn)] = n
	return n
}

func fqnKey(kind metric.Kind, fqn string) string {
	return string(kind) + "\x00" + fqn
}

// splitType splits a canonical type FQN into namespace and type name.
func splitType(fqn string) (ns, typeName string) {
	idx := strings.LastIndex(fqn, ".")
	if idx < 0 {
		return globalNamespace, fqn
	}
	return fqn[:idx], fqn[idx+1:]
}

// splitMember splits a canonical member FQN into namespace, type, and
// member name. The "(...)" parameter placeholder stays on the member
// name and never participates in the split.
func splitMember(fqn string) (ns, typeName, memberName string) {
	base := fqn
	params := ""
	if idx := strings.Index(fqn, "("); idx >= 0 {
		base, params = fqn[:idx], fqn[idx:]
	}
	base = strings.TrimSuffix(base, ".")

	segs := strings.Split(base, ".")
	switch len(segs) {
	case 1:
		return globalNamespace, globalNamespace, segs[0] + params
	case 2:
		return globalNamespace, segs[0], segs[1] + params
	default:
		return strings.Join(segs[:len(segs)-2], "."),
			segs[len(segs)-2],
			segs[len(segs)-1] + params
	}
}

// addFinding accumulates one SARIF result into a value: the count is
// summed and the concrete violation recorded in the rule breakdown.
func addFinding(v *Value, count int64, e source.Element) {
	total := count
	if v.Value != nil {
		total += v.Value.IntPart()
	}
	d := decimal.NewFromInt(total)
	v.Value = &d

	if v.Breakdown == nil {
		v.Breakdown = make(map[string]*RuleBreakdown)
	}
	entry, ok := v.Breakdown[e.RuleID]
	if !ok {
		entry = &RuleBreakdown{}
		v.Breakdown[e.RuleID] = entry
	}
	entry.Count += int(count)

	viol := Violation{Message: e.Message}
	if e.Location != nil {
		viol.FilePath = e.Location.FilePath
		viol.StartLine = e.Location.StartLine
		viol.EndLine = e.Location.EndLine
	}
	entry.Violations = append(entry.Violations, viol)
}

// attachRuleDescriptions copies driver rule texts onto every
// breakdown entry for self-contained report rendering.
func (b *builder) attachRuleDescriptions() {
	if len(b.rep.Metadata.RuleDescriptions) == 0 {
		return
	}
	b.rep.Solution.Walk(func(n *Node) {
		for _, v := range n.Metrics {
			for ruleID, entry := range v.Breakdown {
				if d, ok := b.rep.Metadata.RuleDescriptions[ruleID]; ok && entry.Description == "" {
					entry.Description = d.Short
				}
			}
		}
	})
}
