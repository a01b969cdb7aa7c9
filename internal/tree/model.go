// Package tree defines the hierarchical metrics report (solution →
// assembly → namespace → type → member), the builder that merges flat
// parser output into it, the baseline differ, and the threshold
// evaluator.
package tree

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/unbound-force/tally/internal/metric"
	"github.com/unbound-force/tally/internal/source"
)

func init() {
	// Report JSON carries metric values as plain numbers. Decimal
	// string rendering is exact, so round-trips stay byte-stable.
	decimal.MarshalJSONWithoutQuotes = true
}

// SchemaVersion is the report schema version written into metadata.
const SchemaVersion = "1.0"

// Violation is one concrete analyzer finding inside a rule breakdown.
type Violation struct {
	FilePath  string `json:"filePath,omitempty"`
	StartLine int    `json:"startLine,omitempty"`
	EndLine   int    `json:"endLine,omitempty"`
	Message   string `json:"message,omitempty"`
}

// RuleBreakdown accumulates the findings of a single SARIF rule on
// one symbol.
type RuleBreakdown struct {
	Count       int    `json:"count"`
	Description string `json:"description,omitempty"`

	// Suppressed marks this rule's findings as a justified opt-out.
	// The enclosing metric stays in force for its other rules.
	Suppressed    bool   `json:"suppressed,omitempty"`
	Justification string `json:"justification,omitempty"`

	Violations []Violation `json:"violations,omitempty"`
}

// Value is a single measured metric on a node. A nil Value means the
// metric was not measured for this symbol; a nil Delta means the
// baseline had no counterpart.
type Value struct {
	Value  *decimal.Decimal `json:"value,omitempty"`
	Delta  *decimal.Decimal `json:"delta,omitempty"`
	Status metric.Status    `json:"status"`

	// Suppressed marks a justified opt-out. The status and value are
	// retained; queries treat the violation as passing by default.
	Suppressed    bool   `json:"suppressed,omitempty"`
	Justification string `json:"justification,omitempty"`

	// Breakdown is populated for the SARIF rule-violation metrics
	// only, keyed by rule ID.
	Breakdown map[string]*RuleBreakdown `json:"breakdown,omitempty"`
}

// Node is one level of the report hierarchy. A single concrete type
// tagged by Kind holds every level; Children are kept in insertion
// order for deterministic output, with exactly one node per
// fully-qualified name at a given level.
type Node struct {
	Kind               metric.Kind          `json:"kind"`
	Name               string               `json:"name"`
	FullyQualifiedName string               `json:"fullyQualifiedName"`
	Location           *source.Location     `json:"location,omitempty"`
	Metrics            map[metric.ID]*Value `json:"metrics,omitempty"`
	Children           []*Node              `json:"children,omitempty"`

	index map[string]*Node
}

// NewNode creates an empty node of the given kind.
func NewNode(kind metric.Kind, name, fqn string) *Node {
	return &Node{
		Kind:               kind,
		Name:               name,
		FullyQualifiedName: fqn,
	}
}

// Child returns the named child, or nil.
func (n *Node) Child(name string) *Node {
	if n.index != nil {
		return n.index[name]
	}
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// EnsureChild returns the named child, creating and appending it when
// absent. Intermediate containers synthesized this way start with
// empty metrics.
func (n *Node) EnsureChild(kind metric.Kind, name, fqn string) *Node {
	if c := n.Child(name); c != nil {
		return c
	}
	c := NewNode(kind, name, fqn)
	n.Children = append(n.Children, c)
	if n.index == nil {
		n.index = make(map[string]*Node)
	}
	n.index[name] = c
	return c
}

// Metric returns the value entry for id, creating it when absent.
func (n *Node) Metric(id metric.ID) *Value {
	if n.Metrics == nil {
		n.Metrics = make(map[metric.ID]*Value)
	}
	v, ok := n.Metrics[id]
	if !ok {
		v = &Value{Status: metric.StatusNotApplicable}
		n.Metrics[id] = v
	}
	return v
}

// Walk visits n and every descendant in depth-first, insertion order.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Reindex rebuilds the child name indexes after deserialization.
func (n *Node) Reindex() {
	n.index = make(map[string]*Node, len(n.Children))
	for _, c := range n.Children {
		n.index[c.Name] = c
		c.Reindex()
	}
}

// Metadata describes how and when a report was produced.
type Metadata struct {
	GeneratedAt   time.Time `json:"generatedAt"`
	ToolVersion   string    `json:"toolVersion,omitempty"`
	SchemaVersion string    `json:"schemaVersion"`
	SourceFiles   []string  `json:"sourceFiles,omitempty"`

	// RuleDescriptions carries the SARIF driver rule texts keyed by
	// rule ID, for presentation next to breakdowns.
	RuleDescriptions map[string]source.RuleDescription `json:"ruleDescriptions,omitempty"`
}

// Report is the consolidated metrics report. It is created once per
// generate run and read-only afterwards.
type Report struct {
	Metadata Metadata `json:"metadata"`
	Solution *Node    `json:"solution"`
}

// Find returns the node with the exact fully-qualified name, or nil.
func (r *Report) Find(fqn string) *Node {
	var found *Node
	r.Solution.Walk(func(n *Node) {
		if found == nil && n.FullyQualifiedName == fqn {
			found = n
		}
	})
	return found
}
