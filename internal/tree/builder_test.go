package tree

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unbound-force/tally/internal/errs"
	"github.com/unbound-force/tally/internal/metric"
	"github.com/unbound-force/tally/internal/source"
)

func values(pairs ...any) map[metric.ID]decimal.Decimal {
	m := make(map[metric.ID]decimal.Decimal, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		m[pairs[i].(metric.ID)] = decimal.RequireFromString(pairs[i+1].(string))
	}
	return m
}

func coverageDoc() *source.Document {
	return &source.Document{
		Format:     source.FormatOpenCover,
		SourceFile: "coverage.xml",
		Elements: []source.Element{
			{
				Kind:       metric.KindType,
				Assembly:   "Acme.Billing",
				FQN:        "Acme.Billing.Invoice",
				Values:     values(metric.SequenceCoverage, "72.5"),
				SourceFile: "coverage.xml",
			},
			{
				Kind:       metric.KindMember,
				Assembly:   "Acme.Billing",
				FQN:        "System.Void Acme.Billing.Invoice::AddLine(System.String,System.Int32)",
				Values:     values(metric.SequenceCoverage, "72.5", metric.CoverageCyclomaticComplexity, "12"),
				Location:   &source.Location{FilePath: "Invoice.cs", StartLine: 42, EndLine: 57},
				SourceFile: "coverage.xml",
			},
		},
	}
}

func roslynDoc() *source.Document {
	return &source.Document{
		Format:     source.FormatRoslyn,
		SourceFile: "metrics.xml",
		Elements: []source.Element{
			{
				Kind:       metric.KindMember,
				Assembly:   "Acme.Billing",
				FQN:        "Acme.Billing.Invoice.AddLine(string, int)",
				Values:     values(metric.RoslynMaintainabilityIndex, "61"),
				SourceFile: "metrics.xml",
			},
		},
	}
}

func sarifDoc() *source.Document {
	return &source.Document{
		Format:     source.FormatSarif,
		SourceFile: "analysis.sarif",
		RuleDescriptions: map[string]source.RuleDescription{
			"CA1506": {Short: "Avoid excessive class coupling"},
		},
		Elements: []source.Element{
			{
				Kind:       metric.KindMember,
				FQN:        "Acme.Billing.Invoice.AddLine(string, int)",
				Values:     values(metric.SarifCaRuleViolations, "1"),
				Location:   &source.Location{FilePath: "Invoice.cs", StartLine: 42, EndLine: 58},
				RuleID:     "CA1506",
				Message:    "coupled with 34 types",
				SourceFile: "analysis.sarif",
			},
			{
				Kind:       metric.KindMember,
				FQN:        "Acme.Billing.Invoice.AddLine(string, int)",
				Values:     values(metric.SarifCaRuleViolations, "1"),
				Location:   &source.Location{FilePath: "Invoice.Partial.cs", StartLine: 101, EndLine: 120},
				RuleID:     "CA1506",
				Message:    "coupled with 34 types (partial)",
				SourceFile: "analysis.sarif",
			},
		},
	}
}

func TestBuild_MergesSourcesOntoOneNode(t *testing.T) {
	rep, err := Build([]*source.Document{coverageDoc(), roslynDoc(), sarifDoc()}, BuildOptions{SolutionName: "Acme"})
	require.NoError(t, err)

	require.Equal(t, "Acme", rep.Solution.Name)
	assert.Equal(t, SchemaVersion, rep.Metadata.SchemaVersion)
	assert.Equal(t, []string{"coverage.xml", "metrics.xml", "analysis.sarif"}, rep.Metadata.SourceFiles)

	member := rep.Find("Acme.Billing.Invoice.AddLine(...)")
	require.NotNil(t, member)
	require.Equal(t, metric.KindMember, member.Kind)

	// The IL name, the Roslyn signature, and the SARIF logical name
	// all land on the same canonical symbol.
	assert.True(t, member.Metrics[metric.SequenceCoverage].Value.Equal(decimal.RequireFromString("72.5")))
	assert.True(t, member.Metrics[metric.RoslynMaintainabilityIndex].Value.Equal(decimal.NewFromInt(61)))
	assert.True(t, member.Metrics[metric.SarifCaRuleViolations].Value.Equal(decimal.NewFromInt(2)))

	require.NotNil(t, member.Location)
	assert.Equal(t, 42, member.Location.StartLine)
}

func TestBuild_SarifBreakdown(t *testing.T) {
	rep, err := Build([]*source.Document{coverageDoc(), sarifDoc()}, BuildOptions{})
	require.NoError(t, err)

	member := rep.Find("Acme.Billing.Invoice.AddLine(...)")
	require.NotNil(t, member)

	v := member.Metrics[metric.SarifCaRuleViolations]
	require.NotNil(t, v)
	require.Contains(t, v.Breakdown, "CA1506")

	entry := v.Breakdown["CA1506"]
	assert.Equal(t, 2, entry.Count)
	assert.Equal(t, "Avoid excessive class coupling", entry.Description)
	require.Len(t, entry.Violations, 2)
	assert.Equal(t, 42, entry.Violations[0].StartLine)
	assert.Equal(t, 101, entry.Violations[1].StartLine)
}

func TestBuild_SarifJoinsRegardlessOfOrder(t *testing.T) {
	// SARIF first in input order must still join the coverage symbol
	// instead of inventing a default-assembly copy.
	rep, err := Build([]*source.Document{sarifDoc(), coverageDoc()}, BuildOptions{})
	require.NoError(t, err)

	assert.Nil(t, rep.Solution.Child(defaultAssembly))

	member := rep.Find("Acme.Billing.Invoice.AddLine(...)")
	require.NotNil(t, member)
	assert.True(t, member.Metrics[metric.SequenceCoverage].Value.Equal(decimal.RequireFromString("72.5")))
	assert.True(t, member.Metrics[metric.SarifCaRuleViolations].Value.Equal(decimal.NewFromInt(2)))
}

func TestBuild_SarifNewMemberJoinsExistingType(t *testing.T) {
	// A finding on a member no other source reported must attach to
	// the already placed type, not clone the type chain under the
	// default assembly.
	coverage := &source.Document{
		Format:     source.FormatOpenCover,
		SourceFile: "coverage.xml",
		Elements: []source.Element{
			{
				Kind:       metric.KindType,
				Assembly:   "Acme.Billing",
				FQN:        "Acme.Billing.Invoice",
				Values:     values(metric.SequenceCoverage, "72.5"),
				SourceFile: "coverage.xml",
			},
			{
				Kind:       metric.KindMember,
				Assembly:   "Acme.Billing",
				FQN:        "Acme.Billing.Invoice.Total()",
				Values:     values(metric.SequenceCoverage, "100"),
				SourceFile: "coverage.xml",
			},
		},
	}
	sarif := &source.Document{
		Format:     source.FormatSarif,
		SourceFile: "analysis.sarif",
		Elements: []source.Element{
			{
				Kind:       metric.KindMember,
				FQN:        "Acme.Billing.Invoice.AddLine(string, int)",
				Values:     values(metric.SarifCaRuleViolations, "1"),
				RuleID:     "CA1506",
				Message:    "coupled with 34 types",
				SourceFile: "analysis.sarif",
			},
		},
	}

	rep, err := Build([]*source.Document{coverage, sarif}, BuildOptions{})
	require.NoError(t, err)

	assert.Nil(t, rep.Solution.Child(defaultAssembly))

	var types []*Node
	rep.Solution.Walk(func(n *Node) {
		if n.Kind == metric.KindType && n.FullyQualifiedName == "Acme.Billing.Invoice" {
			types = append(types, n)
		}
	})
	require.Len(t, types, 1, "one node per fully-qualified name")

	member := types[0].Child("AddLine(...)")
	require.NotNil(t, member)
	assert.True(t, member.Metrics[metric.SarifCaRuleViolations].Value.Equal(decimal.NewFromInt(1)))
}

func TestBuild_SarifNewTypeJoinsExistingNamespace(t *testing.T) {
	coverage := &source.Document{
		Format:     source.FormatOpenCover,
		SourceFile: "coverage.xml",
		Elements: []source.Element{
			{
				Kind:       metric.KindType,
				Assembly:   "Acme.Billing",
				FQN:        "Acme.Billing.Invoice",
				Values:     values(metric.SequenceCoverage, "72.5"),
				SourceFile: "coverage.xml",
			},
		},
	}
	sarif := &source.Document{
		Format:     source.FormatSarif,
		SourceFile: "analysis.sarif",
		Elements: []source.Element{
			{
				Kind:       metric.KindType,
				FQN:        "Acme.Billing.Ledger",
				Values:     values(metric.SarifCaRuleViolations, "1"),
				RuleID:     "CA1506",
				SourceFile: "analysis.sarif",
			},
		},
	}

	rep, err := Build([]*source.Document{coverage, sarif}, BuildOptions{})
	require.NoError(t, err)

	assert.Nil(t, rep.Solution.Child(defaultAssembly))
	ledger := rep.Find("Acme.Billing.Ledger")
	require.NotNil(t, ledger)
	assert.Equal(t, "Acme.Billing", rep.Solution.Children[0].Name)
	assert.Same(t, ledger, rep.Solution.Children[0].Child("Acme.Billing").Child("Ledger"))
}

func TestBuild_SarifWithoutMatchFallsBackToDefaultAssembly(t *testing.T) {
	rep, err := Build([]*source.Document{sarifDoc()}, BuildOptions{})
	require.NoError(t, err)

	asm := rep.Solution.Child(defaultAssembly)
	require.NotNil(t, asm)
	assert.Equal(t, metric.KindAssembly, asm.Kind)

	member := rep.Find("Acme.Billing.Invoice.AddLine(...)")
	require.NotNil(t, member)
	assert.True(t, member.Metrics[metric.SarifCaRuleViolations].Value.Equal(decimal.NewFromInt(2)))
}

func TestBuild_DuplicateCoverageSymbolFails(t *testing.T) {
	second := coverageDoc()
	second.SourceFile = "coverage2.xml"
	for i := range second.Elements {
		second.Elements[i].SourceFile = "coverage2.xml"
	}

	_, err := Build([]*source.Document{coverageDoc(), second}, BuildOptions{})
	require.Error(t, err)
	assert.Equal(t, errs.ExitValidation, errs.ExitCode(err))
	assert.Contains(t, err.Error(), "ambiguous coverage source")
}

func TestBuild_SameCoverageFileTwiceInOneDocument(t *testing.T) {
	// Re-reports from the same file are not ambiguous.
	doc := coverageDoc()
	doc.Elements = append(doc.Elements, doc.Elements...)

	_, err := Build([]*source.Document{doc}, BuildOptions{})
	require.NoError(t, err)
}

func TestBuild_GlobalNamespaceForUnqualifiedTypes(t *testing.T) {
	doc := &source.Document{
		Format:     source.FormatRoslyn,
		SourceFile: "metrics.xml",
		Elements: []source.Element{
			{
				Kind:     metric.KindType,
				Assembly: "App",
				FQN:      "Program",
				Values:   values(metric.RoslynCyclomaticComplexity, "4"),
			},
		},
	}
	rep, err := Build([]*source.Document{doc}, BuildOptions{})
	require.NoError(t, err)

	asm := rep.Solution.Child("App")
	require.NotNil(t, asm)
	ns := asm.Child(globalNamespace)
	require.NotNil(t, ns)
	require.NotNil(t, ns.Child("Program"))
}

func TestSplitMember(t *testing.T) {
	tests := []struct {
		fqn, ns, typ, member string
	}{
		{"Acme.Billing.Invoice.AddLine(...)", "Acme.Billing", "Invoice", "AddLine(...)"},
		{"Invoice.AddLine(...)", globalNamespace, "Invoice", "AddLine(...)"},
		{"Main(...)", globalNamespace, globalNamespace, "Main(...)"},
		{"Acme.Billing.Invoice._legacyTotal", "Acme.Billing", "Invoice", "_legacyTotal"},
	}
	for _, tt := range tests {
		ns, typ, member := splitMember(tt.fqn)
		assert.Equal(t, tt.ns, ns, tt.fqn)
		assert.Equal(t, tt.typ, typ, tt.fqn)
		assert.Equal(t, tt.member, member, tt.fqn)
	}
}

func TestSplitType(t *testing.T) {
	ns, name := splitType("Acme.Billing.Invoice")
	assert.Equal(t, "Acme.Billing", ns)
	assert.Equal(t, "Invoice", name)

	ns, name = splitType("Program")
	assert.Equal(t, globalNamespace, ns)
	assert.Equal(t, "Program", name)
}
