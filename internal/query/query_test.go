package query

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unbound-force/tally/internal/metric"
	"github.com/unbound-force/tally/internal/tree"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// sampleReport builds a small evaluated report by hand: two types in
// Acme.Billing, one member in warning, one member in error with a
// suppressed sibling metric, and one passing type elsewhere.
func sampleReport() *tree.Report {
	sol := tree.NewNode(metric.KindSolution, "Acme", "Acme")
	asm := sol.EnsureChild(metric.KindAssembly, "Acme.Billing", "Acme.Billing")
	ns := asm.EnsureChild(metric.KindNamespace, "Acme.Billing", "Acme.Billing")

	invoice := ns.EnsureChild(metric.KindType, "Invoice", "Acme.Billing.Invoice")
	invoice.Metric(metric.RoslynClassCoupling).Value = dec("31")
	invoice.Metric(metric.RoslynClassCoupling).Status = metric.StatusWarning

	addLine := invoice.EnsureChild(metric.KindMember, "AddLine(...)", "Acme.Billing.Invoice.AddLine(...)")
	cc := addLine.Metric(metric.RoslynCyclomaticComplexity)
	cc.Value = dec("44")
	cc.Delta = dec("6")
	cc.Status = metric.StatusError

	coupling := addLine.Metric(metric.RoslynClassCoupling)
	coupling.Value = dec("70")
	coupling.Status = metric.StatusError
	coupling.Suppressed = true
	coupling.Justification = "generated mapper"

	ledger := ns.EnsureChild(metric.KindType, "Ledger", "Acme.Billing.Ledger")
	ledger.Metric(metric.RoslynClassCoupling).Value = dec("4")
	ledger.Metric(metric.RoslynClassCoupling).Status = metric.StatusSuccess

	return &tree.Report{Solution: sol}
}

func TestReadAny_SingleMostSevere(t *testing.T) {
	res := ReadAny(sampleReport(), Options{Namespace: "Acme.Billing"})

	require.Len(t, res.Violations, 1)
	v := res.Violations[0]
	assert.Equal(t, "Acme.Billing.Invoice.AddLine(...)", v.FullyQualifiedName)
	assert.Equal(t, metric.RoslynCyclomaticComplexity, v.Metric)
	assert.Equal(t, metric.StatusError, v.Status)
	assert.Empty(t, res.Message)
}

func TestReadAny_AllSorted(t *testing.T) {
	res := ReadAny(sampleReport(), Options{All: true})

	require.Len(t, res.Violations, 2)
	assert.Equal(t, metric.StatusError, res.Violations[0].Status)
	assert.Equal(t, metric.StatusWarning, res.Violations[1].Status)
	assert.Equal(t, "Acme.Billing.Invoice", res.Violations[1].FullyQualifiedName)
}

func TestReadAny_IncludeSuppressed(t *testing.T) {
	res := ReadAny(sampleReport(), Options{All: true, IncludeSuppressed: true})

	require.Len(t, res.Violations, 3)
	var suppressed *Violation
	for i := range res.Violations {
		if res.Violations[i].Suppressed {
			suppressed = &res.Violations[i]
		}
	}
	require.NotNil(t, suppressed)
	assert.Equal(t, "generated mapper", suppressed.Justification)
}

func TestReadAny_KindFilter(t *testing.T) {
	res := ReadAny(sampleReport(), Options{Kind: metric.KindType, All: true})

	require.Len(t, res.Violations, 1)
	assert.Equal(t, "Acme.Billing.Invoice", res.Violations[0].FullyQualifiedName)
}

func TestReadAny_MetricFilter(t *testing.T) {
	res := ReadAny(sampleReport(), Options{Metric: metric.RoslynClassCoupling, All: true})

	require.Len(t, res.Violations, 1)
	assert.Equal(t, metric.KindType, res.Violations[0].Kind)
}

func TestReadAny_EmptyIsDistinctSuccess(t *testing.T) {
	res := ReadAny(sampleReport(), Options{Namespace: "Unused.Namespace"})

	assert.True(t, res.Empty())
	assert.Equal(t, NoViolationsMessage, res.Message)
}

func TestTest_PassingAndAbsentSymbols(t *testing.T) {
	rep := sampleReport()

	assert.True(t, Test(rep, "Acme.Billing.Ledger", metric.RoslynClassCoupling, false).IsOk)
	assert.True(t, Test(rep, "No.Such.Symbol", metric.RoslynClassCoupling, false).IsOk)
	// No prefix matching on exact lookup.
	assert.True(t, Test(rep, "Acme.Billing.Invoice.Add", metric.RoslynCyclomaticComplexity, false).IsOk)
}

func TestTest_Violation(t *testing.T) {
	res := Test(sampleReport(), "Acme.Billing.Invoice.AddLine(...)", metric.RoslynCyclomaticComplexity, false)

	assert.False(t, res.IsOk)
	require.NotNil(t, res.Details)
	assert.Equal(t, metric.StatusError, res.Details.Status)
}

func TestTest_SuppressedPassesByDefault(t *testing.T) {
	rep := sampleReport()
	fqn := "Acme.Billing.Invoice.AddLine(...)"

	assert.True(t, Test(rep, fqn, metric.RoslynClassCoupling, false).IsOk)
	assert.False(t, Test(rep, fqn, metric.RoslynClassCoupling, true).IsOk)
}
