package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unbound-force/tally/internal/metric"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRoslynParse_Elements(t *testing.T) {
	doc, err := RoslynParser{}.Parse(context.Background(), filepath.Join("testdata", "metrics.xml"))
	require.NoError(t, err)
	require.Equal(t, FormatRoslyn, doc.Format)

	// Assembly, namespace, type, two members.
	require.Len(t, doc.Elements, 5)

	asm := doc.Elements[0]
	assert.Equal(t, metric.KindAssembly, asm.Kind)
	assert.Equal(t, "Acme.Billing", asm.Assembly)
	assert.Equal(t, "Acme.Billing", asm.FQN)
	assert.True(t, asm.Values[metric.RoslynMaintainabilityIndex].Equal(decimal.NewFromInt(82)))

	ns := doc.Elements[1]
	assert.Equal(t, metric.KindNamespace, ns.Kind)
	assert.Equal(t, "Acme.Billing", ns.FQN)

	typ := doc.Elements[2]
	assert.Equal(t, metric.KindType, typ.Kind)
	assert.Equal(t, "Acme.Billing.Invoice", typ.FQN)
	assert.True(t, typ.Values[metric.RoslynClassCoupling].Equal(decimal.NewFromInt(31)))

	add := doc.Elements[3]
	assert.Equal(t, metric.KindMember, add.Kind)
	assert.Equal(t, "Acme.Billing.Invoice.AddLine(string, int)", add.FQN)
	require.NotNil(t, add.Location)
	assert.Equal(t, 42, add.Location.StartLine)

	total := doc.Elements[4]
	assert.Equal(t, "Acme.Billing.Invoice.Total", total.FQN)
	assert.True(t, total.Values[metric.RoslynCyclomaticComplexity].Equal(decimal.NewFromInt(2)))
	// Unknown metric names are dropped, not mapped.
	assert.Len(t, total.Values, 2)
}

func TestRoslynParse_MalformedXML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.xml")
	writeFile(t, path, "<CodeMetricsReport><Targets>")
	_, err := RoslynParser{}.Parse(context.Background(), path)
	require.Error(t, err)
}

func TestAssemblyShortName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Acme.Billing, Version=1.0.0.0, Culture=neutral", "Acme.Billing"},
		{"Acme.Billing", "Acme.Billing"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, assemblyShortName(tt.in))
	}
}

func TestQualify(t *testing.T) {
	assert.Equal(t, "Ns.T", qualify("Ns", "T"))
	assert.Equal(t, "Ns.T.M", qualify("Ns.T", "Ns.T.M"))
	assert.Equal(t, "T", qualify("", "T"))
}
