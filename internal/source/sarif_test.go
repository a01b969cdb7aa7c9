package source

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unbound-force/tally/internal/metric"
)

func TestSarifParse_Elements(t *testing.T) {
	doc, err := SarifParser{}.Parse(context.Background(), filepath.Join("testdata", "analysis.sarif"))
	require.NoError(t, err)
	require.Equal(t, FormatSarif, doc.Format)

	// Two CA1506 results and one IDE0051 survive; the SA1000 result
	// and the location-less one are dropped.
	require.Len(t, doc.Elements, 3)

	first := doc.Elements[0]
	assert.Equal(t, metric.KindMember, first.Kind)
	assert.Empty(t, first.Assembly)
	assert.Equal(t, "Acme.Billing.Invoice.AddLine(string, int)", first.FQN)
	assert.Equal(t, "CA1506", first.RuleID)
	assert.True(t, first.Values[metric.SarifCaRuleViolations].Equal(decimal.NewFromInt(1)))
	require.NotNil(t, first.Location)
	assert.Equal(t, "C:/src/Acme.Billing/Invoice.cs", first.Location.FilePath)
	assert.Equal(t, 42, first.Location.StartLine)
	assert.Equal(t, 58, first.Location.EndLine)

	second := doc.Elements[1]
	assert.Equal(t, "CA1506", second.RuleID)
	assert.Equal(t, 101, second.Location.StartLine)

	ide := doc.Elements[2]
	assert.Equal(t, "IDE0051", ide.RuleID)
	assert.True(t, ide.Values[metric.SarifIdeRuleViolations].Equal(decimal.NewFromInt(1)))
	// Missing region leaves the lines at zero but keeps the file.
	require.NotNil(t, ide.Location)
	assert.Equal(t, "C:/src/Acme.Billing/Invoice.cs", ide.Location.FilePath)
	assert.Zero(t, ide.Location.StartLine)
}

func TestSarifParse_RuleDescriptions(t *testing.T) {
	doc, err := SarifParser{}.Parse(context.Background(), filepath.Join("testdata", "analysis.sarif"))
	require.NoError(t, err)

	require.Len(t, doc.RuleDescriptions, 2)
	assert.Equal(t, "Avoid excessive class coupling", doc.RuleDescriptions["CA1506"].Short)
	assert.Contains(t, doc.RuleDescriptions["IDE0051"].Full, "never read or written")
}

func TestSarifParse_EmptyRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.sarif")
	writeFile(t, path, `{"version":"2.1.0","runs":[]}`)

	doc, err := SarifParser{}.Parse(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, doc.Elements)
}

func TestSarifParse_MalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.sarif")
	writeFile(t, path, `{"runs": [`)
	_, err := SarifParser{}.Parse(context.Background(), path)
	require.Error(t, err)
}

func TestClassifyRule(t *testing.T) {
	tests := []struct {
		ruleID string
		want   metric.ID
		ok     bool
	}{
		{"CA1506", metric.SarifCaRuleViolations, true},
		{"IDE0051", metric.SarifIdeRuleViolations, true},
		{"SA1000", "", false},
		{"CA150", "", false},
		{"ca1506", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := classifyRule(tt.ruleID)
		assert.Equal(t, tt.ok, ok, tt.ruleID)
		assert.Equal(t, tt.want, got, tt.ruleID)
	}
}

func TestLocalPath(t *testing.T) {
	tests := []struct{ in, want string }{
		{"file:///C:/src/App/Program.cs", "C:/src/App/Program.cs"},
		{"file:///home/dev/app/main.cs", "/home/dev/app/main.cs"},
		{"src/App/Program.cs", "src/App/Program.cs"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, localPath(tt.in), tt.in)
	}
}
