package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/shopspring/decimal"

	"github.com/unbound-force/tally/internal/metric"
	"github.com/unbound-force/tally/internal/query"
	"github.com/unbound-force/tally/internal/tree"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func sampleReport() *tree.Report {
	sol := tree.NewNode(metric.KindSolution, "Acme", "Acme")
	asm := sol.EnsureChild(metric.KindAssembly, "Acme.Billing", "Acme.Billing")
	ns := asm.EnsureChild(metric.KindNamespace, "Acme.Billing", "Acme.Billing")
	typ := ns.EnsureChild(metric.KindType, "Invoice", "Acme.Billing.Invoice")

	member := typ.EnsureChild(metric.KindMember, "AddLine(...)", "Acme.Billing.Invoice.AddLine(...)")
	cc := member.Metric(metric.CoverageCyclomaticComplexity)
	cc.Value = dec("12")
	cc.Delta = dec("2")
	cc.Status = metric.StatusWarning

	cov := member.Metric(metric.SequenceCoverage)
	cov.Value = dec("72.5")
	cov.Status = metric.StatusSuccess

	ca := member.Metric(metric.SarifCaRuleViolations)
	ca.Value = dec("2")
	ca.Status = metric.StatusWarning
	ca.Suppressed = true
	ca.Justification = "generated mapper"
	ca.Breakdown = map[string]*tree.RuleBreakdown{
		"CA1506": {
			Count:       2,
			Description: "Avoid excessive class coupling",
			Violations: []tree.Violation{
				{FilePath: "Invoice.cs", StartLine: 42, EndLine: 58, Message: "coupled <heavily>"},
			},
		},
	}

	return &tree.Report{
		Metadata: tree.Metadata{
			GeneratedAt:   time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
			ToolVersion:   "test",
			SchemaVersion: tree.SchemaVersion,
			SourceFiles:   []string{"coverage.xml", "analysis.sarif"},
		},
		Solution: sol,
	}
}

func TestWriteJSON_ValidJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleReport()); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v\noutput:\n%s", err, buf.String())
	}
}

func TestWriteJSON_MatchesSchema(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleReport()); err != nil {
		t.Fatal(err)
	}

	schemaDoc, err := jsonschema.UnmarshalJSON(strings.NewReader(Schema))
	if err != nil {
		t.Fatalf("schema is not valid JSON: %v", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("report.schema.json", schemaDoc); err != nil {
		t.Fatal(err)
	}
	schema, err := c.Compile("report.schema.json")
	if err != nil {
		t.Fatalf("schema does not compile: %v", err)
	}

	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if err := schema.Validate(instance); err != nil {
		t.Errorf("output violates schema: %v", err)
	}
}

func TestWriteJSON_DecimalValuesArePlainNumbers(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleReport()); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.Contains(out, `"value": 72.5`) {
		t.Errorf("expected plain numeric coverage value, got:\n%s", out)
	}
	if strings.Contains(out, `"value": "72.5"`) {
		t.Error("coverage value serialized as a string")
	}
}

func TestJSONRoundTrip_ByteStable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	if err := SaveJSON(path, sampleReport()); err != nil {
		t.Fatal(err)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON failed: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, loaded); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, buf.Bytes()) {
		t.Errorf("round-trip not byte-stable:\nfirst:\n%s\nsecond:\n%s", first, buf.Bytes())
	}
}

func TestLoadJSON_RebuildsIndexes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	if err := SaveJSON(path, sampleReport()); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadJSON(path)
	if err != nil {
		t.Fatal(err)
	}
	asm := loaded.Solution.Child("Acme.Billing")
	if asm == nil {
		t.Fatal("child lookup failed after load")
	}
	if loaded.Find("Acme.Billing.Invoice.AddLine(...)") == nil {
		t.Error("FQN lookup failed after load")
	}
}

func TestLoadJSON_MissingFile(t *testing.T) {
	if _, err := LoadJSON(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing report")
	}
}

func TestLoadJSON_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadJSON(path); err == nil {
		t.Error("expected error for malformed report")
	}
}

func TestWriteHTML_SelfContained(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHTML(&buf, sampleReport()); err != nil {
		t.Fatalf("WriteHTML failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"<!DOCTYPE html>",
		"Acme.Billing.Invoice",
		"CA1506",
		"CoverageCyclomaticComplexity",
		"suppressed: generated mapper",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("HTML output missing %q", want)
		}
	}
	// Messages from analyzers are untrusted and must be escaped.
	if strings.Contains(out, "coupled <heavily>") {
		t.Error("violation message not HTML-escaped")
	}
	if !strings.Contains(out, "coupled &lt;heavily&gt;") {
		t.Error("expected escaped violation message")
	}
	if strings.Contains(out, "<script src=") || strings.Contains(out, "<link rel=") {
		t.Error("HTML output references external assets")
	}
}

func TestWriteText_Violations(t *testing.T) {
	res := &query.Result{Violations: []query.Violation{
		{
			FullyQualifiedName: "Acme.Billing.Invoice.AddLine(...)",
			Kind:               metric.KindMember,
			Metric:             metric.CoverageCyclomaticComplexity,
			Value:              dec("12"),
			Delta:              dec("2"),
			Status:             metric.StatusWarning,
		},
	}}

	var buf bytes.Buffer
	if err := WriteText(&buf, res); err != nil {
		t.Fatalf("WriteText failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"AddLine", "12", "+2", "Warning"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteText_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, &query.Result{Message: query.NoViolationsMessage}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No violations found") {
		t.Errorf("expected empty-result message, got:\n%s", buf.String())
	}
}

func TestWriteTestText(t *testing.T) {
	var buf bytes.Buffer
	err := WriteTestText(&buf, "Acme.Billing.Invoice", metric.RoslynClassCoupling, query.TestResult{IsOk: true})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "OK") {
		t.Errorf("expected OK, got:\n%s", buf.String())
	}

	buf.Reset()
	v := query.Violation{Value: dec("70"), Status: metric.StatusError}
	err = WriteTestText(&buf, "Acme.Billing.Invoice", metric.RoslynClassCoupling, query.TestResult{IsOk: false, Details: &v})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "FAIL") || !strings.Contains(buf.String(), "70") {
		t.Errorf("expected FAIL with value, got:\n%s", buf.String())
	}
}

func TestArchive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")
	if err := SaveJSON(path, sampleReport()); err != nil {
		t.Fatal(err)
	}

	archiveDir := filepath.Join(dir, "history")
	now := time.Date(2026, 8, 30, 10, 30, 0, 0, time.UTC)
	dest, err := Archive(path, archiveDir, now)
	if err != nil {
		t.Fatalf("Archive failed: %v", err)
	}

	want := filepath.Join(archiveDir, "report-20260830-103000.json")
	if dest != want {
		t.Errorf("archived to %s, want %s", dest, want)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("original report still present after archive")
	}
	if _, err := LoadJSON(dest); err != nil {
		t.Errorf("archived report unreadable: %v", err)
	}
}

func TestArchive_MissingReportIsNoOp(t *testing.T) {
	dest, err := Archive(filepath.Join(t.TempDir(), "nope.json"), t.TempDir(), time.Now())
	if err != nil {
		t.Fatalf("Archive failed: %v", err)
	}
	if dest != "" {
		t.Errorf("expected empty destination, got %s", dest)
	}
}
