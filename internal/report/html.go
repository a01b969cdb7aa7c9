package report

import (
	"html/template"
	"io"
	"os"
	"sort"

	"github.com/unbound-force/tally/internal/errs"
	"github.com/unbound-force/tally/internal/metric"
	"github.com/unbound-force/tally/internal/tree"
)

// WriteHTML writes the report as a self-contained HTML dashboard:
// a collapsible solution tree with per-node metric tables, embedded
// CSS, no external assets.
func WriteHTML(w io.Writer, rep *tree.Report) error {
	return htmlTemplate.Execute(w, htmlData{
		Report:  rep,
		Root:    htmlNodeOf(rep.Solution),
		Summary: htmlSummaryOf(rep),
	})
}

// SaveHTML writes the HTML dashboard to path.
func SaveHTML(path string, rep *tree.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.IO("creating HTML report: %w", err)
	}
	defer f.Close()

	if err := WriteHTML(f, rep); err != nil {
		return errs.IO("writing HTML report %s: %w", path, err)
	}
	return nil
}

type htmlData struct {
	Report  *tree.Report
	Root    htmlNode
	Summary htmlSummary
}

type htmlSummary struct {
	Errors      int
	Warnings    int
	Suppressed  int
	WorstStatus metric.Status
}

type htmlNode struct {
	Kind     metric.Kind
	Name     string
	FQN      string
	Status   metric.Status
	Metrics  []htmlMetric
	Children []htmlNode
	Open     bool
}

type htmlMetric struct {
	ID            metric.ID
	Value         string
	Delta         string
	Status        metric.Status
	Suppressed    bool
	Justification string
	Rules         []htmlRule
}

type htmlRule struct {
	RuleID      string
	Count       int
	Description string
	Violations  []tree.Violation
}

// htmlNodeOf flattens a report node into template-friendly rows. A
// node's displayed status is the worst status in its subtree, so
// collapsed branches still signal trouble below.
func htmlNodeOf(n *tree.Node) htmlNode {
	out := htmlNode{
		Kind:   n.Kind,
		Name:   n.Name,
		FQN:    n.FullyQualifiedName,
		Status: metric.StatusNotApplicable,
	}

	ids := make([]metric.ID, 0, len(n.Metrics))
	for id := range n.Metrics {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		v := n.Metrics[id]
		m := htmlMetric{
			ID:            id,
			Value:         decimalCell(v.Value),
			Delta:         deltaCell(v.Delta),
			Status:        v.Status,
			Suppressed:    v.Suppressed,
			Justification: v.Justification,
		}

		ruleIDs := make([]string, 0, len(v.Breakdown))
		for ruleID := range v.Breakdown {
			ruleIDs = append(ruleIDs, ruleID)
		}
		sort.Strings(ruleIDs)
		for _, ruleID := range ruleIDs {
			entry := v.Breakdown[ruleID]
			m.Rules = append(m.Rules, htmlRule{
				RuleID:      ruleID,
				Count:       entry.Count,
				Description: entry.Description,
				Violations:  entry.Violations,
			})
		}

		if !v.Suppressed && v.Status.Severity() > out.Status.Severity() {
			out.Status = v.Status
		}
		out.Metrics = append(out.Metrics, m)
	}

	for _, c := range n.Children {
		child := htmlNodeOf(c)
		if child.Status.Severity() > out.Status.Severity() {
			out.Status = child.Status
		}
		out.Children = append(out.Children, child)
	}

	// Expand containers with problems; keep healthy branches folded.
	out.Open = out.Status.Severity() >= metric.StatusWarning.Severity()
	return out
}

func htmlSummaryOf(rep *tree.Report) htmlSummary {
	var s htmlSummary
	rep.Solution.Walk(func(n *tree.Node) {
		for _, v := range n.Metrics {
			if v.Suppressed {
				s.Suppressed++
				continue
			}
			switch v.Status {
			case metric.StatusError:
				s.Errors++
			case metric.StatusWarning:
				s.Warnings++
			}
		}
	})
	s.WorstStatus = tree.WorstStatus(rep, false)
	return s
}

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Metrics Report - {{.Root.Name}}</title>
<style>
:root { color-scheme: light dark; }
body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; margin: 2rem; }
h1 { font-size: 1.4rem; }
.meta { color: #777; font-size: .85rem; margin-bottom: 1.5rem; }
.summary span { display: inline-block; margin-right: 1.2rem; font-weight: 600; }
details { margin-left: 1rem; padding-left: .5rem; border-left: 2px solid #ddd; }
summary { cursor: pointer; padding: .15rem 0; }
.kind { color: #999; font-size: .75rem; text-transform: uppercase; margin-right: .4rem; }
.status-Error { color: #c0392b; font-weight: 600; }
.status-Warning { color: #d68910; }
.status-Success { color: #1e8449; }
.status-NotApplicable { color: #888; }
.suppressed { color: #2471a3; font-style: italic; }
table { border-collapse: collapse; margin: .3rem 0 .6rem 1rem; font-size: .85rem; }
th, td { border: 1px solid #ccc; padding: .2rem .6rem; text-align: left; }
th { background: rgba(127,127,127,.15); }
.rule { margin-left: 2rem; font-size: .8rem; color: #555; }
</style>
</head>
<body>
<h1>Metrics Report: {{.Root.Name}}</h1>
<div class="meta">
Generated {{.Report.Metadata.GeneratedAt.Format "2006-01-02 15:04:05 UTC"}}
{{with .Report.Metadata.ToolVersion}}&middot; tally {{.}}{{end}}
&middot; schema {{.Report.Metadata.SchemaVersion}}
</div>
<div class="summary">
<span class="status-Error">Errors: {{.Summary.Errors}}</span>
<span class="status-Warning">Warnings: {{.Summary.Warnings}}</span>
<span class="suppressed">Suppressed: {{.Summary.Suppressed}}</span>
<span class="status-{{.Summary.WorstStatus}}">Overall: {{.Summary.WorstStatus}}</span>
</div>
{{template "node" .Root}}
</body>
</html>
{{define "node"}}
<details{{if .Open}} open{{end}}>
<summary><span class="kind">{{.Kind}}</span><span class="status-{{.Status}}">{{.Name}}</span></summary>
{{if .Metrics}}
<table>
<tr><th>Metric</th><th>Value</th><th>Delta</th><th>Status</th></tr>
{{range .Metrics}}
<tr>
<td>{{.ID}}</td>
<td>{{.Value}}</td>
<td>{{.Delta}}</td>
<td>{{if .Suppressed}}<span class="suppressed">{{.Status}} (suppressed: {{.Justification}})</span>{{else}}<span class="status-{{.Status}}">{{.Status}}</span>{{end}}</td>
</tr>
{{end}}
</table>
{{range .Metrics}}{{range .Rules}}
<div class="rule"><strong>{{.RuleID}}</strong> ({{.Count}}){{with .Description}}: {{.}}{{end}}
{{range .Violations}}<div>{{.FilePath}}{{if .StartLine}}:{{.StartLine}}{{end}} {{.Message}}</div>{{end}}
</div>
{{end}}{{end}}
{{end}}
{{range .Children}}{{template "node" .}}{{end}}
</details>
{{end}}`))
