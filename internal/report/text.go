package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"github.com/unbound-force/tally/internal/metric"
	"github.com/unbound-force/tally/internal/query"
)

// WriteText writes a violation query result as human-readable styled
// text. Output uses lipgloss for color and formatting when the output
// is a TTY; degrades gracefully for pipes and CI.
func WriteText(w io.Writer, res *query.Result) error {
	s := DefaultStyles()

	if res.Empty() {
		fmt.Fprintln(w, s.Pass.Render("No violations found."))
		return nil
	}

	// Budget: 100 cols total. Borders and per-column padding take
	// ~12, leaving FQN=48, METRIC=22, VALUE=9, DELTA=9, STATUS=10.
	const maxFQN = 48
	rows := make([][]string, 0, len(res.Violations))
	for _, v := range res.Violations {
		fqn := v.FullyQualifiedName
		if len(fqn) > maxFQN {
			fqn = "..." + fqn[len(fqn)-maxFQN+3:]
		}
		status := string(v.Status)
		if v.Suppressed {
			status += " (suppressed)"
		}
		rows = append(rows, []string{
			fqn,
			string(v.Metric),
			decimalCell(v.Value),
			deltaCell(v.Delta),
			status,
		})
	}

	t := table.New().
		Width(100).
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.Border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.TableHeader
			}
			if col == 4 && row >= 0 && row < len(res.Violations) {
				if res.Violations[row].Suppressed {
					return s.Suppressed
				}
				return s.StatusStyle(res.Violations[row].Status)
			}
			return s.TableCell
		}).
		Headers("SYMBOL", "METRIC", "VALUE", "DELTA", "STATUS").
		Rows(rows...)

	fmt.Fprintln(w, t)

	// Severity summary.
	counts := make(map[metric.Status]int)
	for _, v := range res.Violations {
		counts[v.Status]++
	}
	var parts []string
	for _, status := range []metric.Status{metric.StatusError, metric.StatusWarning} {
		if c, ok := counts[status]; ok {
			parts = append(parts, s.StatusStyle(status).Render(
				fmt.Sprintf("%s: %d", status, c)))
		}
	}
	fmt.Fprintf(w, "%s %s\n", s.SummaryLabel.Render("Violations:"), strings.Join(parts, ", "))

	return nil
}

// WriteSarifText writes a SARIF query result grouped the way the
// query asked for, one table per group.
func WriteSarifText(w io.Writer, res *query.SarifResult) error {
	s := DefaultStyles()

	if res.Empty() {
		fmt.Fprintln(w, s.Pass.Render("No violations found."))
		return nil
	}

	for i, g := range res.Groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, s.Header.Render(fmt.Sprintf("=== %s ===", g.Key)))
		if d := groupDescription(g); d != "" {
			fmt.Fprintln(w, s.SubHeader.Render("    "+d))
		}

		const maxMsg = 46
		rows := make([][]string, 0, len(g.Rows))
		for _, r := range g.Rows {
			for _, v := range r.Violations {
				msg := v.Message
				if len(msg) > maxMsg {
					msg = msg[:maxMsg-3] + "..."
				}
				rows = append(rows, []string{
					r.RuleID,
					r.FullyQualifiedName,
					lineCell(v.StartLine),
					msg,
				})
			}
		}

		t := table.New().
			Width(100).
			Border(lipgloss.NormalBorder()).
			BorderStyle(s.Border).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return s.TableHeader
				}
				return s.TableCell
			}).
			Headers("RULE", "SYMBOL", "LINE", "MESSAGE").
			Rows(rows...)

		fmt.Fprintln(w, t)
	}

	total := 0
	for _, g := range res.Groups {
		for _, r := range g.Rows {
			total += r.Count
		}
	}
	fmt.Fprintf(w, "\n%s\n", s.Header.Render(fmt.Sprintf(
		"%d group(s), %d finding(s)", len(res.Groups), total)))

	return nil
}

// WriteTestText writes a single-symbol check result.
func WriteTestText(w io.Writer, fqn string, id metric.ID, res query.TestResult) error {
	s := DefaultStyles()

	if res.IsOk {
		fmt.Fprintf(w, "%s %s %s\n", s.Pass.Render("OK"), fqn, s.Muted.Render(string(id)))
		return nil
	}

	d := res.Details
	fmt.Fprintf(w, "%s %s %s = %s (%s)\n",
		s.Fail.Render("FAIL"), fqn, string(id),
		decimalCell(d.Value), s.StatusStyle(d.Status).Render(string(d.Status)))
	return nil
}

func groupDescription(g query.SarifGroup) string {
	seen := make(map[string]bool)
	var parts []string
	for _, r := range g.Rows {
		if r.Description != "" && !seen[r.Description] {
			seen[r.Description] = true
			parts = append(parts, r.Description)
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

func decimalCell(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return d.String()
}

func deltaCell(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	if d.IsPositive() {
		return "+" + d.String()
	}
	return d.String()
}

func lineCell(line int) string {
	if line == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", line)
}
