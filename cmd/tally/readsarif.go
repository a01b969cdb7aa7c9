package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/unbound-force/tally/internal/errs"
	"github.com/unbound-force/tally/internal/metric"
	"github.com/unbound-force/tally/internal/query"
	"github.com/unbound-force/tally/internal/report"
)

func errInvalidFormat(format string) error {
	return errs.Validation("invalid format %q: must be 'text' or 'json'", format)
}

// readSarifParams holds the parsed flags for the readsarif command.
type readSarifParams struct {
	reportPath        string
	namespace         string
	metricName        string
	kindName          string
	ruleID            string
	groupByName       string
	all               bool
	includeSuppressed bool
	format            string
	stdout            io.Writer
}

// runReadSarif is the extracted, testable body of the readsarif
// command.
func runReadSarif(p readSarifParams) error {
	if err := validateFormat(p.format); err != nil {
		return err
	}

	var id metric.ID
	if p.metricName != "" {
		var err error
		id, err = metric.ParseID(p.metricName)
		if err != nil {
			return err
		}
		if id != metric.SarifCaRuleViolations && id != metric.SarifIdeRuleViolations {
			return errs.Validation("metric %s carries no rule breakdown; use readsarif with ca or ide", id)
		}
	}

	kind, err := metric.ParseKind(p.kindName)
	if err != nil {
		return err
	}
	groupBy, err := query.ParseGroupBy(p.groupByName)
	if err != nil {
		return err
	}

	rep, err := report.LoadJSON(p.reportPath)
	if err != nil {
		return err
	}

	res := query.ReadSarif(rep, query.SarifOptions{
		Options: query.Options{
			Namespace:         p.namespace,
			Metric:            id,
			Kind:              kind,
			All:               p.all,
			IncludeSuppressed: p.includeSuppressed,
		},
		RuleID:  p.ruleID,
		GroupBy: groupBy,
	})

	if res.Empty() {
		logger.Info("no violations found",
			"namespace", p.namespace, "ruleId", p.ruleID)
	}

	switch p.format {
	case "json":
		return writeJSONPayload(p.stdout, res)
	default:
		return report.WriteSarifText(p.stdout, res)
	}
}

func newReadSarifCmd() *cobra.Command {
	p := readSarifParams{}

	cmd := &cobra.Command{
		Use:   "readsarif",
		Short: "Query analyzer rule findings from the report",
		Long: `Expand the per-rule SARIF breakdowns into violation rows,
optionally filtered to one rule ID, grouped by rule, method,
type, or namespace.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p.stdout = cmd.OutOrStdout()
			return runReadSarif(p)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&p.reportPath, "report", "r", "tally-report.json",
		"metrics report to query")
	f.StringVarP(&p.namespace, "namespace", "n", "",
		"fully-qualified-name prefix (empty matches all)")
	f.StringVarP(&p.metricName, "metric", "m", "",
		"restrict to one finding metric: ca or ide (default: both)")
	f.StringVarP(&p.kindName, "kind", "k", "any",
		"symbol kind: type, member, or any")
	f.StringVar(&p.ruleID, "rule-id", "",
		"restrict to one rule ID, e.g. CA1506")
	f.StringVarP(&p.groupByName, "group-by", "g", "rule",
		"group rows by: rule, method, type, or namespace")
	f.BoolVar(&p.all, "all", false,
		"return every finding instead of the most severe")
	f.BoolVar(&p.includeSuppressed, "include-suppressed", false,
		"count suppressed findings as violations")
	f.StringVar(&p.format, "format", "text",
		"output format: text or json")

	return cmd
}
