package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/unbound-force/tally/internal/errs"
	"github.com/unbound-force/tally/internal/metric"
	"github.com/unbound-force/tally/internal/query"
	"github.com/unbound-force/tally/internal/report"
)

// testParams holds the parsed flags for the test command.
type testParams struct {
	reportPath        string
	symbol            string
	metricName        string
	includeSuppressed bool
	format            string
	stdout            io.Writer
}

// runTest is the extracted, testable body of the test command. A
// failing check returns a validation error so CI pipelines get a
// non-zero exit alongside the payload.
func runTest(p testParams) error {
	if err := validateFormat(p.format); err != nil {
		return err
	}

	id, err := metric.ParseID(p.metricName)
	if err != nil {
		return err
	}

	rep, err := report.LoadJSON(p.reportPath)
	if err != nil {
		return err
	}

	res := query.Test(rep, p.symbol, id, p.includeSuppressed)

	switch p.format {
	case "json":
		if err := writeJSONPayload(p.stdout, res); err != nil {
			return err
		}
	default:
		if err := report.WriteTestText(p.stdout, p.symbol, id, res); err != nil {
			return err
		}
	}

	if !res.IsOk {
		return errs.Validation("%s fails %s threshold", p.symbol, id)
	}
	return nil
}

func newTestCmd() *cobra.Command {
	p := testParams{}

	cmd := &cobra.Command{
		Use:   "test [symbol]",
		Short: "Check one symbol against its thresholds",
		Long: `Check a single symbol by exact fully-qualified name for one
metric. Passes when the symbol is absent, its status is passing,
or the violation is suppressed (unless --include-suppressed).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p.symbol = args[0]
			p.stdout = cmd.OutOrStdout()
			return runTest(p)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&p.reportPath, "report", "r", "tally-report.json",
		"metrics report to query")
	f.StringVarP(&p.metricName, "metric", "m", "",
		"metric name or alias (required)")
	f.BoolVar(&p.includeSuppressed, "include-suppressed", false,
		"fail on suppressed violations too")
	f.StringVar(&p.format, "format", "text",
		"output format: text or json")
	cobra.CheckErr(cmd.MarkFlagRequired("metric"))

	return cmd
}
