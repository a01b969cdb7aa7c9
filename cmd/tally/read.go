package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/unbound-force/tally/internal/metric"
	"github.com/unbound-force/tally/internal/query"
	"github.com/unbound-force/tally/internal/report"
)

// readParams holds the parsed flags for the read command.
type readParams struct {
	reportPath        string
	namespace         string
	metricName        string
	kindName          string
	all               bool
	includeSuppressed bool
	format            string
	interactive       bool
	stdout            io.Writer
}

// runRead is the extracted, testable body of the read command.
func runRead(p readParams) error {
	if err := validateFormat(p.format); err != nil {
		return err
	}

	id, err := metric.ParseID(p.metricName)
	if err != nil {
		return err
	}
	kind, err := metric.ParseKind(p.kindName)
	if err != nil {
		return err
	}

	rep, err := report.LoadJSON(p.reportPath)
	if err != nil {
		return err
	}

	res := query.ReadAny(rep, query.Options{
		Namespace:         p.namespace,
		Metric:            id,
		Kind:              kind,
		All:               p.all,
		IncludeSuppressed: p.includeSuppressed,
	})

	if res.Empty() {
		logger.Info("no violations found",
			"namespace", p.namespace, "metric", id)
	}

	if p.interactive {
		return runInteractiveRead(res)
	}

	switch p.format {
	case "json":
		return writeJSONPayload(p.stdout, res)
	default:
		return report.WriteText(p.stdout, res)
	}
}

func newReadCmd() *cobra.Command {
	p := readParams{}

	cmd := &cobra.Command{
		Use:   "read",
		Short: "Query threshold violations under a namespace prefix",
		Long: `Read the most severe threshold violation (or all of them with
--all) for one metric under a namespace prefix. An empty result
is a success with a distinct "no violations found" payload.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p.stdout = cmd.OutOrStdout()
			return runRead(p)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&p.reportPath, "report", "r", "tally-report.json",
		"metrics report to query")
	f.StringVarP(&p.namespace, "namespace", "n", "",
		"fully-qualified-name prefix (empty matches all)")
	f.StringVarP(&p.metricName, "metric", "m", "",
		"metric name or alias (required)")
	f.StringVarP(&p.kindName, "kind", "k", "any",
		"symbol kind: type, member, or any")
	f.BoolVar(&p.all, "all", false,
		"return every violation instead of the most severe")
	f.BoolVar(&p.includeSuppressed, "include-suppressed", false,
		"count suppressed violations as violations")
	f.StringVar(&p.format, "format", "text",
		"output format: text or json")
	f.BoolVarP(&p.interactive, "interactive", "i", false,
		"browse violations in an interactive TUI")
	cobra.CheckErr(cmd.MarkFlagRequired("metric"))

	return cmd
}

func validateFormat(format string) error {
	if format != "text" && format != "json" {
		return errInvalidFormat(format)
	}
	return nil
}

func writeJSONPayload(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
