package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/unbound-force/tally/internal/config"
	"github.com/unbound-force/tally/internal/metric"
	"github.com/unbound-force/tally/internal/pipeline"
	"github.com/unbound-force/tally/internal/tree"
)

// generateParams holds the parsed flags for the generate command.
// Zero values mean "not set on the command line" and leave the
// config/env/file value in place.
type generateParams struct {
	configPath string

	coverage []string
	roslyn   []string
	sarif    []string
	gocover  bool

	solution     string
	thresholds   string
	suppressions string
	assemblies   string
	types        string
	members      string

	reportPath string
	baseline   string
	html       string
	archiveDir string

	changed func(name string) bool
	stdout  io.Writer
}

// runGenerate is the extracted, testable body of the generate command.
func runGenerate(ctx context.Context, p generateParams) error {
	cfg, err := config.Load(p.configPath)
	if err != nil {
		return err
	}
	applyGenerateFlags(cfg, p)

	rep, err := pipeline.Generate(ctx, cfg, version)
	if err != nil {
		return err
	}

	worst := tree.WorstStatus(rep, false)
	logger.Info("report generated",
		"solution", rep.Solution.Name,
		"status", worst,
		"sources", len(rep.Metadata.SourceFiles))

	fmt.Fprintf(p.stdout, "Report written to %s (overall: %s)\n",
		cfg.Output.Report, worst)
	return nil
}

// applyGenerateFlags layers explicitly set flags over the loaded
// configuration, completing the flag > env > file > default chain.
func applyGenerateFlags(cfg *config.Config, p generateParams) {
	set := p.changed
	if set == nil {
		set = func(string) bool { return false }
	}

	if set("coverage") {
		cfg.Inputs.Coverage = p.coverage
	}
	if set("roslyn") {
		cfg.Inputs.Roslyn = p.roslyn
	}
	if set("sarif") {
		cfg.Inputs.Sarif = p.sarif
	}
	if set("gocover") {
		cfg.Inputs.GoCover.Enabled = p.gocover
	}
	if set("solution") {
		cfg.SolutionName = p.solution
	}
	if set("thresholds") {
		cfg.Thresholds = p.thresholds
	}
	if set("suppressions") {
		cfg.Suppressions = p.suppressions
	}
	if set("filter-assemblies") {
		cfg.Filters.Assemblies = p.assemblies
	}
	if set("filter-types") {
		cfg.Filters.Types = p.types
	}
	if set("filter-members") {
		cfg.Filters.Members = p.members
	}
	if set("report") {
		cfg.Output.Report = p.reportPath
	}
	if set("baseline") {
		cfg.Output.Baseline = p.baseline
	}
	if set("html") {
		cfg.Output.HTML = p.html
	}
	if set("archive-dir") {
		cfg.Output.ArchiveDir = p.archiveDir
	}
}

func newGenerateCmd() *cobra.Command {
	p := generateParams{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Parse metric inputs and write the consolidated report",
		Long: `Parse all configured inputs (OpenCover/AltCover coverage XML,
Roslyn code metrics XML, SARIF 2.1 JSON, Go cover profiles),
merge them into one solution tree, diff against the baseline,
evaluate thresholds and suppressions, and write the JSON report.

Known metrics: ` + metricNames() + `.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			p.changed = func(name string) bool {
				f := flags.Lookup(name)
				return f != nil && f.Changed
			}
			p.stdout = cmd.OutOrStdout()
			return runGenerate(cmd.Context(), p)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&p.configPath, "config", "c", "",
		"config file (default: discovered .tally.yaml)")
	f.StringSliceVar(&p.coverage, "coverage", nil,
		"OpenCover/AltCover coverage XML files")
	f.StringSliceVar(&p.roslyn, "roslyn", nil,
		"Roslyn code metrics XML files")
	f.StringSliceVar(&p.sarif, "sarif", nil,
		"SARIF 2.1 JSON files")
	f.BoolVar(&p.gocover, "gocover", false,
		"include Go cover profile metrics")
	f.StringVar(&p.solution, "solution", "",
		"solution name for the report root")
	f.StringVar(&p.thresholds, "thresholds", "",
		"threshold config: JSON file path or inline JSON object")
	f.StringVar(&p.suppressions, "suppressions", "",
		"suppressed-symbols JSON file")
	f.StringVar(&p.assemblies, "filter-assemblies", "",
		"exclude assemblies containing any of these substrings (comma separated)")
	f.StringVar(&p.types, "filter-types", "",
		"exclude types matching these wildcard patterns")
	f.StringVar(&p.members, "filter-members", "",
		"exclude members matching these wildcard patterns")
	f.StringVarP(&p.reportPath, "report", "r", "",
		"JSON report output path")
	f.StringVar(&p.baseline, "baseline", "",
		"baseline report to diff against (default: previous report output)")
	f.StringVar(&p.html, "html", "",
		"additionally write an HTML dashboard here")
	f.StringVar(&p.archiveDir, "archive-dir", "",
		"archive the superseded report into this directory")

	return cmd
}

func metricNames() string {
	out := ""
	for i, id := range metric.All {
		if i > 0 {
			out += ", "
		}
		out += string(id)
	}
	return out
}
