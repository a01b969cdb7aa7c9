// Package pipeline orchestrates the generate use case: validate
// configuration, parse every input concurrently, filter, merge into
// the report tree, diff against the baseline, evaluate thresholds and
// suppressions, and write the outputs.
package pipeline

import (
	"context"
	"os"
	"time"

	charmlog "github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/unbound-force/tally/internal/config"
	"github.com/unbound-force/tally/internal/errs"
	"github.com/unbound-force/tally/internal/metric"
	"github.com/unbound-force/tally/internal/report"
	"github.com/unbound-force/tally/internal/source"
	"github.com/unbound-force/tally/internal/suppress"
	"github.com/unbound-force/tally/internal/symbol"
	"github.com/unbound-force/tally/internal/threshold"
	"github.com/unbound-force/tally/internal/tree"
)

// job is one input file bound to its parser. Jobs keep their input
// order so document merging stays deterministic.
type job struct {
	parser source.Parser
	path   string
}

// Generate runs the full pipeline and returns the evaluated report.
// Configuration problems are detected before any parsing begins, so
// a bad run never partially executes.
func Generate(ctx context.Context, cfg *config.Config, toolVersion string) (*tree.Report, error) {
	if !cfg.HasInputs() {
		return nil, errs.Validation("no input files configured: set inputs.coverage, inputs.roslyn, inputs.sarif, or enable inputs.gocover")
	}

	// Threshold and suppression files are validated up front.
	table, err := threshold.Load(cfg.Thresholds)
	if err != nil {
		return nil, err
	}
	sup, err := suppress.Load(cfg.Suppressions)
	if err != nil {
		return nil, err
	}

	jobs := buildJobs(cfg)
	docs, err := parseAll(ctx, jobs)
	if err != nil {
		return nil, err
	}

	filterDocs(docs, cfg.Filters)

	rep, err := tree.Build(docs, tree.BuildOptions{
		SolutionName: cfg.SolutionName,
		ToolVersion:  toolVersion,
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	baseline, err := loadBaseline(cfg)
	if err != nil {
		return nil, err
	}
	tree.ApplyBaseline(rep, baseline)
	tree.Evaluate(rep, table, sup)

	if err := writeOutputs(cfg, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

func buildJobs(cfg *config.Config) []job {
	var jobs []job
	for _, p := range cfg.Inputs.Coverage {
		jobs = append(jobs, job{source.OpenCoverParser{}, p})
	}
	for _, p := range cfg.Inputs.Roslyn {
		jobs = append(jobs, job{source.RoslynParser{}, p})
	}
	for _, p := range cfg.Inputs.Sarif {
		jobs = append(jobs, job{source.SarifParser{}, p})
	}
	if gc := cfg.Inputs.GoCover; gc.Enabled {
		jobs = append(jobs, job{source.GoCoverParser{
			ModuleDir:   gc.ModuleDir,
			Packages:    gc.Packages,
			TestTimeout: gc.TestTimeout,
		}, gc.Profile})
	}
	return jobs
}

// parseAll fans out one goroutine per input and joins before
// returning. Documents come back in job order regardless of which
// parse finished first; the first failure cancels the rest.
func parseAll(ctx context.Context, jobs []job) ([]*source.Document, error) {
	docs := make([]*source.Document, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	for i, j := range jobs {
		g.Go(func() error {
			start := time.Now()
			doc, err := j.parser.Parse(ctx, j.path)
			if err != nil {
				return err
			}
			charmlog.Debug("parsed input",
				"format", j.parser.Format(), "path", j.path,
				"elements", len(doc.Elements), "took", time.Since(start))
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

// filterDocs drops excluded elements in place. Assembly patterns
// match the reported assembly name; type and member patterns match
// canonical names.
func filterDocs(docs []*source.Document, f config.FiltersConfig) {
	if f.Assemblies == "" && f.Types == "" && f.Members == "" {
		return
	}
	asmFilter := symbol.NewAssemblyFilter(f.Assemblies)
	typeFilter := symbol.NewNameFilter(f.Types)
	memberFilter := symbol.NewNameFilter(f.Members)

	for _, doc := range docs {
		kept := doc.Elements[:0]
		for _, e := range doc.Elements {
			if excluded(e, asmFilter, typeFilter, memberFilter) {
				charmlog.Debug("filtered out element", "kind", e.Kind, "fqn", e.FQN)
				continue
			}
			kept = append(kept, e)
		}
		doc.Elements = kept
	}
}

func excluded(e source.Element, asm *symbol.AssemblyFilter, types, members *symbol.NameFilter) bool {
	if e.Assembly != "" && asm.ShouldExclude(e.Assembly) {
		return true
	}
	fqn := symbol.Normalize(e.FQN)
	switch e.Kind {
	case metric.KindType:
		return types.ShouldExclude(fqn)
	case metric.KindMember:
		return members.ShouldExclude(fqn)
	default:
		return false
	}
}

// loadBaseline reads the prior report for delta computation. The
// explicit baseline path must exist; the implicit one (the previous
// report output) may be absent on a first run.
func loadBaseline(cfg *config.Config) (*tree.Report, error) {
	path := cfg.Output.Baseline
	implicit := path == ""
	if implicit {
		path = cfg.Output.Report
	}

	if _, err := os.Stat(path); err != nil {
		if implicit && os.IsNotExist(err) {
			charmlog.Debug("no baseline found, all deltas null", "path", path)
			return nil, nil
		}
		return nil, errs.IO("reading baseline %s: %w", path, err)
	}
	return report.LoadJSON(path)
}

func writeOutputs(cfg *config.Config, rep *tree.Report) error {
	if cfg.Output.ArchiveDir != "" {
		if _, err := report.Archive(cfg.Output.Report, cfg.Output.ArchiveDir, time.Now()); err != nil {
			return err
		}
	}

	if err := report.SaveJSON(cfg.Output.Report, rep); err != nil {
		return err
	}
	charmlog.Info("wrote report", "path", cfg.Output.Report)

	if cfg.Output.HTML != "" {
		if err := report.SaveHTML(cfg.Output.HTML, rep); err != nil {
			return err
		}
		charmlog.Info("wrote HTML report", "path", cfg.Output.HTML)
	}
	return nil
}
