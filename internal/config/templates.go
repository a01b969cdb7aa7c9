package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/unbound-force/tally/internal/errs"
)

// starterComment heads the generated config file.
const starterComment = `# tally configuration.
# Precedence: CLI flag > TALLY_* environment variable > this file > default.
`

// WriteStarter writes a commented starter config to path. An existing
// file is never overwritten.
func WriteStarter(path string) error {
	if _, err := os.Stat(path); err == nil {
		return errs.Validation("config file %s already exists", path)
	}

	cfg := Default()
	cfg.Inputs.Coverage = []string{"coverage.xml"}
	cfg.Inputs.Roslyn = []string{"metrics.xml"}
	cfg.Inputs.Sarif = []string{"analysis.sarif"}
	cfg.Output.HTML = "tally-report.html"
	cfg.Output.ArchiveDir = "tally-history"

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errs.Validation("rendering starter config: %w", err)
	}

	if err := os.WriteFile(path, append([]byte(starterComment), data...), 0o644); err != nil {
		return errs.IO("writing config file %s: %w", path, err)
	}
	return nil
}
