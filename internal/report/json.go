// Package report renders the consolidated metrics report: stable
// JSON for machine consumption and baseline storage, styled text for
// terminals, and a self-contained HTML dashboard.
package report

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/unbound-force/tally/internal/errs"
	"github.com/unbound-force/tally/internal/tree"
)

// WriteJSON writes the report as formatted JSON. Metric values are
// plain numbers with exact decimal rendering, so a written report
// reloads and re-serializes byte-for-byte stable.
func WriteJSON(w io.Writer, rep *tree.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// SaveJSON writes the report to path, creating parent directories as
// needed.
func SaveJSON(path string, rep *tree.Report) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errs.IO("creating report directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return errs.IO("creating report file: %w", err)
	}
	defer f.Close()

	if err := WriteJSON(f, rep); err != nil {
		return errs.IO("writing report %s: %w", path, err)
	}
	return nil
}

// LoadJSON reads a previously written report. Child indexes are
// rebuilt so name lookups work on the loaded tree.
func LoadJSON(path string) (*tree.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.IO("reading report: %w", err)
	}

	var rep tree.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, errs.Parsing("malformed report %s: %w", path, err)
	}
	if rep.Solution == nil {
		return nil, errs.Parsing("report %s has no solution node", path)
	}

	rep.Solution.Reindex()
	return &rep, nil
}
