package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	charmlog "github.com/charmbracelet/log"

	"github.com/unbound-force/tally/internal/errs"
)

// Archive moves an existing report at path into dir under a
// timestamped name before a new report overwrites it, keeping a
// history of prior runs for baseline comparison. A missing report is
// a no-op, not an error.
func Archive(path, dir string, now time.Time) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errs.IO("checking report %s: %w", path, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errs.IO("creating archive directory: %w", err)
	}

	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := base[:len(base)-len(ext)]
	dest := filepath.Join(dir, fmt.Sprintf("%s-%s%s", stem, now.UTC().Format("20060102-150405"), ext))

	if err := os.Rename(path, dest); err != nil {
		// Rename fails across filesystems; fall back to copy.
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			return "", errs.IO("archiving report %s: %w", path, err)
		}
		if werr := os.WriteFile(dest, data, 0o644); werr != nil {
			return "", errs.IO("archiving report to %s: %w", dest, werr)
		}
		if rerr := os.Remove(path); rerr != nil {
			charmlog.Warn("could not remove archived report", "path", path, "err", rerr)
		}
	}

	charmlog.Debug("archived previous report", "from", path, "to", dest)
	return dest, nil
}
