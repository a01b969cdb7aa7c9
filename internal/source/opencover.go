package source

import (
	"context"
	"encoding/xml"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/unbound-force/tally/internal/errs"
	"github.com/unbound-force/tally/internal/metric"
)

// OpenCoverParser reads OpenCover/AltCover coverage XML. It yields
// type-level coverage summaries and member-level coverage plus
// cyclomatic/NPath complexity, with symbol identity taken from the
// IL-style method names the format carries.
type OpenCoverParser struct{}

func (OpenCoverParser) Format() string { return FormatOpenCover }

type ocSession struct {
	Modules []ocModule `xml:"Modules>Module"`
}

type ocModule struct {
	SkippedDueTo string    `xml:"skippedDueTo,attr"`
	ModuleName   string    `xml:"ModuleName"`
	Files        []ocFile  `xml:"Files>File"`
	Classes      []ocClass `xml:"Classes>Class"`
}

type ocFile struct {
	UID      string `xml:"uid,attr"`
	FullPath string `xml:"fullPath,attr"`
}

type ocClass struct {
	SkippedDueTo string     `xml:"skippedDueTo,attr"`
	FullName     string     `xml:"FullName"`
	Summary      ocSummary  `xml:"Summary"`
	Methods      []ocMethod `xml:"Methods>Method"`
}

type ocSummary struct {
	SequenceCoverage string `xml:"sequenceCoverage,attr"`
	BranchCoverage   string `xml:"branchCoverage,attr"`
}

type ocMethod struct {
	SkippedDueTo         string `xml:"skippedDueTo,attr"`
	CyclomaticComplexity string `xml:"cyclomaticComplexity,attr"`
	NPathComplexity      string `xml:"nPathComplexity,attr"`
	SequenceCoverage     string `xml:"sequenceCoverage,attr"`
	BranchCoverage       string `xml:"branchCoverage,attr"`
	Name                 string `xml:"Name"`
	FileRef              struct {
		UID string `xml:"uid,attr"`
	} `xml:"FileRef"`
	SequencePoints []struct {
		SL int `xml:"sl,attr"`
		EL int `xml:"el,attr"`
	} `xml:"SequencePoints>SequencePoint"`
}

// Parse reads one coverage XML file. Skipped modules and classes are
// ignored; malformed methods are skipped with a log line rather than
// failing the document.
func (p OpenCoverParser) Parse(ctx context.Context, path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.IO("reading coverage file: %w", err)
	}

	var session ocSession
	if err := xml.Unmarshal(data, &session); err != nil {
		return nil, errs.Parsing("malformed coverage XML %s: %w", path, err)
	}

	doc := &Document{Format: FormatOpenCover, SourceFile: path}

	for _, mod := range session.Modules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if mod.SkippedDueTo != "" {
			continue
		}

		files := make(map[string]string, len(mod.Files))
		for _, f := range mod.Files {
			files[f.UID] = f.FullPath
		}

		for _, cls := range mod.Classes {
			if cls.SkippedDueTo != "" || cls.FullName == "" {
				continue
			}

			doc.Elements = append(doc.Elements, Element{
				Kind:       metric.KindType,
				Assembly:   mod.ModuleName,
				FQN:        cls.FullName,
				Values:     coverageValues(cls.Summary.SequenceCoverage, cls.Summary.BranchCoverage, "", ""),
				SourceFile: path,
			})

			for _, m := range cls.Methods {
				if m.SkippedDueTo != "" {
					continue
				}
				if m.Name == "" {
					charmlog.Debug("skipping unnamed method", "class", cls.FullName, "file", path)
					continue
				}

				e := Element{
					Kind:     metric.KindMember,
					Assembly: mod.ModuleName,
					FQN:      m.Name,
					Values: coverageValues(
						m.SequenceCoverage, m.BranchCoverage,
						m.CyclomaticComplexity, m.NPathComplexity),
					SourceFile: path,
				}
				if loc := methodLocation(m, files); loc != nil {
					e.Location = loc
				}
				doc.Elements = append(doc.Elements, e)
			}
		}
	}

	return doc, nil
}

// coverageValues converts attribute strings to decimal metric values,
// dropping attributes that are absent or unparseable.
func coverageValues(seq, branch, cyclomatic, npath string) map[metric.ID]decimal.Decimal {
	values := make(map[metric.ID]decimal.Decimal, 4)
	put := func(id metric.ID, s string) {
		if s == "" {
			return
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			charmlog.Debug("unparseable coverage attribute", "metric", id, "value", s)
			return
		}
		values[id] = d
	}
	put(metric.SequenceCoverage, seq)
	put(metric.BranchCoverage, branch)
	put(metric.CoverageCyclomaticComplexity, cyclomatic)
	put(metric.NPathComplexity, npath)
	return values
}

func methodLocation(m ocMethod, files map[string]string) *Location {
	loc := &Location{FilePath: files[m.FileRef.UID]}
	if len(m.SequencePoints) > 0 {
		loc.StartLine = m.SequencePoints[0].SL
		loc.EndLine = m.SequencePoints[len(m.SequencePoints)-1].EL
	}
	if loc.FilePath == "" && loc.StartLine == 0 {
		return nil
	}
	return loc
}
