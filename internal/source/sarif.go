package source

import (
	"context"
	"encoding/json"
	"net/url"
	"os"
	"regexp"
	"strings"

	charmlog "github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/unbound-force/tally/internal/errs"
	"github.com/unbound-force/tally/internal/metric"
)

// SarifParser reads SARIF 2.1 JSON and yields one member-level
// element per CA/IDE result, plus the driver rule descriptions for
// report metadata. Results whose rule ID does not match the fixed
// CA/IDE pattern are dropped with a log line, never an error, and an
// empty runs array is an empty result set.
type SarifParser struct{}

func (SarifParser) Format() string { return FormatSarif }

// ruleIDPattern is the only accepted rule ID shape.
var ruleIDPattern = regexp.MustCompile(`^(CA|IDE)\d{4}$`)

type sarifLog struct {
	Runs []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool struct {
		Driver struct {
			Rules []sarifRule `json:"rules"`
		} `json:"driver"`
	} `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifRule struct {
	ID               string    `json:"id"`
	ShortDescription sarifText `json:"shortDescription"`
	FullDescription  sarifText `json:"fullDescription"`
}

type sarifText struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Message   sarifText       `json:"message"`
	Locations []sarifLocation `json:"locations"`
}

type sarifLocation struct {
	PhysicalLocation struct {
		ArtifactLocation struct {
			URI string `json:"uri"`
		} `json:"artifactLocation"`
		Region struct {
			StartLine int `json:"startLine"`
			EndLine   int `json:"endLine"`
		} `json:"region"`
	} `json:"physicalLocation"`
	LogicalLocations []struct {
		FullyQualifiedName string `json:"fullyQualifiedName"`
	} `json:"logicalLocations"`
}

// Parse reads one SARIF file.
func (p SarifParser) Parse(ctx context.Context, path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.IO("reading SARIF file: %w", err)
	}

	var log sarifLog
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, errs.Parsing("malformed SARIF %s: %w", path, err)
	}

	doc := &Document{Format: FormatSarif, SourceFile: path}

	for _, run := range log.Runs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for _, rule := range run.Tool.Driver.Rules {
			if rule.ID == "" {
				continue
			}
			if doc.RuleDescriptions == nil {
				doc.RuleDescriptions = make(map[string]RuleDescription)
			}
			doc.RuleDescriptions[rule.ID] = RuleDescription{
				Short: rule.ShortDescription.Text,
				Full:  rule.FullDescription.Text,
			}
		}

		for _, res := range run.Results {
			id, ok := classifyRule(res.RuleID)
			if !ok {
				charmlog.Debug("dropping result with unsupported rule ID", "ruleId", res.RuleID, "file", path)
				continue
			}

			fqn := logicalName(res.Locations)
			if fqn == "" {
				charmlog.Debug("dropping result without a logical location", "ruleId", res.RuleID, "file", path)
				continue
			}

			doc.Elements = append(doc.Elements, Element{
				Kind:       metric.KindMember,
				FQN:        fqn,
				Values:     map[metric.ID]decimal.Decimal{id: decimal.NewFromInt(1)},
				Location:   physicalLocation(res.Locations),
				RuleID:     res.RuleID,
				Message:    res.Message.Text,
				SourceFile: path,
			})
		}
	}

	return doc, nil
}

func classifyRule(ruleID string) (metric.ID, bool) {
	if !ruleIDPattern.MatchString(ruleID) {
		return "", false
	}
	if strings.HasPrefix(ruleID, "CA") {
		return metric.SarifCaRuleViolations, true
	}
	return metric.SarifIdeRuleViolations, true
}

// logicalName returns the first logical fully-qualified name found in
// the result's locations.
func logicalName(locs []sarifLocation) string {
	for _, l := range locs {
		for _, ll := range l.LogicalLocations {
			if ll.FullyQualifiedName != "" {
				return ll.FullyQualifiedName
			}
		}
	}
	return ""
}

// physicalLocation extracts the first physical location, tolerating a
// missing region (null line numbers) or a missing location entirely.
func physicalLocation(locs []sarifLocation) *Location {
	for _, l := range locs {
		uri := l.PhysicalLocation.ArtifactLocation.URI
		region := l.PhysicalLocation.Region
		if uri == "" && region.StartLine == 0 {
			continue
		}
		return &Location{
			FilePath:  localPath(uri),
			StartLine: region.StartLine,
			EndLine:   region.EndLine,
		}
	}
	return nil
}

// localPath turns a SARIF artifact URI into a local filesystem path:
// file scheme stripped, percent-encoding decoded, and the leading
// slash removed ahead of a Windows drive letter.
func localPath(uri string) string {
	if uri == "" {
		return ""
	}
	u, err := url.Parse(uri)
	if err != nil || u.Scheme == "" {
		return uri
	}
	p := u.Path
	if len(p) >= 3 && p[0] == '/' && p[2] == ':' {
		p = p[1:]
	}
	return p
}
