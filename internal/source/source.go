// Package source contains the input-format parsers. Each parser
// turns one file into a flat Document of code elements carrying
// symbol identity and raw metric values; the tree builder merges
// documents from all sources into the hierarchical report.
package source

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/unbound-force/tally/internal/metric"
)

// Format names for the supported input kinds.
const (
	FormatOpenCover = "opencover"
	FormatRoslyn    = "roslyn"
	FormatSarif     = "sarif"
	FormatGoCover   = "gocover"
)

// Location is a source position attached to an element or finding.
// Zero line numbers mean the tool did not report a region.
type Location struct {
	FilePath  string `json:"filePath,omitempty"`
	StartLine int    `json:"startLine,omitempty"`
	EndLine   int    `json:"endLine,omitempty"`
}

// Element is one row produced by a parser: a symbol plus the raw
// metric values a single tool reported for it. Elements are ephemeral
// and discarded after the merge.
type Element struct {
	// Kind is the symbol level this row describes.
	Kind metric.Kind

	// Assembly is the containing assembly (module) name, when the
	// format reports one.
	Assembly string

	// FQN is the raw fully-qualified name as reported by the tool.
	// Canonicalization happens later, at merge time.
	FQN string

	// Values holds the raw metric values keyed by identifier.
	Values map[metric.ID]decimal.Decimal

	// Location is the symbol or finding position, when known.
	Location *Location

	// RuleID is set for SARIF findings only.
	RuleID string

	// Message is the finding message text (SARIF only).
	Message string

	// SourceFile is the input file this element came from, used for
	// duplicate-coverage conflict detection.
	SourceFile string
}

// RuleDescription is the short/full description pair a SARIF driver
// declares for a rule.
type RuleDescription struct {
	Short string `json:"short,omitempty"`
	Full  string `json:"full,omitempty"`
}

// Document is the result of parsing one input file.
type Document struct {
	Format     string
	SourceFile string
	Elements   []Element

	// RuleDescriptions is populated by the SARIF parser only.
	RuleDescriptions map[string]RuleDescription
}

// Parser is the contract every input format implements.
type Parser interface {
	// Format returns the format name for logging and dispatch.
	Format() string

	// Parse reads one file into a flat document. Malformed documents
	// fail; malformed individual elements are skipped with a log line.
	Parse(ctx context.Context, path string) (*Document, error)
}
