// Package metric defines the closed metric identifier set, symbol
// levels, threshold statuses, and the boundary alias table used to
// resolve user-supplied metric names.
package metric

import (
	"fmt"
	"strings"
)

// ID enumerates all supported metric identifiers. The set is closed:
// internal logic operates on ID values only, and user-facing strings
// are resolved through ParseID at the boundary.
type ID string

// Coverage metrics (OpenCover/AltCover XML, Go cover profiles).
const (
	SequenceCoverage             ID = "SequenceCoverage"
	BranchCoverage               ID = "BranchCoverage"
	CoverageCyclomaticComplexity ID = "CoverageCyclomaticComplexity"
	NPathComplexity              ID = "NPathComplexity"
)

// Static-analysis metrics (Roslyn code metrics XML).
const (
	RoslynMaintainabilityIndex ID = "RoslynMaintainabilityIndex"
	RoslynCyclomaticComplexity ID = "RoslynCyclomaticComplexity"
	RoslynClassCoupling        ID = "RoslynClassCoupling"
	RoslynDepthOfInheritance   ID = "RoslynDepthOfInheritance"
	RoslynSourceLines          ID = "RoslynSourceLines"
	RoslynExecutableLines      ID = "RoslynExecutableLines"
)

// Analyzer finding counts (SARIF 2.1 JSON).
const (
	SarifCaRuleViolations  ID = "SarifCaRuleViolations"
	SarifIdeRuleViolations ID = "SarifIdeRuleViolations"
)

// All lists every metric identifier in stable display order.
var All = []ID{
	SequenceCoverage,
	BranchCoverage,
	CoverageCyclomaticComplexity,
	NPathComplexity,
	RoslynMaintainabilityIndex,
	RoslynCyclomaticComplexity,
	RoslynClassCoupling,
	RoslynDepthOfInheritance,
	RoslynSourceLines,
	RoslynExecutableLines,
	SarifCaRuleViolations,
	SarifIdeRuleViolations,
}

// Kind identifies the level of a node in the report hierarchy.
type Kind string

// Symbol level constants, root first.
const (
	KindSolution  Kind = "Solution"
	KindAssembly  Kind = "Assembly"
	KindNamespace Kind = "Namespace"
	KindType      Kind = "Type"
	KindMember    Kind = "Member"
)

// Levels lists the symbol levels from root to leaf.
var Levels = []Kind{KindSolution, KindAssembly, KindNamespace, KindType, KindMember}

// Status is the terminal threshold classification of a metric value.
type Status string

// Threshold status constants, ordered by severity.
const (
	StatusNotApplicable Status = "NotApplicable"
	StatusSuccess       Status = "Success"
	StatusWarning       Status = "Warning"
	StatusError         Status = "Error"
)

// Severity returns a comparable rank for a status. Higher is worse.
func (s Status) Severity() int {
	switch s {
	case StatusError:
		return 3
	case StatusWarning:
		return 2
	case StatusSuccess:
		return 1
	default:
		return 0
	}
}

// HigherIsBetter reports the default direction for a metric: true
// when larger values are healthier (coverage, maintainability), false
// when larger values indicate decay (complexity, coupling, findings).
func (id ID) HigherIsBetter() bool {
	switch id {
	case SequenceCoverage, BranchCoverage, RoslynMaintainabilityIndex:
		return true
	default:
		return false
	}
}

// aliasTable maps lowercase user-facing names to metric identifiers.
// This is the only place raw strings are interpreted.
var aliasTable = map[string]ID{
	"sequencecoverage":             SequenceCoverage,
	"coverage":                     SequenceCoverage,
	"branchcoverage":               BranchCoverage,
	"coveragecyclomaticcomplexity": CoverageCyclomaticComplexity,
	"npathcomplexity":              NPathComplexity,
	"npath":                        NPathComplexity,
	"roslynmaintainabilityindex":   RoslynMaintainabilityIndex,
	"maintainability":              RoslynMaintainabilityIndex,
	"mi":                           RoslynMaintainabilityIndex,
	"roslyncyclomaticcomplexity":   RoslynCyclomaticComplexity,
	"complexity":                   RoslynCyclomaticComplexity,
	"roslynclasscoupling":          RoslynClassCoupling,
	"coupling":                     RoslynClassCoupling,
	"roslyndepthofinheritance":     RoslynDepthOfInheritance,
	"inheritance":                  RoslynDepthOfInheritance,
	"roslynsourcelines":            RoslynSourceLines,
	"roslynexecutablelines":        RoslynExecutableLines,
	"sarifcaruleviolations":        SarifCaRuleViolations,
	"ca":                           SarifCaRuleViolations,
	"sarifideruleviolations":       SarifIdeRuleViolations,
	"ide":                          SarifIdeRuleViolations,
}

// ParseID resolves a user-supplied metric name or alias to an ID.
// Matching is case-insensitive.
func ParseID(name string) (ID, error) {
	id, ok := aliasTable[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("unknown metric %q", name)
	}
	return id, nil
}

// ParseKind resolves a user-supplied symbol kind. "any" matches both
// types and members and is represented by the empty Kind.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "any":
		return "", nil
	case "solution":
		return KindSolution, nil
	case "assembly":
		return KindAssembly, nil
	case "namespace":
		return KindNamespace, nil
	case "type":
		return KindType, nil
	case "member", "method":
		return KindMember, nil
	default:
		return "", fmt.Errorf("unknown symbol kind %q", name)
	}
}
