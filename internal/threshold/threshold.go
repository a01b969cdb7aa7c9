// Package threshold holds the per-metric, per-symbol-level threshold
// table, its JSON configuration format, and the defaults applied when
// no configuration is given.
package threshold

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/shopspring/decimal"

	"github.com/unbound-force/tally/internal/errs"
	"github.com/unbound-force/tally/internal/metric"
)

// Threshold is a warning/error boundary pair for one metric at one
// symbol level. Nil boundaries are not enforced.
type Threshold struct {
	Warning *decimal.Decimal `json:"warning,omitempty"`
	Error   *decimal.Decimal `json:"error,omitempty"`

	// HigherIsBetter flips the comparison direction: when true, values
	// below a boundary violate it.
	HigherIsBetter bool `json:"higherIsBetter"`

	// PositiveDeltaNeutral keeps presentation from escalating a grown
	// value beyond its threshold status. It never changes the status.
	PositiveDeltaNeutral bool `json:"positiveDeltaNeutral,omitempty"`

	Description string `json:"description,omitempty"`
}

// Table maps metric and symbol level to a threshold. Lookup returns
// nil when a metric/level pair is unconstrained.
type Table struct {
	entries map[metric.ID]map[metric.Kind]*Threshold
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[metric.ID]map[metric.Kind]*Threshold)}
}

// Set registers a threshold for a metric at a symbol level.
func (t *Table) Set(id metric.ID, kind metric.Kind, th *Threshold) {
	levels, ok := t.entries[id]
	if !ok {
		levels = make(map[metric.Kind]*Threshold)
		t.entries[id] = levels
	}
	levels[kind] = th
}

// Lookup returns the threshold for a metric at a symbol level, or nil.
func (t *Table) Lookup(id metric.ID, kind metric.Kind) *Threshold {
	return t.entries[id][kind]
}

// Evaluate classifies one metric value against a threshold. A nil
// value is NotApplicable regardless of thresholds; a nil threshold
// yields Success for any measured value.
func Evaluate(value *decimal.Decimal, th *Threshold) metric.Status {
	if value == nil {
		return metric.StatusNotApplicable
	}
	if th == nil {
		return metric.StatusSuccess
	}
	if th.Error != nil && violates(*value, *th.Error, th.HigherIsBetter) {
		return metric.StatusError
	}
	if th.Warning != nil && violates(*value, *th.Warning, th.HigherIsBetter) {
		return metric.StatusWarning
	}
	return metric.StatusSuccess
}

func violates(value, bound decimal.Decimal, higherIsBetter bool) bool {
	if higherIsBetter {
		return value.LessThan(bound)
	}
	return value.GreaterThan(bound)
}

// configEntry is the JSON shape for one metric: an optional
// description plus per-level thresholds keyed by lowercase level
// name. HigherIsBetter defaults to the metric's natural direction
// when omitted.
type configEntry struct {
	Description string                     `json:"description,omitempty"`
	Levels      map[string]configThreshold `json:"levels"`
}

type configThreshold struct {
	Warning              *decimal.Decimal `json:"warning,omitempty"`
	Error                *decimal.Decimal `json:"error,omitempty"`
	HigherIsBetter       *bool            `json:"higherIsBetter,omitempty"`
	PositiveDeltaNeutral bool             `json:"positiveDeltaNeutral,omitempty"`
}

// Load reads the threshold configuration from a file path, or parses
// it inline when spec starts with "{". An empty spec yields the
// default table. The document is validated against ConfigSchema
// before decoding.
func Load(spec string) (*Table, error) {
	if spec == "" {
		return Defaults(), nil
	}

	var data []byte
	if strings.HasPrefix(strings.TrimSpace(spec), "{") {
		data = []byte(spec)
	} else {
		var err error
		data, err = os.ReadFile(spec)
		if err != nil {
			return nil, errs.IO("reading threshold config: %w", err)
		}
	}

	if err := validateConfig(data); err != nil {
		return nil, errs.Validation("threshold config: %w", err)
	}

	var raw map[string]configEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errs.Parsing("decoding threshold config: %w", err)
	}

	table := NewTable()
	for name, entry := range raw {
		id, err := metric.ParseID(name)
		if err != nil {
			return nil, errs.Validation("threshold config: %w", err)
		}
		for levelName, ct := range entry.Levels {
			kind, err := metric.ParseKind(levelName)
			if err != nil || kind == "" {
				return nil, errs.Validation("threshold config: bad symbol level %q", levelName)
			}
			higher := id.HigherIsBetter()
			if ct.HigherIsBetter != nil {
				higher = *ct.HigherIsBetter
			}
			table.Set(id, kind, &Threshold{
				Warning:              ct.Warning,
				Error:                ct.Error,
				HigherIsBetter:       higher,
				PositiveDeltaNeutral: ct.PositiveDeltaNeutral,
				Description:          entry.Description,
			})
		}
	}
	return table, nil
}

func validateConfig(data []byte) error {
	sch, err := jsonschema.UnmarshalJSON(strings.NewReader(ConfigSchema))
	if err != nil {
		return err
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("thresholds.schema.json", sch); err != nil {
		return err
	}
	compiled, err := compiler.Compile("thresholds.schema.json")
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return err
	}
	return compiled.Validate(inst)
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// Defaults is the threshold table used when no configuration is
// supplied. Boundaries follow the common guidance for each metric.
func Defaults() *Table {
	t := NewTable()

	memberAndType := []metric.Kind{metric.KindType, metric.KindMember}

	for _, k := range memberAndType {
		t.Set(metric.RoslynCyclomaticComplexity, k, &Threshold{
			Warning: dec("10"), Error: dec("20"),
		})
		t.Set(metric.NPathComplexity, k, &Threshold{
			Warning: dec("200"), Error: dec("1000"),
		})
		t.Set(metric.RoslynClassCoupling, k, &Threshold{
			Warning: dec("30"), Error: dec("60"),
		})
		t.Set(metric.RoslynMaintainabilityIndex, k, &Threshold{
			Warning: dec("20"), Error: dec("10"), HigherIsBetter: true,
		})
		t.Set(metric.SequenceCoverage, k, &Threshold{
			Warning: dec("60"), HigherIsBetter: true,
		})
		t.Set(metric.SarifCaRuleViolations, k, &Threshold{
			Warning: dec("0"),
		})
		t.Set(metric.SarifIdeRuleViolations, k, &Threshold{
			Warning: dec("0"),
		})
	}

	t.Set(metric.RoslynDepthOfInheritance, metric.KindType, &Threshold{
		Warning: dec("5"), Error: dec("8"),
	})

	return t
}
