// Package suppress loads the suppressed-symbols list produced by the
// external suppression-attribute scanner and answers match queries
// during threshold evaluation. The core never re-scans source code;
// it only consumes the JSON list.
package suppress

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/unbound-force/tally/internal/errs"
	"github.com/unbound-force/tally/internal/metric"
	"github.com/unbound-force/tally/internal/symbol"
)

// Entry is one recorded suppression: a symbol opted out of one
// metric (or one SARIF rule) with an optional justification.
type Entry struct {
	FilePath           string `json:"filePath,omitempty"`
	FullyQualifiedName string `json:"fullyQualifiedName"`
	RuleID             string `json:"ruleId,omitempty"`
	Metric             string `json:"metric,omitempty"`
	Justification      string `json:"justification,omitempty"`
}

type document struct {
	SuppressedSymbols []Entry `json:"suppressedSymbols"`
}

// Set indexes suppressions by canonical symbol name.
type Set struct {
	byFQN map[string][]Entry
}

// NewSet builds a set from entries, canonicalizing each symbol name
// with the same normalizer used by the merge step.
func NewSet(entries []Entry) *Set {
	s := &Set{byFQN: make(map[string][]Entry, len(entries))}
	for _, e := range entries {
		fqn := symbol.Normalize(e.FullyQualifiedName)
		s.byFQN[fqn] = append(s.byFQN[fqn], e)
	}
	return s
}

// Load reads and validates a suppressed-symbols JSON file. An empty
// path yields an empty set.
func Load(path string) (*Set, error) {
	if path == "" {
		return NewSet(nil), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.IO("reading suppressions: %w", err)
	}
	if err := validate(data); err != nil {
		return nil, errs.Validation("suppressions file: %w", err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errs.Parsing("decoding suppressions: %w", err)
	}
	return NewSet(doc.SuppressedSymbols), nil
}

// Match returns the suppression entry covering the given symbol and
// metric, if any. Only metric-name entries match here; rule ID
// entries apply per breakdown rule through MatchRule and never
// silence a whole metric on their own.
func (s *Set) Match(fqn string, id metric.ID) (Entry, bool) {
	for _, e := range s.byFQN[fqn] {
		if e.Metric == "" {
			continue
		}
		if mid, err := metric.ParseID(e.Metric); err == nil && mid == id {
			return e, true
		}
	}
	return Entry{}, false
}

// MatchRule returns the suppression entry covering one SARIF rule on
// one symbol, if any.
func (s *Set) MatchRule(fqn, ruleID string) (Entry, bool) {
	for _, e := range s.byFQN[fqn] {
		if e.RuleID != "" && strings.EqualFold(e.RuleID, ruleID) {
			return e, true
		}
	}
	return Entry{}, false
}

func validate(data []byte) error {
	sch, err := jsonschema.UnmarshalJSON(strings.NewReader(Schema))
	if err != nil {
		return err
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("suppressions.schema.json", sch); err != nil {
		return err
	}
	compiled, err := compiler.Compile("suppressions.schema.json")
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return err
	}
	return compiled.Validate(inst)
}

// Schema is the JSON Schema (Draft 2020-12) for the suppressed-
// symbols document.
const Schema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://github.com/unbound-force/tally/suppressions.schema.json",
  "title": "Tally Suppressed Symbols",
  "type": "object",
  "required": ["suppressedSymbols"],
  "properties": {
    "suppressedSymbols": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["fullyQualifiedName"],
        "properties": {
          "filePath": { "type": "string" },
          "fullyQualifiedName": { "type": "string" },
          "ruleId": { "type": "string" },
          "metric": { "type": "string" },
          "justification": { "type": "string" }
        },
        "additionalProperties": false
      }
    }
  },
  "additionalProperties": false
}`
