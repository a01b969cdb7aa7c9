package threshold

// ConfigSchema is the JSON Schema (Draft 2020-12) for the threshold
// configuration document: metric name (or alias) to description plus
// per-level warning/error boundaries.
const ConfigSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://github.com/unbound-force/tally/thresholds.schema.json",
  "title": "Tally Threshold Configuration",
  "type": "object",
  "additionalProperties": {
    "type": "object",
    "required": ["levels"],
    "properties": {
      "description": { "type": "string" },
      "levels": {
        "type": "object",
        "propertyNames": {
          "enum": ["solution", "assembly", "namespace", "type", "member",
                   "Solution", "Assembly", "Namespace", "Type", "Member"]
        },
        "additionalProperties": { "$ref": "#/$defs/Threshold" }
      }
    },
    "additionalProperties": false
  },
  "$defs": {
    "Threshold": {
      "type": "object",
      "properties": {
        "warning": { "type": "number" },
        "error": { "type": "number" },
        "higherIsBetter": { "type": "boolean" },
        "positiveDeltaNeutral": { "type": "boolean" }
      },
      "additionalProperties": false
    }
  }
}`
