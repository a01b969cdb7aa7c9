package report

// Schema is the JSON Schema (Draft 2020-12) for the metrics report
// written by WriteJSON. It documents the structure consumers and
// baseline readers can rely on.
const Schema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://github.com/unbound-force/tally/metrics-report.schema.json",
  "title": "Tally Metrics Report",
  "description": "Consolidated code metrics report produced by tally generate",
  "type": "object",
  "required": ["metadata", "solution"],
  "properties": {
    "metadata": { "$ref": "#/$defs/Metadata" },
    "solution": { "$ref": "#/$defs/Node" }
  },
  "$defs": {
    "Metadata": {
      "type": "object",
      "required": ["generatedAt", "schemaVersion"],
      "properties": {
        "generatedAt": {
          "type": "string",
          "format": "date-time"
        },
        "toolVersion": { "type": "string" },
        "schemaVersion": { "type": "string" },
        "sourceFiles": {
          "type": "array",
          "items": { "type": "string" }
        },
        "ruleDescriptions": {
          "type": "object",
          "additionalProperties": { "$ref": "#/$defs/RuleDescription" }
        }
      }
    },
    "RuleDescription": {
      "type": "object",
      "properties": {
        "short": { "type": "string" },
        "full": { "type": "string" }
      }
    },
    "Node": {
      "type": "object",
      "required": ["kind", "name", "fullyQualifiedName"],
      "properties": {
        "kind": {
          "type": "string",
          "enum": ["Solution", "Assembly", "Namespace", "Type", "Member"]
        },
        "name": { "type": "string" },
        "fullyQualifiedName": { "type": "string" },
        "location": { "$ref": "#/$defs/Location" },
        "metrics": {
          "type": "object",
          "additionalProperties": { "$ref": "#/$defs/Value" }
        },
        "children": {
          "type": "array",
          "items": { "$ref": "#/$defs/Node" }
        }
      }
    },
    "Location": {
      "type": "object",
      "properties": {
        "filePath": { "type": "string" },
        "startLine": { "type": "integer" },
        "endLine": { "type": "integer" }
      }
    },
    "Value": {
      "type": "object",
      "required": ["status"],
      "properties": {
        "value": { "type": "number" },
        "delta": { "type": "number" },
        "status": {
          "type": "string",
          "enum": ["NotApplicable", "Success", "Warning", "Error"]
        },
        "suppressed": { "type": "boolean" },
        "justification": { "type": "string" },
        "breakdown": {
          "type": "object",
          "additionalProperties": { "$ref": "#/$defs/RuleBreakdown" }
        }
      }
    },
    "RuleBreakdown": {
      "type": "object",
      "required": ["count"],
      "properties": {
        "count": { "type": "integer" },
        "description": { "type": "string" },
        "suppressed": { "type": "boolean" },
        "justification": { "type": "string" },
        "violations": {
          "type": "array",
          "items": { "$ref": "#/$defs/Violation" }
        }
      }
    },
    "Violation": {
      "type": "object",
      "properties": {
        "filePath": { "type": "string" },
        "startLine": { "type": "integer" },
        "endLine": { "type": "integer" },
        "message": { "type": "string" }
      }
    }
  }
}`
