package ml

const artifactSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["format", "classes", "estimator"],
  "properties": {
    "format": {"type": "string"},
    "classes": {
      "type": "array",
      "items": {"type": "integer"},
      "minItems": 2,
      "uniqueItems": true
    },
    "numeric": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "fill": {"type": "number"},
          "mean": {"type": "number"},
          "scale": {"type": "number"}
        }
      }
    },
    "categorical": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "categories"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "categories": {"type": "array", "items": {"type": "string"}, "minItems": 1},
          "fill": {"type": "string"}
        }
      }
    },
    "estimator": {
      "type": "object",
      "required": ["type"],
      "properties": {
        "type": {"enum": ["logistic_regression", "decision_tree", "random_forest"]},
        "coefficients": {"type": "array", "items": {"type": "number"}},
        "intercept": {"type": "number"},
        "nodes": {"type": "array"},
        "trees": {"type": "array"}
      }
    }
  }
}`
