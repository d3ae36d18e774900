// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// TODO: The gojsonschema library is quite old with no updates. It might be worth looking to see if there's a newer maintained
// alternative.
// ValidateDocument validates a parsed document against a JSON schema
func ValidateDocument(schema map[string]interface{}, doc map[string]interface{}) error {
	// Convert the schema to JSON
	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("schema validation error: failed to serialize schema: %w", err)
	}

	// Use gojsonschema's loader to ensure proper schema format
	schemaLoader := gojsonschema.NewBytesLoader(schemaBytes)

	// Convert the document to JSON too for consistency
	docBytes, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("schema validation error: failed to serialize document: %w", err)
	}
	documentLoader := gojsonschema.NewBytesLoader(docBytes)

	// Validate using the properly formatted schema
	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	// Check validation result
	if !result.Valid() {
		errorMsg := "Request validation failed:\n"
		for _, err := range result.Errors() {
			errorMsg += fmt.Sprintf("- %s\n", err)
		}
		return fmt.Errorf("%s", errorMsg)
	}

	return nil
}

// RunActionSchema describes the run-action request document. File-based
// requests are validated against it before they are bound to a typed struct,
// so a front-end gets field-level diagnostics instead of a zero-valued run.
func RunActionSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"mode", "action", "branch"},
		"properties": map[string]interface{}{
			"mode": map[string]interface{}{
				"type": "string",
				"enum": []interface{}{"local", "ssh"},
			},
			"action": map[string]interface{}{
				"type": "string",
				"enum": []interface{}{"pull", "push", "merge"},
			},
			"envKey":          map[string]interface{}{"type": "string"},
			"branch":          map[string]interface{}{"type": "string", "minLength": float64(1)},
			"localPath":       map[string]interface{}{"type": "string"},
			"remotePath":      map[string]interface{}{"type": "string"},
			"gitPath":         map[string]interface{}{"type": "string"},
			"sshPath":         map[string]interface{}{"type": "string"},
			"mergeFromBranch": map[string]interface{}{"type": "string"},
			"commitMessage":   map[string]interface{}{"type": "string"},
			"guard":           map[string]interface{}{"type": "string"},
			"ssh": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"host": map[string]interface{}{"type": "string"},
					"user": map[string]interface{}{"type": "string"},
					"port": map[string]interface{}{
						"type":    "integer",
						"minimum": float64(1),
						"maximum": float64(65535),
					},
					"keyPath": map[string]interface{}{"type": "string"},
				},
			},
		},
	}
}

// ValidateRunAction validates a run-action request document.
func ValidateRunAction(doc map[string]interface{}) error {
	return ValidateDocument(RunActionSchema(), doc)
}
