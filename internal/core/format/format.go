// SPDX-License-Identifier: Apache-2.0

package format

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseFile reads and parses a file, trying YAML first, then JSON
func ParseFile(filePath string, v interface{}) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("error reading file: %w", err)
	}

	return ParseData(data, v)
}

// ParseData parses data, trying YAML first, then JSON
func ParseData(data []byte, v interface{}) error {
	// Try YAML first (preferred format)
	err := yaml.Unmarshal(data, v)
	if err == nil {
		return nil
	}

	// If YAML fails, try JSON for backward compatibility
	jsonErr := json.Unmarshal(data, v)
	if jsonErr == nil {
		return nil
	}

	// Both failed - return the more informative error
	return fmt.Errorf("failed to parse as YAML (%v) or JSON (%v)", err, jsonErr)
}

// ParseFileAsMap parses a file into a generic map, for schema validation of a
// document before it is bound to a typed request.
func ParseFileAsMap(filePath string) (map[string]interface{}, error) {
	doc := map[string]interface{}{}
	if err := ParseFile(filePath, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// WriteTo renders v to w as "json" or "yaml". The desktop front-end consumes
// JSON; YAML is for humans reading a trace in a terminal.
func WriteTo(w io.Writer, v interface{}, outputFormat string) error {
	s, err := FormatData(v, strings.EqualFold(outputFormat, "yaml"))
	if err != nil {
		return err
	}
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	_, err = io.WriteString(w, s)
	return err
}

// FormatData formats data as YAML or JSON string
func FormatData(v interface{}, useYAML bool) (string, error) {
	var data []byte
	var err error

	if useYAML {
		data, err = yaml.Marshal(v)
	} else {
		data, err = json.MarshalIndent(v, "", "  ")
	}

	if err != nil {
		return "", fmt.Errorf("error formatting data: %w", err)
	}

	return string(data), nil
}

// IsYAMLFile returns true if the file extension suggests it's a YAML file
func IsYAMLFile(filePath string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	return ext == ".yaml" || ext == ".yml"
}

// IsJSONFile returns true if the file extension suggests it's a JSON file
func IsJSONFile(filePath string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	return ext == ".json"
}
