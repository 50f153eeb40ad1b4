// Package jsonutil formats and converts JSON documents without HTML escaping,
// so payloads such as <script> stay readable.
package jsonutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"sigs.k8s.io/yaml"
)

// MarshalNoEscape encodes v into JSON without escaping <, > and & as \u003c style sequences.
func MarshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// MarshalNoEscapeIndent is MarshalNoEscape with two-space indentation.
func MarshalNoEscapeIndent(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Pretty re-indents a JSON document with two spaces.
func Pretty(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(data), "", "  "); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	return buf.Bytes(), nil
}

// Minify removes insignificant whitespace.
func Minify(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, bytes.TrimSpace(data)); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	return buf.Bytes(), nil
}

// ToYAML converts a JSON document to YAML.
func ToYAML(data []byte) ([]byte, error) {
	out, err := yaml.JSONToYAML(data)
	if err != nil {
		return nil, fmt.Errorf("convert to yaml: %w", err)
	}
	return out, nil
}

// FromYAML converts a YAML document to JSON.
func FromYAML(data []byte) ([]byte, error) {
	out, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("convert from yaml: %w", err)
	}
	return out, nil
}

// Pair is one key/value row of a form-built object.
type Pair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// FromPairs builds an indented JSON object from pairs in input order. Blank
// keys are skipped; repeated keys collect their values into an array. The
// number of repeats is returned alongside the document.
func FromPairs(pairs []Pair) ([]byte, int, error) {
	var keys []string
	values := make(map[string][]string)
	duplicates := 0
	for _, p := range pairs {
		key := strings.TrimSpace(p.Key)
		if key == "" {
			continue
		}
		if _, ok := values[key]; ok {
			duplicates++
		} else {
			keys = append(keys, key)
		}
		values[key] = append(values[key], p.Value)
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := MarshalNoEscape(key)
		if err != nil {
			return nil, 0, err
		}
		var v []byte
		if vals := values[key]; len(vals) == 1 {
			v, err = MarshalNoEscape(vals[0])
		} else {
			v, err = MarshalNoEscape(vals)
		}
		if err != nil {
			return nil, 0, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')

	out, err := Pretty(buf.Bytes())
	if err != nil {
		return nil, 0, err
	}
	return out, duplicates, nil
}
