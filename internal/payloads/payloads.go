// Package payloads holds the injection payload catalog used for security
// test data.
package payloads

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind selects a payload family.
type Kind string

const (
	KindAll  Kind = "all"
	KindSQLi Kind = "sqli"
	KindXSS  Kind = "xss"
)

// Group is one payload family with its display metadata.
type Group struct {
	Kind        Kind     `json:"kind" yaml:"kind"`
	Label       string   `json:"label" yaml:"label"`
	Description string   `json:"description" yaml:"description"`
	Payloads    []string `json:"payloads" yaml:"payloads"`
}

// Entry is a single payload tagged with its family.
type Entry struct {
	Kind    Kind   `json:"kind"`
	Label   string `json:"label"`
	Payload string `json:"payload"`
}

//go:embed catalog.yaml
var catalogYAML []byte

var catalog = mustLoad(catalogYAML)

func mustLoad(data []byte) []Group {
	var groups []Group
	if err := yaml.Unmarshal(data, &groups); err != nil {
		panic(fmt.Sprintf("payloads: invalid embedded catalog: %v", err))
	}
	return groups
}

// ParseKind converts user input into a Kind. Empty means all.
func ParseKind(value string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(value))); k {
	case "":
		return KindAll, nil
	case KindAll, KindSQLi, KindXSS:
		return k, nil
	default:
		return "", fmt.Errorf("unknown payload type %q (want all, sqli or xss)", value)
	}
}

// Groups returns a copy of the catalog.
func Groups() []Group {
	out := make([]Group, len(catalog))
	for i, g := range catalog {
		g.Payloads = append([]string(nil), g.Payloads...)
		out[i] = g
	}
	return out
}

// List flattens the payloads of one family, or of every family for KindAll.
func List(kind Kind) ([]Entry, error) {
	if kind == "" {
		kind = KindAll
	}
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}

	var entries []Entry
	for _, g := range catalog {
		if kind != KindAll && g.Kind != kind {
			continue
		}
		for _, p := range g.Payloads {
			entries = append(entries, Entry{Kind: g.Kind, Label: g.Label, Payload: p})
		}
	}
	return entries, nil
}

// Sample returns the first payload of a family, or "" when it has none.
func Sample(kind Kind) string {
	for _, g := range catalog {
		if g.Kind == kind && len(g.Payloads) > 0 {
			return g.Payloads[0]
		}
	}
	return ""
}
