package policy

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/safedep/safeguard/core/check"
	"gopkg.in/yaml.v3"
)

// Document is the effective policy in its configuration shape.
type Document struct {
	Policy map[string]string `yaml:"policy"`
	Checks map[string]bool   `yaml:"checks"`
}

// Document returns the resolved levels and the enabled state of every kind,
// keyed by configuration key.
func (c *Config) Document() Document {
	doc := Document{
		Policy: make(map[string]string, check.NumKinds),
		Checks: make(map[string]bool, check.NumKinds),
	}

	for _, kind := range kindSlots {
		doc.Policy[kind.Key()] = c.Level(kind).String()
		doc.Checks[kind.Key()] = c.Enabled(kind)
	}

	return doc
}

// YAML renders the document. Keys are sorted.
func (d Document) YAML() (string, error) {
	data, err := yaml.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("failed to marshal policy: %w", err)
	}
	return string(data), nil
}

// Diff returns a unified diff from one document to another. It is empty
// when they are identical.
func Diff(from, to Document, fromName, toName string) (string, error) {
	a, err := from.YAML()
	if err != nil {
		return "", err
	}
	b, err := to.YAML()
	if err != nil {
		return "", err
	}

	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(a),
		B:        difflib.SplitLines(b),
		FromFile: fromName,
		ToFile:   toName,
		Context:  3,
	})
}
