package main

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
	k8syaml "sigs.k8s.io/yaml"

	"github.com/flanksource/graphene/types"
)

// Report describes an aggregation to run over a file of records.
type Report struct {
	Kind    types.Kind    `yaml:"kind,omitempty"`
	By      []string      `yaml:"by,omitempty"`
	Over    string        `yaml:"over,omitempty"`
	Output  string        `yaml:"output,omitempty"`
	Options types.Options `yaml:"options,omitempty"`
}

func LoadReport(path string) (Report, error) {
	var report Report
	data, err := os.ReadFile(path)
	if err != nil {
		return report, fmt.Errorf("failed to read report %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &report); err != nil {
		return report, fmt.Errorf("failed to parse report %s: %w", path, err)
	}
	return report, nil
}

// LoadRecords reads a JSON or YAML array of objects. "-" reads stdin.
func LoadRecords(path string) ([]map[string]any, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}

	return ParseRecords(data)
}

func ParseRecords(data []byte) ([]map[string]any, error) {
	var records []map[string]any
	if err := k8syaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse records: %w", err)
	}
	return records, nil
}
