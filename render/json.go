package render

import (
	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Records converts rows into one map per row keyed by the column headers.
func Records(t Tabular) ([]map[string]any, error) {
	rows, err := t.Rows()
	if err != nil {
		return nil, err
	}

	labels := t.Labels()
	valueLabel := t.Kind().ValueLabel()
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		record := make(map[string]any, len(labels)+1)
		for i, label := range labels {
			if i < len(row.Key) {
				record[label] = row.Key[i]
			}
		}
		record[valueLabel] = row.Tuple(t.Kind())[len(row.Key)]
		out = append(out, record)
	}
	return out, nil
}

type JSON struct {
	Indent bool
}

func (r JSON) Render(t Tabular) (string, error) {
	records, err := Records(t)
	if err != nil {
		return "", err
	}

	var b []byte
	if r.Indent {
		b, err = json.MarshalIndent(records, "", "  ")
	} else {
		b, err = json.Marshal(records)
	}
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}

type YAML struct{}

func (YAML) Render(t Tabular) (string, error) {
	records, err := Records(t)
	if err != nil {
		return "", err
	}

	b, err := yaml.Marshal(records)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
