package types

import (
	"fmt"
	"math"
)

const DefaultOtherLabel = "Other"

// Options configure an aggregation.
type Options struct {
	// Threshold is the lowest percentage represented by its own row.
	// Groups below it are collapsed into a single row labelled OtherLabel.
	// Only valid for percentages.
	Threshold *float64 `json:"threshold,omitempty" yaml:"threshold,omitempty"`

	// OtherLabel is used for every key component of the collapsed row.
	OtherLabel string `json:"otherLabel,omitempty" yaml:"otherLabel,omitempty"`
}

func (o Options) IsEmpty() bool {
	return o.Threshold == nil && o.OtherLabel == ""
}

// Other returns the label for collapsed groups.
func (o Options) Other() string {
	if o.OtherLabel == "" {
		return DefaultOtherLabel
	}
	return o.OtherLabel
}

// WithThreshold returns a copy of the options with the threshold set.
func (o Options) WithThreshold(t float64) Options {
	o.Threshold = &t
	return o
}

// Validate checks the options against the aggregation they configure.
func (o Options) Validate(kind Kind) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown aggregation kind %q", kind)
	}

	if o.Threshold == nil {
		return nil
	}

	if kind != KindPercentages {
		return fmt.Errorf("threshold is only supported by %s", KindPercentages)
	}

	t := *o.Threshold
	if math.IsNaN(t) || t < 0 || t > 100 {
		return fmt.Errorf("threshold must be between 0 and 100, got %v", t)
	}

	return nil
}
