package validator

import (
	"fmt"
	"math"
	"strings"

	"github.com/devYaoYH/prometheus-proxy-gateway/internal/exposition"
)

// BasicValidator ensures the minimal structural properties every parsed
// family set must satisfy.
type BasicValidator struct{}

// Validate performs structural validation.
func (BasicValidator) Validate(families map[string]*exposition.MetricFamily) error {
	for name, fam := range families {
		if name == "" || fam.Name == "" {
			return fmt.Errorf("family with empty name")
		}
		for _, sample := range fam.Samples {
			if !strings.HasPrefix(sample.Name, fam.Name) {
				return fmt.Errorf("sample %q does not belong to family %q", sample.Name, fam.Name)
			}
			// Summary quantiles report NaN when nothing has been observed,
			// so NaN is tolerated there and nowhere else.
			if math.IsInf(sample.Value, 0) {
				return fmt.Errorf("sample %q has non-finite value", sample.Name)
			}
			if math.IsNaN(sample.Value) && fam.Type != exposition.TypeSummary {
				return fmt.Errorf("sample %q has non-finite value", sample.Name)
			}
			for key := range sample.Labels {
				if key == "" {
					return fmt.Errorf("sample %q has empty label name", sample.Name)
				}
			}
		}
	}
	return nil
}

// SuffixValidator checks that histogram and summary families carry samples
// consistent with their type suffix conventions.
type SuffixValidator struct{}

// Validate rejects histogram families whose series are neither the base name
// nor a recognized suffix series, and likewise for summaries.
func (SuffixValidator) Validate(families map[string]*exposition.MetricFamily) error {
	for _, fam := range families {
		switch fam.Type {
		case exposition.TypeHistogram:
			for _, sample := range fam.Samples {
				if !allowedSeries(fam.Name, sample.Name, "_bucket", "_count", "_sum", "_created") {
					return fmt.Errorf("histogram family %q has unexpected series %q", fam.Name, sample.Name)
				}
			}
		case exposition.TypeSummary:
			for _, sample := range fam.Samples {
				if !allowedSeries(fam.Name, sample.Name, "_count", "_sum", "_created") {
					return fmt.Errorf("summary family %q has unexpected series %q", fam.Name, sample.Name)
				}
			}
		}
	}
	return nil
}

func allowedSeries(family, sample string, suffixes ...string) bool {
	if sample == family {
		return true
	}
	for _, suffix := range suffixes {
		if sample == family+suffix {
			return true
		}
	}
	return false
}
