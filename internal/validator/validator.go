// Package validator applies structural checks over parsed metric families.
package validator

import (
	"github.com/devYaoYH/prometheus-proxy-gateway/internal/exposition"
)

// Validator is one structural check over a parsed family set.
type Validator interface {
	Validate(families map[string]*exposition.MetricFamily) error
}

// Chain applies a list of validators sequentially.
type Chain struct {
	validators []Validator
}

// NewChain constructs a validator chain. Domain-specific rules (naming
// conventions, required labels) slot in here without touching the pipeline.
func NewChain(validators ...Validator) *Chain {
	return &Chain{validators: validators}
}

// Validate executes validators in order until an error occurs.
func (c *Chain) Validate(families map[string]*exposition.MetricFamily) error {
	if c == nil {
		return nil
	}
	for _, v := range c.validators {
		if err := v.Validate(families); err != nil {
			return err
		}
	}
	return nil
}
