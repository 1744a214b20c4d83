package dispatch

import (
	"fmt"

	"github.com/kilianp07/wildfire/core/factory"
	"github.com/kilianp07/wildfire/core/model"
	"github.com/kilianp07/wildfire/core/resources"
)

const (
	PolicyCheapest      = "cheapest"
	PolicySeverityAware = "severity_aware"
)

// Policy picks the resource kind to commit for an incident. kinds is in pool
// insertion order; only kinds with available units may be returned.
type Policy interface {
	Name() string
	Select(kinds []resources.Kind, sev model.Severity) (string, bool)
}

// CheapestPolicy minimizes unit cost and ignores severity.
type CheapestPolicy struct{}

func (CheapestPolicy) Name() string { return PolicyCheapest }

func (CheapestPolicy) Select(kinds []resources.Kind, _ model.Severity) (string, bool) {
	return resources.Cheapest(kinds)
}

// SeverityAwarePolicy sends the fastest-deploying kind to HIGH incidents,
// breaking ties by cost and then by pool order. Other severities use the
// cheapest kind.
type SeverityAwarePolicy struct{}

func (SeverityAwarePolicy) Name() string { return PolicySeverityAware }

func (SeverityAwarePolicy) Select(kinds []resources.Kind, sev model.Severity) (string, bool) {
	if sev != model.SeverityHigh {
		return resources.Cheapest(kinds)
	}
	best := -1
	for i, k := range kinds {
		if k.Available() <= 0 {
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		b := kinds[best]
		if k.DeploymentDuration < b.DeploymentDuration ||
			(k.DeploymentDuration == b.DeploymentDuration && k.UnitCost < b.UnitCost) {
			best = i
		}
	}
	if best < 0 {
		return "", false
	}
	return kinds[best].Name, true
}

var policyRegistry = factory.NewRegistry[Policy]()

func init() {
	policyRegistry.MustRegister(PolicyCheapest, func(map[string]any) (Policy, error) {
		return CheapestPolicy{}, nil
	})
	policyRegistry.MustRegister(PolicySeverityAware, func(map[string]any) (Policy, error) {
		return SeverityAwarePolicy{}, nil
	})
}

// RegisterPolicy makes an additional selection policy available by name.
func RegisterPolicy(name string, f factory.Factory[Policy]) error {
	return policyRegistry.Register(name, f)
}

// NewPolicy returns the policy registered under name. Empty means cheapest.
func NewPolicy(name string) (Policy, error) {
	if name == "" {
		name = PolicyCheapest
	}
	p, err := policyRegistry.Create(factory.ModuleConfig{Type: name})
	if err != nil {
		return nil, fmt.Errorf("policy: %w", err)
	}
	return p, nil
}

// Policies lists the registered policy names.
func Policies() []string { return policyRegistry.Names() }
