// Package factory instantiates pluggable modules (selection policies, audit
// stores, metrics sinks, predictors) from configuration. A module is named
// by a type string and carries a raw settings map that each factory decodes
// into its own typed struct with Decode.
//
//	reg := factory.NewRegistry[dispatch.Policy]()
//	_ = reg.Register("cheapest", func(map[string]any) (dispatch.Policy, error) {
//	    return dispatch.CheapestPolicy{}, nil
//	})
//	p, err := reg.Create(factory.ModuleConfig{Type: "cheapest"})
package factory
