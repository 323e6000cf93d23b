package plugin

import (
	"fmt"

	sim "github.com/ltemacsim/ltemacsim/sim"
)

// init registers this package's policies with sim.NewPolicy/IsValidPolicy
// so the core can construct "catboost-stub" without importing plugin —
// callers only need a blank import of this package to make the name
// recognized.
func init() {
	sim.RegisterPolicy("catboost-stub", func() sim.Policy { return NewCatBoostStub() })
}

// NewPolicy constructs a plugin-hosted sim.Policy by name. Currently only
// "catboost-stub" is registered. Panics on unrecognized names, matching
// sim.NewPolicy's convention for its own built-in set.
func NewPolicy(name string) sim.Policy {
	switch name {
	case "catboost-stub":
		return NewCatBoostStub()
	default:
		panic(fmt.Sprintf("unknown plugin scheduler %q", name))
	}
}

// IsValidPolicy reports whether name is a recognized plugin-hosted policy.
func IsValidPolicy(name string) bool {
	return name == "catboost-stub"
}
