package strategy

import (
	"fmt"
	"sort"

	"github.com/dicelab/fairsim/errs"
)

// Builder constructs a fresh Strategy instance from a Config. Builders
// are registered once at startup then the registry is frozen, mirroring
// the register-then-freeze discipline of the game catalog this is
// adapted from.
type Builder func(cfg Config) Strategy

// Registry resolves a strategy preset name to a Builder.
type Registry struct {
	builders map[string]Builder
	frozen   bool
}

// NewRegistry returns an empty, unfrozen registry.
func NewRegistry() *Registry {
	return &Registry{builders: map[string]Builder{}}
}

// DefaultRegistry returns a registry pre-populated with the five basic
// progressions from spec §4.4, frozen and ready to use.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register("flat", func(cfg Config) Strategy { return NewFlat(cfg) })
	_ = r.Register("martingale", func(cfg Config) Strategy { return NewMartingale(cfg) })
	_ = r.Register("fibonacci", func(cfg Config) Strategy { return NewFibonacci(cfg) })
	_ = r.Register("dalembert", func(cfg Config) Strategy { return NewDAlembert(cfg) })
	_ = r.Register("paroli", func(cfg Config) Strategy { return NewParoli(cfg, 3) })
	r.Freeze()
	return r
}

// Register adds name -> builder. Returns an error if the registry is
// already frozen or name is already registered.
func (r *Registry) Register(name string, b Builder) error {
	if r.frozen {
		return errs.ConfigInvalid(fmt.Sprintf("strategy: registry already frozen, cannot register %q", name))
	}
	if _, ok := r.builders[name]; ok {
		return errs.ConfigInvalid(fmt.Sprintf("strategy: duplicate registration for %q", name))
	}
	r.builders[name] = b
	return nil
}

// Freeze prevents further registration.
func (r *Registry) Freeze() {
	r.frozen = true
}

// Build constructs a fresh strategy instance for name.
func (r *Registry) Build(name string, cfg Config) (Strategy, error) {
	b, ok := r.builders[name]
	if !ok {
		return nil, errs.ConfigInvalid(fmt.Sprintf("strategy: unknown strategy %q", name))
	}
	return b(cfg), nil
}

// Names returns every registered strategy name, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for n := range r.builders {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
