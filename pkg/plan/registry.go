package plan

import (
	"context"
	"sort"

	"gitlab.com/tozd/go/errors"
)

// 📚 Registry maps upstream version tags to their patch plans. Entries are
// added once at startup (built-in plans, then any plan files) and never
// replaced: one code path per version, no silent drift.
type Registry struct {
	plans map[string]*Plan
}

// 🏭 NewRegistry creates a registry pre-loaded with the built-in plans.
func NewRegistry(ctx context.Context) (*Registry, error) {
	r := &Registry{plans: map[string]*Plan{}}
	if err := r.Register(ctx, Mutter462()); err != nil {
		return nil, errors.Errorf("registering built-in plan: %w", err)
	}
	return r, nil
}

// Register adds a plan. Registering a version tag twice is an error.
func (r *Registry) Register(ctx context.Context, p *Plan) error {
	if err := Validate(ctx, p); err != nil {
		return errors.Errorf("validating plan: %w", err)
	}
	if _, ok := r.plans[p.Version]; ok {
		return errors.Errorf("plan for version %s is already registered", p.Version)
	}
	r.plans[p.Version] = p
	return nil
}

// Lookup returns the plan for a version tag.
func (r *Registry) Lookup(version string) (*Plan, error) {
	p, ok := r.plans[version]
	if !ok {
		return nil, errors.Errorf("no patch plan for version %s (known: %v)", version, r.Versions())
	}
	return p, nil
}

// Versions lists the registered version tags, sorted.
func (r *Registry) Versions() []string {
	out := make([]string, 0, len(r.plans))
	for v := range r.plans {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
