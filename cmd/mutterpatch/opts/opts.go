package opts

import (
	"context"

	"github.com/walteh/mutterpatch/pkg/log"
	"github.com/walteh/mutterpatch/pkg/operation"
	"github.com/walteh/mutterpatch/pkg/plan"
	"gitlab.com/tozd/go/errors"
)

// RootOpts contains shared options used by all commands. Flag values are
// bound into it before Execute and read at RunE time.
type RootOpts struct {
	// PlanFile optionally adds patch plans from an .hcl or .yaml file
	PlanFile string
	// TargetVersion selects which registered plan to run
	TargetVersion string
	// Debug enables debug logging
	Debug bool

	Logger *log.Logger
}

// ResolvePlan builds the plan registry (built-ins plus any plan file) and
// looks up the target version.
func (o *RootOpts) ResolvePlan(ctx context.Context) (*plan.Plan, error) {
	registry, err := plan.NewRegistry(ctx)
	if err != nil {
		return nil, errors.Errorf("building plan registry: %w", err)
	}
	if o.PlanFile != "" {
		loaded, err := plan.Load(ctx, o.PlanFile)
		if err != nil {
			return nil, errors.Errorf("loading plan file: %w", err)
		}
		for _, p := range loaded {
			if err := registry.Register(ctx, p); err != nil {
				return nil, errors.Errorf("registering plan from %s: %w", o.PlanFile, err)
			}
		}
	}
	return registry.Lookup(o.TargetVersion)
}

// NewOperator resolves the plan and wires up an operator for the given
// tree root.
func (o *RootOpts) NewOperator(ctx context.Context, root string) (*operation.Operator, error) {
	p, err := o.ResolvePlan(ctx)
	if err != nil {
		return nil, err
	}
	return operation.New(operation.Options{
		Root:   root,
		Plan:   p,
		Logger: o.Logger,
	})
}
