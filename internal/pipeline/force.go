package pipeline

import (
	"context"
	"errors"
	"slices"

	"github.com/alexiusacademia/goeq/internal/engine"
	"github.com/alexiusacademia/goeq/internal/loadcase"
	"github.com/alexiusacademia/goeq/internal/seismic"
)

// ForceRun is the outcome of an equivalent static force derivation.
type ForceRun struct {
	ID      string
	Results []*seismic.ForceResult
	// Merged is the load map of each axis after the last-wins overlay.
	Merged map[loadcase.Axis]seismic.NodeMap
	// Applied counts the joint loads assigned per axis.
	Applied map[loadcase.Axis]int
	Failed  error
}

// RunEqForce distributes the equivalent static forces of every group,
// overlays them per axis and assigns them to the axis load pattern. The
// plans are checked before the engine is touched.
func (r *Runner) RunEqForce(ctx context.Context, plans []AxisPlan) (*ForceRun, error) {
	if err := validatePlans(plans, true); err != nil {
		return nil, err
	}
	dist, err := seismic.NewDistributor(r.opts.Floor, r.sink)
	if err != nil {
		return nil, err
	}
	if err := r.Prepare(ctx); err != nil {
		return nil, err
	}

	run := &ForceRun{
		ID:      r.id,
		Merged:  make(map[loadcase.Axis]seismic.NodeMap),
		Applied: make(map[loadcase.Axis]int),
	}
	var failures []error
	for _, p := range plans {
		disp, mass, err := r.fetch(ctx, p.Axis, p.Names(), !p.Axis.Vertical())
		if err != nil {
			return run, err
		}

		var axisResults []*seismic.ForceResult
		for _, gf := range p.Groups {
			res, err := dist.Distribute(p.Axis, []seismic.GroupFactor{gf}, disp, mass)
			if err := r.isolate(&failures, err); err != nil {
				return run, err
			}
			for _, fr := range res {
				r.log.Info("forces", "axis", p.Axis.String(), "group", fr.Group,
					"total", fr.TotalForce(), "base_shear", fr.BaseShear, "scaled", fr.Scaled)
			}
			axisResults = append(axisResults, res...)
		}
		run.Results = append(run.Results, axisResults...)

		merged := seismic.MergeForces(axisResults)
		run.Merged[p.Axis] = merged
		if len(merged) == 0 {
			r.log.Warn("no forces to assign", "axis", p.Axis.String())
			continue
		}
		if r.opts.DryRun {
			continue
		}
		n, err := r.apply(ctx, p, merged)
		if err != nil {
			return run, err
		}
		run.Applied[p.Axis] = n
	}
	run.Failed = errors.Join(failures...)
	return run, nil
}

// apply replaces the axis pattern's loads with the merged forces. Joints of
// the axis groups without a force are left unloaded.
func (r *Runner) apply(ctx context.Context, p AxisPlan, forces seismic.NodeMap) (int, error) {
	pat := loadcase.Pattern(p.Axis)

	patterns, err := r.model.LoadPatterns(ctx)
	if err != nil {
		return 0, err
	}
	if !slices.Contains(patterns, pat.Name) {
		r.log.Info("defining load pattern", "pattern", pat.Name, "type", pat.Type.String())
		if err := r.model.DefineSeismicPattern(ctx, pat); err != nil {
			return 0, err
		}
	}

	if err := r.model.DeleteNodalForces(ctx, engine.AllGroup, pat.Name); err != nil {
		return 0, err
	}
	coord, err := r.model.CoordSystem(ctx)
	if err != nil {
		return 0, err
	}

	applied := make(map[string]bool)
	for _, g := range p.Names() {
		joints, err := r.model.GroupJoints(ctx, g)
		if err != nil {
			return len(applied), err
		}
		for _, j := range joints {
			f, ok := forces[j]
			if !ok || applied[j] {
				continue
			}
			err := r.model.ApplyNodalForce(ctx, engine.NodalForce{
				Joint:       j,
				LoadPattern: pat.Name,
				Value:       pat.ForceVector(f),
				Replace:     true,
				CoordSystem: coord,
			})
			if err != nil {
				return len(applied), err
			}
			applied[j] = true
		}
	}
	r.log.Info("assigned joint loads", "pattern", pat.Name, "joints", len(applied))
	return len(applied), nil
}
