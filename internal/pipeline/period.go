package pipeline

import (
	"context"
	"errors"

	"github.com/alexiusacademia/goeq/internal/loadcase"
	"github.com/alexiusacademia/goeq/internal/seismic"
)

// PeriodRun is the outcome of a period derivation.
type PeriodRun struct {
	ID      string
	Results []*seismic.PeriodResult
	// Failed joins the *seismic.GroupError of every group that was skipped.
	Failed error
}

// RunPeriod estimates the Rayleigh period of every X and Y group and of the
// merged Z structure.
func (r *Runner) RunPeriod(ctx context.Context, plans []AxisPlan) (*PeriodRun, error) {
	if err := validatePlans(plans, false); err != nil {
		return nil, err
	}
	if err := r.Prepare(ctx); err != nil {
		return nil, err
	}

	run := &PeriodRun{ID: r.id}
	var failures []error
	for _, p := range plans {
		disp, mass, err := r.fetch(ctx, p.Axis, p.Names(), true)
		if err != nil {
			return run, err
		}

		if p.Axis.Vertical() {
			res, err := r.structurePeriod(p, disp, mass)
			if err := r.isolate(&failures, err); err != nil {
				return run, err
			}
			if res != nil {
				run.Results = append(run.Results, res)
			}
			continue
		}

		for _, g := range p.Names() {
			res, err := seismic.EstimatePeriod(p.Axis, g, disp[g], mass[g])
			if err != nil {
				r.sink.Emit(seismic.Diagnostic{Severity: seismic.SeverityError, Axis: p.Axis, Group: g, Message: err.Error()})
			}
			if err := r.isolate(&failures, err); err != nil {
				return run, err
			}
			if res != nil {
				r.log.Info("period", "axis", p.Axis.String(), "group", g, "T", res.Period)
				run.Results = append(run.Results, res)
			}
		}
	}
	run.Failed = errors.Join(failures...)
	return run, nil
}

// structurePeriod merges the Z groups first-wins into one synthetic group
// and estimates its period.
func (r *Runner) structurePeriod(p AxisPlan, disp, mass map[string]seismic.NodeResult) (*seismic.PeriodResult, error) {
	var dg, mg []seismic.GroupData
	for _, g := range p.Names() {
		dg = append(dg, seismic.GroupData{Group: g, Result: disp[g]})
		mg = append(mg, seismic.GroupData{Group: g, Result: mass[g]})
	}

	fail := func(err error) (*seismic.PeriodResult, error) {
		r.sink.Emit(seismic.Diagnostic{Severity: seismic.SeverityError, Axis: loadcase.AxisZ, Group: ZGroupName, Message: err.Error()})
		return nil, err
	}

	d, err := seismic.MergeGroups(ZGroupName, dg)
	if err != nil {
		return fail(&seismic.GroupError{Axis: loadcase.AxisZ, Group: ZGroupName, Err: err})
	}
	m, err := seismic.MergeGroups(ZGroupName, mg)
	if err != nil {
		return fail(&seismic.GroupError{Axis: loadcase.AxisZ, Group: ZGroupName, Err: err})
	}

	res, err := seismic.EstimatePeriod(loadcase.AxisZ, ZGroupName, d.Result, m.Result)
	if err != nil {
		return fail(err)
	}
	r.log.Info("period", "axis", "Z", "group", ZGroupName, "merged", p.Names(), "T", res.Period)
	return res, nil
}
