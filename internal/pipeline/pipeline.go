// Package pipeline drives one engine session through a period or force
// derivation: prepare the unit acceleration cases, fetch results, compute,
// merge and (for force runs) write the nodal loads back.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/alexiusacademia/goeq/internal/engine"
	"github.com/alexiusacademia/goeq/internal/loadcase"
	"github.com/alexiusacademia/goeq/internal/seismic"
)

// ZGroupName is the synthetic group the vertical period is computed on.
const ZGroupName = "StructZdir"

// AxisPlan is the groups of one axis. Factors are ignored by period runs.
// On Z the order is positional: superstructure, then substructure, then
// any further groups. The Z period merge keeps the earliest group's value.
type AxisPlan struct {
	Axis   loadcase.Axis
	Groups []seismic.GroupFactor
}

// Names returns the group names in plan order.
func (p AxisPlan) Names() []string {
	names := make([]string, len(p.Groups))
	for i, g := range p.Groups {
		names[i] = g.Group
	}
	return names
}

// Options tune a Runner.
type Options struct {
	Units    loadcase.Units
	Floor    float64 // base shear floor for horizontal force runs
	FailFast bool    // stop at the first failing group
	DryRun   bool    // compute forces without assigning them
}

// Runner owns the engine session for the length of a run. It is not safe
// for concurrent use.
type Runner struct {
	model engine.Model
	log   *slog.Logger
	sink  seismic.Sink
	opts  Options
	id    string

	prepared bool
}

// New creates a Runner. Diagnostics go to the logger and to sink (which may
// be nil).
func New(model engine.Model, logger *slog.Logger, sink seismic.Sink, opts Options) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Units == 0 {
		opts.Units = loadcase.DefaultUnits
	}
	id := uuid.New().String()
	logger = logger.With("run", id)
	return &Runner{
		model: model,
		log:   logger,
		sink:  seismic.Tee(LogSink(logger), sink),
		opts:  opts,
		id:    id,
	}
}

// ID identifies the run in logs and reports.
func (r *Runner) ID() string {
	return r.id
}

// LogSink forwards diagnostics to a structured logger.
func LogSink(logger *slog.Logger) seismic.Sink {
	return seismic.SinkFunc(func(d seismic.Diagnostic) {
		level := slog.LevelInfo
		switch d.Severity {
		case seismic.SeverityWarning:
			level = slog.LevelWarn
		case seismic.SeverityError:
			level = slog.LevelError
		}
		logger.Log(context.Background(), level, d.Message, "axis", d.Axis.String(), "group", d.Group)
	})
}

// Prepare sets units, unlocks the model, defines the three unit
// acceleration cases and runs exactly those. It is done once per Runner.
func (r *Runner) Prepare(ctx context.Context) error {
	if r.prepared {
		return nil
	}

	if err := r.model.SetUnits(ctx, r.opts.Units); err != nil {
		return err
	}
	locked, err := r.model.Locked(ctx)
	if err != nil {
		return err
	}
	if locked {
		r.log.Info("unlocking model")
		if err := r.model.SetLocked(ctx, false); err != nil {
			return err
		}
	}

	for _, uc := range loadcase.UnitCases {
		if err := r.model.DefineUnitCase(ctx, uc); err != nil {
			return err
		}
	}

	cases := loadcase.UnitCaseNames()
	r.log.Info("running analysis", "cases", cases)
	if err := r.model.RunAnalysis(ctx, cases); err != nil {
		return err
	}
	r.prepared = true
	return nil
}

// fetch queries mass (and displacement when withDisp) for every group of
// the axis. Engine errors abort the run.
func (r *Runner) fetch(ctx context.Context, axis loadcase.Axis, groups []string, withDisp bool) (map[string]seismic.NodeResult, map[string]seismic.NodeResult, error) {
	disp := make(map[string]seismic.NodeResult, len(groups))
	mass := make(map[string]seismic.NodeResult, len(groups))
	uc := loadcase.UnitCase(axis)

	for _, g := range groups {
		m, err := r.model.Masses(ctx, g, axis)
		if err != nil {
			return nil, nil, err
		}
		mass[g] = m

		if !withDisp {
			continue
		}
		d, err := r.model.Displacements(ctx, g, uc.Name, axis)
		if err != nil {
			return nil, nil, err
		}
		disp[g] = d
		r.log.Debug("fetched results", "axis", axis.String(), "group", g, "joints", d.Len(), "masses", m.Len())
	}
	return disp, mass, nil
}

func validatePlans(plans []AxisPlan, force bool) error {
	if len(plans) == 0 {
		return fmt.Errorf("%w: no groups to evaluate", seismic.ErrConfigurationMismatch)
	}
	for _, p := range plans {
		if len(p.Groups) == 0 {
			return fmt.Errorf("%w: %s axis has no groups", seismic.ErrConfigurationMismatch, p.Axis)
		}
		for _, g := range p.Groups {
			if g.Group == "" {
				return fmt.Errorf("%w: %s axis has an empty group name", seismic.ErrConfigurationMismatch, p.Axis)
			}
			if force && (g.Factor < 0 || math.IsNaN(g.Factor) || math.IsInf(g.Factor, 0)) {
				return fmt.Errorf("%w: %s axis group %q has seismic factor %v",
					seismic.ErrConfigurationMismatch, p.Axis, g.Group, g.Factor)
			}
		}
	}
	return nil
}

// isolate records a group failure, or returns it when the run fails fast.
// The failure has already been reported through the sink.
func (r *Runner) isolate(failures *[]error, err error) error {
	if err == nil {
		return nil
	}
	if r.opts.FailFast {
		return err
	}
	*failures = append(*failures, err)
	return nil
}
