package seismic

import (
	"errors"
	"fmt"
	"math"

	"github.com/alexiusacademia/goeq/internal/loadcase"
)

// Distributor derives equivalent static nodal forces.
type Distributor struct {
	// Floor is the minimum fraction of the base shear, in [0,1], that the
	// first-mode distribution must reach. Zero disables the check.
	Floor float64

	// Sink receives a warning whenever a distribution is rescaled. May be nil.
	Sink Sink
}

// NewDistributor returns a Distributor enforcing the given base-shear floor.
func NewDistributor(floor float64, sink Sink) (*Distributor, error) {
	if floor < 0 || floor > 1 || math.IsNaN(floor) {
		return nil, fmt.Errorf("%w: base shear floor %g outside [0,1]", ErrConfigurationMismatch, floor)
	}
	return &Distributor{Floor: floor, Sink: sink}, nil
}

// Horizontal distributes the base shear of one group over its nodes in
// proportion to m·u, the first-mode lateral force shape:
//
//	F[n] = (β/ζ) · C · g · m[n] · u[n]
//
// If |ΣF| falls below Floor·V the whole distribution is scaled up
// uniformly to reach it.
func (d *Distributor) Horizontal(axis loadcase.Axis, gf GroupFactor, disp, mass NodeResult) (*ForceResult, error) {
	p, err := Pair(disp, mass)
	if err != nil {
		return nil, groupErr(axis, gf.Group, err)
	}
	w := p.Weights()
	if w.Degenerate() {
		return nil, groupErr(axis, gf.Group,
			fmt.Errorf("%w (beta=%g, zeta=%g)", ErrDegenerateMode, w.Beta, w.Zeta))
	}

	totalMass := p.Mass.Sum()
	baseShear := totalMass * loadcase.Gravity * gf.Factor
	floor := baseShear * d.Floor

	ratio := w.Beta / w.Zeta
	raw := make(NodeMap, len(p.Common))
	for _, n := range p.Common {
		raw[n] = ratio * gf.Factor * loadcase.Gravity * p.Mass[n] * p.Disp[n]
	}

	res := &ForceResult{
		Axis:           axis,
		Group:          gf.Group,
		Factor:         gf.Factor,
		Beta:           w.Beta,
		Zeta:           w.Zeta,
		TotalMass:      totalMass,
		BaseShear:      baseShear,
		BaseShearFloor: floor,
		Mass:           p.Mass,
		Disp:           p.Disp,
		WU:             w.WU,
		WUU:            w.WUU,
		Raw:            raw,
		ScaleFactor:    1,
	}

	sumRaw := math.Abs(raw.Sum())
	if sumRaw >= floor {
		res.Final = raw.Clone()
		return res, nil
	}
	if sumRaw == 0 {
		return nil, groupErr(axis, gf.Group,
			fmt.Errorf("%w: first-mode forces sum to zero, cannot reach floor %g", ErrDegenerateMode, floor))
	}

	scale := floor / sumRaw
	res.Final = make(NodeMap, len(raw))
	for n, f := range raw {
		res.Final[n] = f * scale
	}
	res.Scaled = true
	res.ScaleFactor = scale

	emit(d.Sink, Diagnostic{
		Severity: SeverityWarning,
		Axis:     axis,
		Group:    gf.Group,
		Message: fmt.Sprintf("first-mode force sum %.4g is below %.0f%% of base shear %.4g; scaled by %.4f",
			sumRaw, d.Floor*100, baseShear, scale),
	})
	return res, nil
}

// Vertical assigns every node with a mass the force C · g · m[n]. No
// displacement is involved. When several vertical groups are given, index
// 0 is by convention the superstructure and index 1 the substructure.
func (d *Distributor) Vertical(gf GroupFactor, mass NodeResult) (*ForceResult, error) {
	mm, err := mass.Map()
	if err != nil {
		return nil, groupErr(loadcase.AxisZ, gf.Group, err)
	}

	final := make(NodeMap, len(mm))
	for n, m := range mm {
		final[n] = gf.Factor * loadcase.Gravity * m
	}
	totalMass := mm.Sum()

	return &ForceResult{
		Axis:        loadcase.AxisZ,
		Group:       gf.Group,
		Factor:      gf.Factor,
		TotalMass:   totalMass,
		BaseShear:   totalMass * loadcase.Gravity * gf.Factor,
		Mass:        mm,
		Final:       final,
		ScaleFactor: 1,
	}, nil
}

// Distribute runs Horizontal (X, Y) or Vertical (Z) for every group. Disp
// may be nil for Z. Failures are isolated per group and joined.
func (d *Distributor) Distribute(axis loadcase.Axis, groups []GroupFactor, disp, mass map[string]NodeResult) ([]*ForceResult, error) {
	var (
		results []*ForceResult
		errs    []error
	)
	for _, gf := range groups {
		r, err := d.distributeOne(axis, gf, disp, mass)
		if err != nil {
			emit(d.Sink, Diagnostic{Severity: SeverityError, Axis: axis, Group: gf.Group, Message: err.Error()})
			errs = append(errs, err)
			continue
		}
		results = append(results, r)
	}
	return results, errors.Join(errs...)
}

func (d *Distributor) distributeOne(axis loadcase.Axis, gf GroupFactor, disp, mass map[string]NodeResult) (*ForceResult, error) {
	m, ok := mass[gf.Group]
	if !ok {
		return nil, groupErr(axis, gf.Group, fmt.Errorf("no mass results fetched"))
	}
	if axis.Vertical() {
		return d.Vertical(gf, m)
	}
	u, ok := disp[gf.Group]
	if !ok {
		return nil, groupErr(axis, gf.Group, fmt.Errorf("no displacement results fetched"))
	}
	return d.Horizontal(axis, gf, u, m)
}
