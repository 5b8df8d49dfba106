package seismic

import (
	"errors"
	"fmt"
	"math"

	"github.com/alexiusacademia/goeq/internal/loadcase"
)

// RayleighPeriod returns T = 2π·√(ζ / (g·β)).
func RayleighPeriod(beta, zeta float64) (float64, error) {
	if beta == 0 || zeta == 0 {
		return 0, fmt.Errorf("%w (beta=%g, zeta=%g)", ErrDegenerateMode, beta, zeta)
	}
	return 2 * math.Pi * math.Sqrt(zeta/(loadcase.Gravity*beta)), nil
}

// EstimatePeriod derives the Rayleigh period of one group from its
// unit-acceleration displacements and assembled masses.
func EstimatePeriod(axis loadcase.Axis, group string, disp, mass NodeResult) (*PeriodResult, error) {
	p, err := Pair(disp, mass)
	if err != nil {
		return nil, groupErr(axis, group, err)
	}
	w := p.Weights()

	period, err := RayleighPeriod(w.Beta, w.Zeta)
	if err != nil {
		return nil, groupErr(axis, group, err)
	}

	return &PeriodResult{
		Axis:   axis,
		Group:  group,
		Period: period,
		Beta:   w.Beta,
		Zeta:   w.Zeta,
		Mass:   p.Mass,
		Disp:   p.Disp,
		WU:     w.WU,
		WUU:    w.WUU,
		Common: p.Common,
	}, nil
}

// EstimatePeriods runs EstimatePeriod for every group in order. A failing
// group does not stop the others: successful results are returned together
// with the joined *GroupError values of the failures.
func EstimatePeriods(axis loadcase.Axis, groups []string, disp, mass map[string]NodeResult) ([]*PeriodResult, error) {
	var (
		results []*PeriodResult
		errs    []error
	)
	for _, g := range groups {
		d, dok := disp[g]
		m, mok := mass[g]
		if !dok || !mok {
			errs = append(errs, groupErr(axis, g, fmt.Errorf("no results fetched")))
			continue
		}
		r, err := EstimatePeriod(axis, g, d, m)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results = append(results, r)
	}
	return results, errors.Join(errs...)
}
