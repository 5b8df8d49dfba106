package seismic

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/alexiusacademia/goeq/internal/loadcase"
)

func nodeNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("%d", i+1)
	}
	return names
}

// TestForceInvariants checks the floor policy over random first-mode shapes.
func TestForceInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("final forces reach the floor or equal raw forces", prop.ForAll(
		func(disp []float64, floor, factor float64) bool {
			names := nodeNames(len(disp))
			mass := make([]float64, len(disp))
			for i := range mass {
				mass[i] = 1 + float64(i%3)
			}

			d := &Distributor{Floor: floor}
			r, err := d.Horizontal(loadcase.AxisX, GroupFactor{Group: "G", Factor: factor},
				dispOf(names, disp), massOf(names, mass))
			if err != nil {
				// Only a degenerate shape may fail.
				return errors.Is(err, ErrDegenerateMode)
			}

			sumRaw := math.Abs(r.Raw.Sum())
			sumFinal := math.Abs(r.Final.Sum())
			if !r.Scaled {
				if sumRaw < r.BaseShearFloor {
					return false
				}
				for n, f := range r.Raw {
					if r.Final[n] != f {
						return false
					}
				}
				return true
			}
			tol := 1e-6 * math.Max(1, r.BaseShearFloor)
			return math.Abs(sumFinal-r.BaseShearFloor) <= tol
		},
		gen.SliceOfN(6, gen.Float64Range(-0.05, 0.05)),
		gen.Float64Range(0, 1),
		gen.Float64Range(0.01, 0.5),
	))

	properties.Property("rescaling preserves the distribution shape", prop.ForAll(
		func(disp []float64) bool {
			names := nodeNames(len(disp))
			mass := make([]float64, len(disp))
			for i := range mass {
				mass[i] = 2
			}
			d := &Distributor{Floor: 1}
			r, err := d.Horizontal(loadcase.AxisY, GroupFactor{Group: "G", Factor: 0.2},
				dispOf(names, disp), massOf(names, mass))
			if err != nil {
				return errors.Is(err, ErrDegenerateMode)
			}
			for n, f := range r.Raw {
				if math.Abs(r.Final[n]-f*r.ScaleFactor) > 1e-9*math.Max(1, math.Abs(r.Final[n])) {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(5, gen.Float64Range(-0.05, 0.05)),
	))

	properties.TestingRun(t)
}

// TestMergeInvariants checks the two duplicate policies against each other.
func TestMergeInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("first-wins and last-wins agree except on shared nodes", prop.ForAll(
		func(a, b []float64) bool {
			// Group 1 covers nodes 1..len(a), group 2 starts half way.
			namesA := nodeNames(len(a))
			namesB := make([]string, len(b))
			offset := len(a) / 2
			for i := range namesB {
				namesB[i] = fmt.Sprintf("%d", offset+i+1)
			}

			first, err := MergeGroups("M", []GroupData{
				{Group: "G1", Result: NodeResult{Quantity: Force, Names: namesA, Values: a}},
				{Group: "G2", Result: NodeResult{Quantity: Force, Names: namesB, Values: b}},
			})
			if err != nil {
				return false
			}
			firstMap, err := first.Result.Map()
			if err != nil {
				return false
			}

			ma, _ := NodeResult{Names: namesA, Values: a}.Map()
			mb, _ := NodeResult{Names: namesB, Values: b}.Map()
			last := MergeForces([]*ForceResult{{Final: ma}, {Final: mb}})

			if len(firstMap) != len(last) {
				return false
			}
			for n, v := range last {
				_, inA := ma[n]
				_, inB := mb[n]
				switch {
				case inA && inB:
					if firstMap[n] != ma[n] || v != mb[n] {
						return false
					}
				case firstMap[n] != v:
					return false
				}
			}
			return true
		},
		gen.SliceOfN(8, gen.Float64Range(-100, 100)),
		gen.SliceOfN(8, gen.Float64Range(-100, 100)),
	))

	properties.TestingRun(t)
}
