package seismic

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexiusacademia/goeq/internal/loadcase"
)

func dispOf(names []string, vals []float64) NodeResult {
	return NodeResult{Quantity: Displacement, Names: names, Values: vals}
}

func massOf(names []string, vals []float64) NodeResult {
	return NodeResult{Quantity: Mass, Names: names, Values: vals}
}

func TestPair_ExcludesNodesMissingOnEitherSide(t *testing.T) {
	mass := massOf([]string{"A", "B"}, []float64{1, 2})
	disp := dispOf([]string{"B", "C"}, []float64{3, 4})

	p, err := Pair(disp, mass)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, p.Common)

	w := p.Weights()
	assert.Equal(t, NodeMap{"B": 6}, w.WU)
	assert.Equal(t, NodeMap{"B": 18}, w.WUU)
	assert.NotContains(t, w.WU, "A")
	assert.NotContains(t, w.WU, "C")
}

func TestPair_EmptyIntersection(t *testing.T) {
	_, err := Pair(dispOf([]string{"1"}, []float64{1}), massOf([]string{"2"}, []float64{1}))
	require.ErrorIs(t, err, ErrEmptyIntersection)
}

func TestPair_LengthMismatch(t *testing.T) {
	_, err := Pair(dispOf([]string{"1", "2"}, []float64{1}), massOf([]string{"1"}, []float64{1}))
	require.ErrorIs(t, err, ErrConfigurationMismatch)
}

func TestPair_CommonNodesSortedNumericFirst(t *testing.T) {
	names := []string{"10", "B", "2", "A"}
	vals := []float64{1, 1, 1, 1}
	p, err := Pair(dispOf(names, vals), massOf(names, vals))
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "10", "A", "B"}, p.Common)
}

func TestNodeResultMap_RepeatedNameKeepsLast(t *testing.T) {
	m, err := dispOf([]string{"1", "1"}, []float64{5, 7}).Map()
	require.NoError(t, err)
	assert.Equal(t, NodeMap{"1": 7}, m)
}

func TestEstimatePeriod_SingleNode(t *testing.T) {
	r, err := EstimatePeriod(loadcase.AxisX, "G", dispOf([]string{"N1"}, []float64{3}), massOf([]string{"N1"}, []float64{2}))
	require.NoError(t, err)

	assert.Equal(t, 6.0, r.WU["N1"])
	assert.Equal(t, 18.0, r.WUU["N1"])
	assert.Equal(t, 6.0, r.Beta)
	assert.Equal(t, 18.0, r.Zeta)
	assert.InDelta(t, 2*math.Pi*math.Sqrt(18/(9.81*6)), r.Period, 1e-12)
	assert.InDelta(t, 3.4746, r.Period, 1e-3)
}

func TestEstimatePeriod_BetaUsesAbsoluteSum(t *testing.T) {
	r, err := EstimatePeriod(loadcase.AxisY, "G",
		dispOf([]string{"1", "2"}, []float64{-2, -1}),
		massOf([]string{"1", "2"}, []float64{1, 1}))
	require.NoError(t, err)
	assert.Equal(t, 3.0, r.Beta)
	assert.Equal(t, 5.0, r.Zeta)
}

func TestEstimatePeriod_ZeroDisplacementIsDegenerate(t *testing.T) {
	_, err := EstimatePeriod(loadcase.AxisX, "Flat",
		dispOf([]string{"1", "2"}, []float64{0, 0}),
		massOf([]string{"1", "2"}, []float64{4, 5}))
	require.ErrorIs(t, err, ErrDegenerateMode)

	var ge *GroupError
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, "Flat", ge.Group)
	assert.Equal(t, loadcase.AxisX, ge.Axis)
}

func TestEstimatePeriods_IsolatesFailures(t *testing.T) {
	disp := map[string]NodeResult{
		"Good": dispOf([]string{"1"}, []float64{0.01}),
		"Bad":  dispOf([]string{"2"}, []float64{0}),
	}
	mass := map[string]NodeResult{
		"Good": massOf([]string{"1"}, []float64{10}),
		"Bad":  massOf([]string{"2"}, []float64{10}),
	}

	results, err := EstimatePeriods(loadcase.AxisX, []string{"Bad", "Good", "Missing"}, disp, mass)
	require.Error(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Good", results[0].Group)
	assert.ErrorIs(t, err, ErrDegenerateMode)
	assert.Contains(t, err.Error(), `"Missing"`)
}

func TestHorizontal_FloorRescale(t *testing.T) {
	rec := &Recorder{}
	d, err := NewDistributor(0.8, rec)
	require.NoError(t, err)

	names := []string{"N1", "N2"}
	r, err := d.Horizontal(loadcase.AxisX, GroupFactor{Group: "G", Factor: 0.15},
		dispOf(names, []float64{1, -0.9}),
		massOf(names, []float64{1, 1}))
	require.NoError(t, err)

	assert.InDelta(t, 2.0, r.TotalMass, 1e-12)
	assert.InDelta(t, 2*9.81*0.15, r.BaseShear, 1e-12)
	assert.InDelta(t, 0.8*r.BaseShear, r.BaseShearFloor, 1e-12)

	sumRaw := math.Abs(r.Raw.Sum())
	require.Less(t, sumRaw, r.BaseShearFloor)
	require.True(t, r.Scaled)

	scale := r.BaseShearFloor / sumRaw
	assert.InDelta(t, scale, r.ScaleFactor, 1e-12)
	for _, n := range names {
		assert.InDelta(t, r.Raw[n]*scale, r.Final[n], 1e-9)
	}
	assert.InDelta(t, r.BaseShearFloor, math.Abs(r.Final.Sum()), 1e-9)

	require.Len(t, rec.Warnings(), 1)
	w := rec.Warnings()[0]
	assert.Equal(t, "G", w.Group)
	assert.Equal(t, loadcase.AxisX, w.Axis)
	assert.Contains(t, w.Message, "80%")
}

func TestHorizontal_NoRescaleKeepsRaw(t *testing.T) {
	rec := &Recorder{}
	d, err := NewDistributor(0.9, rec)
	require.NoError(t, err)

	r, err := d.Horizontal(loadcase.AxisY, GroupFactor{Group: "G", Factor: 0.2},
		dispOf([]string{"N1"}, []float64{3}),
		massOf([]string{"N1"}, []float64{2}))
	require.NoError(t, err)

	// One node carries the whole base shear.
	assert.InDelta(t, r.BaseShear, r.Raw["N1"], 1e-9)
	assert.False(t, r.Scaled)
	assert.Equal(t, r.Raw, r.Final)
	assert.Empty(t, rec.Events())
}

func TestHorizontal_RawFormula(t *testing.T) {
	d := &Distributor{}
	names := []string{"1", "2", "3"}
	disp := []float64{0.01, 0.02, 0.03}
	mass := []float64{5, 4, 3}
	r, err := d.Horizontal(loadcase.AxisX, GroupFactor{Group: "G", Factor: 0.1}, dispOf(names, disp), massOf(names, mass))
	require.NoError(t, err)

	beta := 0.01*5 + 0.02*4 + 0.03*3
	zeta := 0.01*0.01*5 + 0.02*0.02*4 + 0.03*0.03*3
	for i, n := range names {
		want := beta / zeta * 0.1 * 9.81 * mass[i] * disp[i]
		assert.InDelta(t, want, r.Raw[n], 1e-9, n)
	}
}

func TestHorizontal_TotalMassCountsAllMassNodes(t *testing.T) {
	d := &Distributor{}
	r, err := d.Horizontal(loadcase.AxisX, GroupFactor{Group: "G", Factor: 0.1},
		dispOf([]string{"1"}, []float64{0.01}),
		massOf([]string{"1", "2"}, []float64{5, 7}))
	require.NoError(t, err)
	assert.Equal(t, 12.0, r.TotalMass)
	assert.Len(t, r.Raw, 1)
}

func TestHorizontal_DegenerateWithZeroDisplacement(t *testing.T) {
	d := &Distributor{Floor: 0.5}
	r, err := d.Horizontal(loadcase.AxisX, GroupFactor{Group: "G", Factor: 0.15},
		dispOf([]string{"1", "2"}, []float64{0, 0}),
		massOf([]string{"1", "2"}, []float64{1, 1}))
	require.ErrorIs(t, err, ErrDegenerateMode)
	assert.Nil(t, r)
}

func TestNewDistributor_RejectsFloorOutsideUnitRange(t *testing.T) {
	_, err := NewDistributor(1.5, nil)
	require.ErrorIs(t, err, ErrConfigurationMismatch)
	_, err = NewDistributor(-0.1, nil)
	require.ErrorIs(t, err, ErrConfigurationMismatch)
}

func TestVertical_MassProportional(t *testing.T) {
	d := &Distributor{}
	r, err := d.Vertical(GroupFactor{Group: "Super", Factor: 0.15}, massOf([]string{"N1"}, []float64{10}))
	require.NoError(t, err)
	assert.InDelta(t, 14.715, r.Final["N1"], 1e-3)
	assert.Equal(t, loadcase.AxisZ, r.Axis)
	assert.Nil(t, r.Disp)
}

func TestDistribute_VerticalKeepsGroupOrder(t *testing.T) {
	d := &Distributor{}
	mass := map[string]NodeResult{
		"Super": massOf([]string{"1", "2"}, []float64{10, 10}),
		"Sub":   massOf([]string{"2", "3"}, []float64{20, 20}),
	}
	results, err := d.Distribute(loadcase.AxisZ, []GroupFactor{{"Super", 0.15}, {"Sub", 0.05}}, nil, mass)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Super", results[0].Group)
	assert.Equal(t, "Sub", results[1].Group)

	merged := MergeForces(results)
	assert.InDelta(t, 0.05*9.81*20, merged["2"], 1e-9)
}

func TestDistribute_IsolatesFailuresAndReportsThem(t *testing.T) {
	rec := &Recorder{}
	d := &Distributor{Sink: rec}
	disp := map[string]NodeResult{
		"ok":   dispOf([]string{"1"}, []float64{0.02}),
		"flat": dispOf([]string{"2"}, []float64{0}),
	}
	mass := map[string]NodeResult{
		"ok":   massOf([]string{"1"}, []float64{3}),
		"flat": massOf([]string{"2"}, []float64{3}),
	}
	results, err := d.Distribute(loadcase.AxisX, []GroupFactor{{"flat", 0.1}, {"ok", 0.1}}, disp, mass)
	require.ErrorIs(t, err, ErrDegenerateMode)
	require.Len(t, results, 1)
	assert.Equal(t, "ok", results[0].Group)

	require.Len(t, rec.Events(), 1)
	assert.Equal(t, SeverityError, rec.Events()[0].Severity)
	assert.Equal(t, "flat", rec.Events()[0].Group)
}

func TestDistribute_MissingResultsReportedOnce(t *testing.T) {
	rec := &Recorder{}
	d := &Distributor{Sink: rec}
	mass := map[string]NodeResult{"nodisp": massOf([]string{"1"}, []float64{3})}

	_, err := d.Distribute(loadcase.AxisY, []GroupFactor{{"nodisp", 0.1}, {"nothing", 0.1}}, nil, mass)
	var ge *GroupError
	require.ErrorAs(t, err, &ge)

	require.Len(t, rec.Events(), 2)
	assert.Equal(t, "nodisp", rec.Events()[0].Group)
	assert.Equal(t, "nothing", rec.Events()[1].Group)
}

func TestMergeGroups_FirstWins(t *testing.T) {
	merged, err := MergeGroups("StructZdir", []GroupData{
		{Group: "G1", Result: dispOf([]string{"N1", "N2"}, []float64{1, 2})},
		{Group: "G2", Result: dispOf([]string{"N2", "N3"}, []float64{99, 3})},
	})
	require.NoError(t, err)

	assert.Equal(t, "StructZdir", merged.Group)
	assert.Equal(t, Displacement, merged.Result.Quantity)
	assert.Equal(t, []string{"N1", "N2", "N3"}, merged.Result.Names)
	assert.Equal(t, []float64{1, 2, 3}, merged.Result.Values)
}

func TestMergeGroups_Empty(t *testing.T) {
	merged, err := MergeGroups("Z", nil)
	require.NoError(t, err)
	assert.Equal(t, "Z", merged.Group)
	assert.Zero(t, merged.Result.Len())
}

func TestMergeGroups_MixedQuantities(t *testing.T) {
	_, err := MergeGroups("Z", []GroupData{
		{Group: "G1", Result: dispOf([]string{"1"}, []float64{1})},
		{Group: "G2", Result: massOf([]string{"1"}, []float64{1})},
	})
	require.ErrorIs(t, err, ErrConfigurationMismatch)
}

// MergeForces and MergeGroups resolve duplicates in opposite directions.
// Both behaviours are kept on purpose.
func TestMergeForces_LastWins(t *testing.T) {
	merged := MergeForces([]*ForceResult{
		{Group: "G1", Final: NodeMap{"N1": 1, "N2": 2}},
		{Group: "G2", Final: NodeMap{"N2": 99, "N3": 3}},
	})
	assert.Equal(t, NodeMap{"N1": 1, "N2": 99, "N3": 3}, merged)
}

func TestPairFactors(t *testing.T) {
	pairs, err := PairFactors([]string{"ALL", "Pier1"}, []float64{0.15, 0.1})
	require.NoError(t, err)
	assert.Equal(t, []GroupFactor{{"ALL", 0.15}, {"Pier1", 0.1}}, pairs)

	_, err = PairFactors([]string{"ALL"}, []float64{0.15, 0.1})
	require.ErrorIs(t, err, ErrConfigurationMismatch)
}

func TestTee_ForwardsToEverySink(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	s := Tee(a, nil, b)
	s.Emit(Diagnostic{Severity: SeverityInfo, Message: "hi"})
	assert.Len(t, a.Events(), 1)
	assert.Len(t, b.Events(), 1)
}
