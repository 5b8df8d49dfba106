package pipeline

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexiusacademia/goeq/internal/engine"
	"github.com/alexiusacademia/goeq/internal/loadcase"
	"github.com/alexiusacademia/goeq/internal/seismic"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// bridge is a locked five-joint model: PIER holds 1-3, DECK holds 3-5 and
// LOOSE holds joint 9, which has a mass but no displacement.
func bridge(t *testing.T) *engine.Memory {
	t.Helper()
	m := engine.NewMemory()
	m.AddGroup("PIER", "1", "2", "3")
	m.AddGroup("DECK", "3", "4", "5")
	m.AddGroup("LOOSE", "9")

	for i, j := range []string{"1", "2", "3", "4", "5"} {
		u := 0.01 * float64(i+1)
		for _, uc := range loadcase.UnitCases {
			var v engine.Vector
			v[uc.Axis.DOF()] = u
			m.SetDisplacement(uc.Name, j, v)
		}
		m.SetMass(j, engine.Vector{2, 2, 2})
	}
	m.SetMass("9", engine.Vector{1, 1, 1})

	require.NoError(t, m.SetLocked(context.Background(), true))
	return m
}

func plan(axis loadcase.Axis, groups ...seismic.GroupFactor) AxisPlan {
	return AxisPlan{Axis: axis, Groups: groups}
}

func gf(group string, factor float64) seismic.GroupFactor {
	return seismic.GroupFactor{Group: group, Factor: factor}
}

func TestPrepare_UnlocksAndRunsOnlyUnitCases(t *testing.T) {
	ctx := context.Background()
	m := bridge(t)
	m.AddCase("DEAD")

	r := New(m, quiet, nil, Options{})
	require.NoError(t, r.Prepare(ctx))

	locked, err := m.Locked(ctx)
	require.NoError(t, err)
	assert.False(t, locked)
	assert.Equal(t, loadcase.UnitsTonMC, m.Units())

	for _, name := range loadcase.UnitCaseNames() {
		assert.True(t, m.Ran(name), name)
		c, ok := m.Case(name)
		require.True(t, ok)
		require.Len(t, c.Loads, 1)
		assert.Equal(t, "Accel", c.Loads[0].Type)
		assert.InDelta(t, loadcase.Gravity, c.Loads[0].Scale, 1e-12)
	}
	assert.False(t, m.Ran("DEAD"))
}

func TestRunPeriod_HorizontalAndMergedVertical(t *testing.T) {
	ctx := context.Background()
	m := bridge(t)
	r := New(m, quiet, nil, Options{})

	run, err := r.RunPeriod(ctx, []AxisPlan{
		plan(loadcase.AxisX, gf("PIER", 0)),
		plan(loadcase.AxisZ, gf("DECK", 0), gf("PIER", 0)),
	})
	require.NoError(t, err)
	require.NoError(t, run.Failed)
	require.Len(t, run.Results, 2)
	assert.Equal(t, r.ID(), run.ID)

	x := run.Results[0]
	assert.Equal(t, "PIER", x.Group)
	// beta = 2(0.01+0.02+0.03), zeta = 2(0.0001+0.0004+0.0009)
	want, err := seismic.RayleighPeriod(0.12, 0.0028)
	require.NoError(t, err)
	assert.InDelta(t, want, x.Period, 1e-12)

	z := run.Results[1]
	assert.Equal(t, ZGroupName, z.Group)
	assert.Equal(t, loadcase.AxisZ, z.Axis)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, z.Common)
}

func TestRunPeriod_IsolatesFailingGroup(t *testing.T) {
	ctx := context.Background()
	rec := &seismic.Recorder{}
	r := New(bridge(t), quiet, rec, Options{})

	run, err := r.RunPeriod(ctx, []AxisPlan{plan(loadcase.AxisY, gf("LOOSE", 0), gf("DECK", 0))})
	require.NoError(t, err)
	require.Len(t, run.Results, 1)
	assert.Equal(t, "DECK", run.Results[0].Group)

	require.ErrorIs(t, run.Failed, seismic.ErrEmptyIntersection)
	var ge *seismic.GroupError
	require.ErrorAs(t, run.Failed, &ge)
	assert.Equal(t, "LOOSE", ge.Group)

	require.Len(t, rec.Events(), 1)
	assert.Equal(t, seismic.SeverityError, rec.Events()[0].Severity)
}

func TestRunPeriod_FailFast(t *testing.T) {
	r := New(bridge(t), quiet, nil, Options{FailFast: true})
	run, err := r.RunPeriod(context.Background(), []AxisPlan{plan(loadcase.AxisY, gf("LOOSE", 0), gf("DECK", 0))})
	require.ErrorIs(t, err, seismic.ErrEmptyIntersection)
	assert.Empty(t, run.Results)
}

func TestRunPeriod_EngineErrorPropagates(t *testing.T) {
	r := New(bridge(t), quiet, nil, Options{})
	_, err := r.RunPeriod(context.Background(), []AxisPlan{plan(loadcase.AxisX, gf("NOPE", 0))})
	require.ErrorIs(t, err, engine.ErrUnknownGroup)
	var ee *engine.Error
	require.ErrorAs(t, err, &ee)
}

func TestRunEqForce_AppliesLastWinsOverlay(t *testing.T) {
	ctx := context.Background()
	m := bridge(t)
	r := New(m, quiet, nil, Options{Floor: 0})

	run, err := r.RunEqForce(ctx, []AxisPlan{plan(loadcase.AxisX, gf("PIER", 0.1), gf("DECK", 0.2))})
	require.NoError(t, err)
	require.NoError(t, run.Failed)
	require.Len(t, run.Results, 2)

	pier, deck := run.Results[0], run.Results[1]
	merged := run.Merged[loadcase.AxisX]
	assert.Len(t, merged, 5)
	assert.Equal(t, deck.Final["3"], merged["3"], "shared joint takes the later group")
	assert.NotEqual(t, pier.Final["3"], merged["3"])

	loads := m.Loads("EQL")
	assert.Len(t, loads, 5)
	assert.Equal(t, 5, run.Applied[loadcase.AxisX])
	for j, f := range merged {
		l, ok := loads[j]
		require.True(t, ok, j)
		assert.InDelta(t, f, l.Value[0], 1e-12)
		assert.Zero(t, l.Value[1])
		assert.True(t, l.Replace)
		assert.Equal(t, "GLOBAL", l.CoordSystem)
	}

	typ, ok := m.PatternType("EQL")
	require.True(t, ok)
	assert.Equal(t, loadcase.PatternQuake, typ)
}

func TestRunEqForce_ClearsPreviousLoads(t *testing.T) {
	ctx := context.Background()
	m := bridge(t)
	require.NoError(t, m.SetLocked(ctx, false))
	p := loadcase.Pattern(loadcase.AxisY)
	require.NoError(t, m.DefineSeismicPattern(ctx, p))
	require.NoError(t, m.ApplyNodalForce(ctx, engine.NodalForce{Joint: "9", LoadPattern: p.Name, Value: p.ForceVector(42), Replace: true}))

	r := New(m, quiet, nil, Options{Floor: 0})
	_, err := r.RunEqForce(ctx, []AxisPlan{plan(loadcase.AxisY, gf("PIER", 0.1))})
	require.NoError(t, err)

	loads := m.Loads(p.Name)
	assert.NotContains(t, loads, "9")
	assert.Len(t, loads, 3)
}

func TestRunEqForce_VerticalUsesMassOnly(t *testing.T) {
	ctx := context.Background()
	m := bridge(t)
	r := New(m, quiet, nil, Options{Floor: 0.8})

	run, err := r.RunEqForce(ctx, []AxisPlan{plan(loadcase.AxisZ, gf("DECK", 0.1), gf("LOOSE", 0.3))})
	require.NoError(t, err)
	require.NoError(t, run.Failed)

	loads := m.Loads("EQV")
	require.Len(t, loads, 4)
	assert.InDelta(t, 0.1*loadcase.Gravity*2, loads["4"].Value[2], 1e-12)
	assert.InDelta(t, 0.3*loadcase.Gravity*1, loads["9"].Value[2], 1e-12)
}

func TestRunEqForce_FloorWarningReachesSink(t *testing.T) {
	rec := &seismic.Recorder{}
	r := New(bridge(t), quiet, rec, Options{Floor: 1})

	run, err := r.RunEqForce(context.Background(), []AxisPlan{plan(loadcase.AxisX, gf("PIER", 0.15))})
	require.NoError(t, err)
	require.Len(t, run.Results, 1)

	res := run.Results[0]
	if res.Scaled {
		require.NotEmpty(t, rec.Warnings())
		assert.Equal(t, "PIER", rec.Warnings()[0].Group)
	} else {
		assert.Empty(t, rec.Warnings())
	}
}

func TestRunEqForce_DryRunLeavesModelUntouched(t *testing.T) {
	m := bridge(t)
	r := New(m, quiet, nil, Options{DryRun: true})

	run, err := r.RunEqForce(context.Background(), []AxisPlan{plan(loadcase.AxisX, gf("PIER", 0.1))})
	require.NoError(t, err)
	assert.Len(t, run.Merged[loadcase.AxisX], 3)
	assert.Empty(t, m.Loads("EQL"))
	_, defined := m.PatternType("EQL")
	assert.False(t, defined)
}

func TestRunEqForce_ValidatesBeforeTouchingEngine(t *testing.T) {
	m := bridge(t)
	require.NoError(t, m.Close())

	tests := []struct {
		name  string
		opts  Options
		plans []AxisPlan
	}{
		{"negative factor", Options{}, []AxisPlan{plan(loadcase.AxisX, gf("PIER", -0.1))}},
		{"empty group", Options{}, []AxisPlan{plan(loadcase.AxisX, gf("", 0.1))}},
		{"no plans", Options{}, nil},
		{"axis without groups", Options{}, []AxisPlan{plan(loadcase.AxisY)}},
		{"floor out of range", Options{Floor: 1.5}, []AxisPlan{plan(loadcase.AxisX, gf("PIER", 0.1))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(m, quiet, nil, tt.opts).RunEqForce(context.Background(), tt.plans)
			require.ErrorIs(t, err, seismic.ErrConfigurationMismatch)
			assert.NotErrorIs(t, err, engine.ErrClosed)
		})
	}
}

func TestRunEqForce_VerticalTakesEveryZGroup(t *testing.T) {
	ctx := context.Background()
	m := bridge(t)
	r := New(m, quiet, nil, Options{})

	run, err := r.RunEqForce(ctx, []AxisPlan{
		plan(loadcase.AxisZ, gf("DECK", 0.15), gf("PIER", 0.1), gf("LOOSE", 0.05)),
	})
	require.NoError(t, err)
	require.NoError(t, run.Failed)
	require.Len(t, run.Results, 3)

	loads := m.Loads("EQV")
	require.Len(t, loads, 6)
	assert.InDelta(t, 0.1*loadcase.Gravity*2, loads["3"].Value[2], 1e-12, "PIER is listed after DECK")
	assert.InDelta(t, 0.05*loadcase.Gravity*1, loads["9"].Value[2], 1e-12)
}

func TestRunPeriod_MergesEveryZGroupFirstWins(t *testing.T) {
	r := New(bridge(t), quiet, nil, Options{})
	run, err := r.RunPeriod(context.Background(), []AxisPlan{
		plan(loadcase.AxisZ, gf("DECK", 0), gf("PIER", 0), gf("LOOSE", 0)),
	})
	require.NoError(t, err)
	require.Len(t, run.Results, 1)
	z := run.Results[0]
	assert.Equal(t, ZGroupName, z.Group)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, z.Common, "joint 9 has no displacement")
	assert.Contains(t, z.Mass, "9")
}

func TestRunEqForce_DefinesPatternBehindSameNamedCase(t *testing.T) {
	ctx := context.Background()
	m := bridge(t)
	m.AddCase("EQL")

	r := New(m, quiet, nil, Options{})
	run, err := r.RunEqForce(ctx, []AxisPlan{plan(loadcase.AxisX, gf("PIER", 0.1))})
	require.NoError(t, err)

	typ, ok := m.PatternType("EQL")
	require.True(t, ok)
	assert.Equal(t, loadcase.PatternQuake, typ)
	assert.Len(t, m.Loads("EQL"), run.Applied[loadcase.AxisX])
	assert.Equal(t, 3, run.Applied[loadcase.AxisX])
}

func TestRunEqForce_FailingGroupLoggedOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	rec := &seismic.Recorder{}
	r := New(bridge(t), logger, rec, Options{})

	run, err := r.RunEqForce(context.Background(), []AxisPlan{plan(loadcase.AxisX, gf("LOOSE", 0.1), gf("PIER", 0.1))})
	require.NoError(t, err)
	require.Error(t, run.Failed)

	assert.Len(t, rec.Events(), 1)
	assert.Equal(t, 1, strings.Count(buf.String(), "group=LOOSE"), buf.String())
}
