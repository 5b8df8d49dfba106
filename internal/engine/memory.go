package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/alexiusacademia/goeq/internal/loadcase"
	"github.com/alexiusacademia/goeq/internal/seismic"
)

// Vector holds the six translational/rotational components of a joint
// result (U1 U2 U3 R1 R2 R3).
type Vector [loadcase.DOFCount]float64

// StaticCase is a linear static case definition.
type StaticCase struct {
	Name  string
	Type  string // LinStatic unless read otherwise
	Loads []CaseLoad
}

// CaseLoad is one entry of a linear static case: a load pattern ("Load")
// or a uniform acceleration ("Accel").
type CaseLoad struct {
	Type  string
	Name  string
	Scale float64
}

// Memory is a Model held entirely in memory. It backs the workbook session
// and serves as a stand-in engine for tests and dry runs.
type Memory struct {
	mu sync.RWMutex

	groupOrder []string
	groups     map[string][]string

	caseOrder    []string
	cases        map[string]*StaticCase
	patternOrder []string
	patterns     map[string]loadcase.PatternType

	displ      map[string]map[string]Vector // case -> joint -> U
	masses     map[string]Vector            // joint -> M
	jointOrder []string
	jointSet   map[string]struct{}

	loads map[string]map[string]NodalForce // pattern -> joint -> load

	ran         map[string]bool
	units       loadcase.Units
	locked      bool
	coordSystem string
	closed      bool
}

// NewMemory returns an empty model in the GLOBAL coordinate system.
func NewMemory() *Memory {
	return &Memory{
		groups:      make(map[string][]string),
		cases:       make(map[string]*StaticCase),
		patterns:    make(map[string]loadcase.PatternType),
		displ:       make(map[string]map[string]Vector),
		masses:      make(map[string]Vector),
		jointSet:    make(map[string]struct{}),
		loads:       make(map[string]map[string]NodalForce),
		ran:         make(map[string]bool),
		units:       loadcase.DefaultUnits,
		coordSystem: "GLOBAL",
	}
}

// AddGroup assigns joints to a group, creating it if needed.
func (m *Memory) AddGroup(name string, joints ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.groups[name]; !ok {
		m.groupOrder = append(m.groupOrder, name)
	}
	m.groups[name] = append(m.groups[name], joints...)
}

// AddCase declares a load case without loads.
func (m *Memory) AddCase(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addCaseLocked(name)
}

func (m *Memory) addCaseLocked(name string) *StaticCase {
	if c, ok := m.cases[name]; ok {
		return c
	}
	c := &StaticCase{Name: name, Type: "LinStatic"}
	m.cases[name] = c
	m.caseOrder = append(m.caseOrder, name)
	return c
}

// SetDisplacement stores the displacement of a joint under a load case.
func (m *Memory) SetDisplacement(loadCase, joint string, u Vector) {
	m.mu.Lock()
	defer m.mu.Unlock()

	byJoint, ok := m.displ[loadCase]
	if !ok {
		byJoint = make(map[string]Vector)
		m.displ[loadCase] = byJoint
	}
	byJoint[joint] = u
	m.noteJoint(joint)
}

// SetMass stores the assembled mass of a joint.
func (m *Memory) SetMass(joint string, mass Vector) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.masses[joint] = mass
	m.noteJoint(joint)
}

func (m *Memory) noteJoint(joint string) {
	if _, ok := m.jointSet[joint]; ok {
		return
	}
	m.jointSet[joint] = struct{}{}
	m.jointOrder = append(m.jointOrder, joint)
}

// SetCoordSystem sets the present coordinate system name.
func (m *Memory) SetCoordSystem(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.coordSystem = name
}

// Loads returns the point loads currently assigned under a pattern.
func (m *Memory) Loads(pattern string) map[string]NodalForce {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]NodalForce, len(m.loads[pattern]))
	for j, f := range m.loads[pattern] {
		out[j] = f
	}
	return out
}

// Case returns a copy of a case definition.
func (m *Memory) Case(name string) (StaticCase, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.cases[name]
	if !ok {
		return StaticCase{}, false
	}
	cp := *c
	cp.Loads = append([]CaseLoad(nil), c.Loads...)
	return cp, true
}

// Ran reports whether the case was part of the last analysis run.
func (m *Memory) Ran(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ran[name]
}

// Units returns the present units.
func (m *Memory) Units() loadcase.Units {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.units
}

// jointsOf resolves a group to its joints. AllGroup always exists and
// covers every joint the model knows about unless assigned explicitly.
func (m *Memory) jointsOf(group string) ([]string, bool) {
	if joints, ok := m.groups[group]; ok {
		return joints, true
	}
	if group == AllGroup {
		return m.jointOrder, true
	}
	return nil, false
}

func (m *Memory) check(ctx context.Context, op string, write bool) error {
	if err := ctx.Err(); err != nil {
		return Wrap(op, err)
	}
	if m.closed {
		return Wrap(op, ErrClosed)
	}
	if write && m.locked {
		return Wrap(op, ErrLocked)
	}
	return nil
}

func (m *Memory) Groups(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.check(ctx, "groups", false); err != nil {
		return nil, err
	}
	groups := append([]string(nil), m.groupOrder...)
	if _, ok := m.groups[AllGroup]; !ok && len(m.jointOrder) > 0 {
		groups = append([]string{AllGroup}, groups...)
	}
	return groups, nil
}

func (m *Memory) LoadCases(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.check(ctx, "load cases", false); err != nil {
		return nil, err
	}
	return append([]string(nil), m.caseOrder...), nil
}

func (m *Memory) LoadPatterns(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.check(ctx, "load patterns", false); err != nil {
		return nil, err
	}
	return append([]string(nil), m.patternOrder...), nil
}

func (m *Memory) GroupJoints(ctx context.Context, group string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.check(ctx, "group joints", false); err != nil {
		return nil, err
	}
	joints, ok := m.jointsOf(group)
	if !ok {
		return nil, Wrap("group joints", fmt.Errorf("%w %q", ErrUnknownGroup, group))
	}
	return append([]string(nil), joints...), nil
}

func (m *Memory) SetUnits(ctx context.Context, units loadcase.Units) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "set units", false); err != nil {
		return err
	}
	m.units = units
	return nil
}

func (m *Memory) Locked(ctx context.Context) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.check(ctx, "locked", false); err != nil {
		return false, err
	}
	return m.locked, nil
}

func (m *Memory) SetLocked(ctx context.Context, locked bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "set locked", false); err != nil {
		return err
	}
	m.locked = locked
	return nil
}

func (m *Memory) CoordSystem(ctx context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.check(ctx, "coord system", false); err != nil {
		return "", err
	}
	return m.coordSystem, nil
}

func (m *Memory) DefineUnitCase(ctx context.Context, uc loadcase.UnitAcceleration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "define unit case", true); err != nil {
		return err
	}
	c := m.addCaseLocked(uc.Name)
	c.Loads = []CaseLoad{{Type: "Accel", Name: uc.Direction, Scale: uc.Scale}}
	return nil
}

func (m *Memory) DefineSeismicPattern(ctx context.Context, p loadcase.SeismicPattern) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "define pattern", true); err != nil {
		return err
	}
	m.addPatternLocked(p.Name, p.Type)
	c := m.addCaseLocked(p.Name)
	c.Loads = []CaseLoad{{Type: "Load", Name: p.Name, Scale: 1}}
	return nil
}

// AddPattern declares a load pattern without a case.
func (m *Memory) AddPattern(name string, t loadcase.PatternType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addPatternLocked(name, t)
}

func (m *Memory) addPatternLocked(name string, t loadcase.PatternType) {
	if _, ok := m.patterns[name]; !ok {
		m.patternOrder = append(m.patternOrder, name)
	}
	m.patterns[name] = t
}

// Patterns returns the defined load pattern names in definition order.
func (m *Memory) Patterns() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.patternOrder...)
}

// PatternType returns the type of a defined load pattern.
func (m *Memory) PatternType(name string) (loadcase.PatternType, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.patterns[name]
	return t, ok
}

// RunAnalysis flags exactly the given cases to run. Results must already
// be present for each of them; the memory model does not solve.
func (m *Memory) RunAnalysis(ctx context.Context, cases []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "run analysis", false); err != nil {
		return err
	}
	for _, c := range cases {
		if _, ok := m.cases[c]; !ok {
			return Wrap("run analysis", fmt.Errorf("%w %q", ErrUnknownCase, c))
		}
		if len(m.displ[c]) == 0 {
			return Wrap("run analysis", fmt.Errorf("no joint displacement results for case %q", c))
		}
	}
	m.ran = make(map[string]bool, len(cases))
	for _, c := range cases {
		m.ran[c] = true
	}
	return nil
}

func (m *Memory) Displacements(ctx context.Context, group, loadCase string, axis loadcase.Axis) (seismic.NodeResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	res := seismic.NodeResult{Quantity: seismic.Displacement}
	if err := m.check(ctx, "joint displacements", false); err != nil {
		return res, err
	}
	joints, ok := m.jointsOf(group)
	if !ok {
		return res, Wrap("joint displacements", fmt.Errorf("%w %q", ErrUnknownGroup, group))
	}
	if !m.ran[loadCase] {
		return res, Wrap("joint displacements", fmt.Errorf("case %q was not run", loadCase))
	}
	byJoint := m.displ[loadCase]
	for _, j := range joints {
		u, ok := byJoint[j]
		if !ok {
			continue
		}
		res.Names = append(res.Names, j)
		res.Values = append(res.Values, u[axis.DOF()])
	}
	return res, nil
}

func (m *Memory) Masses(ctx context.Context, group string, axis loadcase.Axis) (seismic.NodeResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	res := seismic.NodeResult{Quantity: seismic.Mass}
	if err := m.check(ctx, "assembled joint mass", false); err != nil {
		return res, err
	}
	joints, ok := m.jointsOf(group)
	if !ok {
		return res, Wrap("assembled joint mass", fmt.Errorf("%w %q", ErrUnknownGroup, group))
	}
	for _, j := range joints {
		mv, ok := m.masses[j]
		if !ok {
			continue
		}
		res.Names = append(res.Names, j)
		res.Values = append(res.Values, mv[axis.DOF()])
	}
	return res, nil
}

func (m *Memory) DeleteNodalForces(ctx context.Context, group, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "delete load force", true); err != nil {
		return err
	}
	joints, ok := m.jointsOf(group)
	if !ok {
		return Wrap("delete load force", fmt.Errorf("%w %q", ErrUnknownGroup, group))
	}
	for _, j := range joints {
		delete(m.loads[pattern], j)
	}
	return nil
}

func (m *Memory) ApplyNodalForce(ctx context.Context, f NodalForce) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "set load force", true); err != nil {
		return err
	}
	if _, ok := m.patterns[f.LoadPattern]; !ok {
		return Wrap("set load force", fmt.Errorf("%w %q", ErrUnknownPattern, f.LoadPattern))
	}

	byJoint, ok := m.loads[f.LoadPattern]
	if !ok {
		byJoint = make(map[string]NodalForce)
		m.loads[f.LoadPattern] = byJoint
	}
	if prev, ok := byJoint[f.Joint]; ok && !f.Replace {
		for i := range f.Value {
			f.Value[i] += prev.Value[i]
		}
	}
	byJoint[f.Joint] = f
	return nil
}

func (m *Memory) Save(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.check(ctx, "save", false)
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
