package loadcase

import (
	"fmt"
	"strings"
)

// Axis is a global translational direction.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// Axes lists the three global directions in report order.
var Axes = []Axis{AxisX, AxisY, AxisZ}

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	case AxisZ:
		return "Z"
	default:
		return "?"
	}
}

// DOF is the index of the axis in a nodal load or result vector.
func (a Axis) DOF() int {
	return int(a)
}

// Vertical reports whether forces on this axis are mass-distributed.
func (a Axis) Vertical() bool {
	return a == AxisZ
}

// ParseAxis parses "X", "Y" or "Z" (case-insensitive).
func ParseAxis(s string) (Axis, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "X":
		return AxisX, nil
	case "Y":
		return AxisY, nil
	case "Z":
		return AxisZ, nil
	}
	return 0, fmt.Errorf("unknown axis %q", s)
}

// UnitAcceleration is a linear static case loaded by a uniform
// acceleration of 1 g along one axis.
type UnitAcceleration struct {
	Name      string  // load case name, e.g. UNIT-X
	Axis      Axis    // direction of the acceleration
	Direction string  // engine acceleration label: UX, UY or UZ
	Scale     float64 // acceleration scale (L/s²)
}

// UnitCases are the three unit acceleration cases run before any period or
// force derivation.
var UnitCases = []UnitAcceleration{
	{Name: "UNIT-X", Axis: AxisX, Direction: "UX", Scale: Gravity},
	{Name: "UNIT-Y", Axis: AxisY, Direction: "UY", Scale: Gravity},
	{Name: "UNIT-Z", Axis: AxisZ, Direction: "UZ", Scale: Gravity},
}

// UnitCase returns the unit acceleration case for the axis.
func UnitCase(a Axis) UnitAcceleration {
	return UnitCases[a]
}

// UnitCaseNames returns the names of all unit acceleration cases.
func UnitCaseNames() []string {
	names := make([]string, len(UnitCases))
	for i, uc := range UnitCases {
		names[i] = uc.Name
	}
	return names
}

// PatternType is the engine's load pattern type enumeration.
type PatternType int

// Load pattern types used here
const (
	PatternDead  PatternType = 1
	PatternQuake PatternType = 5
	PatternOther PatternType = 8
)

// SeismicPattern is the load pattern (and its same-named linear static
// case) that receives the equivalent static nodal forces for one axis.
type SeismicPattern struct {
	Name string
	Axis Axis
	Type PatternType
}

// SeismicPatterns: EQL longitudinal (X), EQT transverse (Y), EQV vertical (Z)
var SeismicPatterns = []SeismicPattern{
	{Name: "EQL", Axis: AxisX, Type: PatternQuake},
	{Name: "EQT", Axis: AxisY, Type: PatternQuake},
	{Name: "EQV", Axis: AxisZ, Type: PatternQuake},
}

// Pattern returns the seismic load pattern for the axis.
func Pattern(a Axis) SeismicPattern {
	return SeismicPatterns[a]
}

// ForceVector builds the six-component nodal load with the force on the
// pattern's axis and zeros elsewhere.
func (p SeismicPattern) ForceVector(force float64) [DOFCount]float64 {
	var v [DOFCount]float64
	v[p.Axis.DOF()] = force
	return v
}

var patternTypeNames = map[PatternType]string{
	PatternDead:  "DEAD",
	PatternQuake: "QUAKE",
	PatternOther: "OTHER",
}

func (t PatternType) String() string {
	if s, ok := patternTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("TYPE%d", int(t))
}

// ParsePatternType maps an engine design type label back to its type.
// Unknown labels come back as PatternOther.
func ParsePatternType(s string) PatternType {
	s = strings.ToUpper(strings.TrimSpace(s))
	for t, name := range patternTypeNames {
		if name == s {
			return t
		}
	}
	return PatternOther
}
