// Package seismic derives Rayleigh periods and equivalent static seismic
// nodal forces from unit-acceleration displacements and assembled masses.
//
// Everything here is a pure function of in-memory data. Nothing blocks,
// nothing is shared between calls.
package seismic

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/alexiusacademia/goeq/internal/loadcase"
)

// Quantity tells which nodal result a NodeResult carries.
type Quantity int

const (
	Displacement Quantity = iota
	Mass
	Force
)

func (q Quantity) String() string {
	switch q {
	case Displacement:
		return "displacement"
	case Mass:
		return "mass"
	case Force:
		return "force"
	default:
		return "unknown"
	}
}

// NodeResult is one group query as returned by the engine: node names and
// values in parallel, position i of one belonging to position i of the
// other. Names may repeat.
type NodeResult struct {
	Quantity Quantity
	Names    []string
	Values   []float64
}

// Len returns the number of result rows.
func (r NodeResult) Len() int {
	return len(r.Names)
}

// Map zips names and values into a NodeMap. A name that repeats keeps the
// value at its last position.
func (r NodeResult) Map() (NodeMap, error) {
	if len(r.Names) != len(r.Values) {
		return nil, fmt.Errorf("%w: %d %s names but %d values",
			ErrConfigurationMismatch, len(r.Names), r.Quantity, len(r.Values))
	}
	m := make(NodeMap, len(r.Names))
	for i, name := range r.Names {
		m[name] = r.Values[i]
	}
	return m, nil
}

// NodeMap maps a node name to one scalar (displacement, mass or force).
type NodeMap map[string]float64

// Sum adds all values in node order.
func (m NodeMap) Sum() float64 {
	var sum float64
	for _, n := range m.Nodes() {
		sum += m[n]
	}
	return sum
}

// Nodes returns the keys sorted with NodeLess.
func (m NodeMap) Nodes() []string {
	nodes := make([]string, 0, len(m))
	for n := range m {
		nodes = append(nodes, n)
	}
	SortNodes(nodes)
	return nodes
}

// Clone returns an independent copy.
func (m NodeMap) Clone() NodeMap {
	if m == nil {
		return nil
	}
	c := make(NodeMap, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// NodeLess orders numeric node names by value ahead of symbolic names,
// which sort lexicographically.
func NodeLess(a, b string) bool {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	switch {
	case aerr == nil && berr == nil:
		return ai < bi
	case aerr == nil:
		return true
	case berr == nil:
		return false
	default:
		return a < b
	}
}

// SortNodes sorts node names in place with NodeLess.
func SortNodes(nodes []string) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return NodeLess(nodes[i], nodes[j])
	})
}

// GroupFactor binds a group to its seismic coefficient.
type GroupFactor struct {
	Group  string
	Factor float64
}

// PairFactors binds groups to factors by position. The lists must have the
// same length.
func PairFactors(groups []string, factors []float64) ([]GroupFactor, error) {
	if len(groups) != len(factors) {
		return nil, fmt.Errorf("%w: %d groups but %d seismic factors",
			ErrConfigurationMismatch, len(groups), len(factors))
	}
	pairs := make([]GroupFactor, len(groups))
	for i := range groups {
		pairs[i] = GroupFactor{Group: groups[i], Factor: factors[i]}
	}
	return pairs, nil
}

// GroupData is a NodeResult tagged with the group it was queried for.
type GroupData struct {
	Group  string
	Result NodeResult
}

// PeriodResult is the Rayleigh period of one group.
type PeriodResult struct {
	Axis   loadcase.Axis
	Group  string
	Period float64 // s
	Beta   float64 // |Σ m·u|
	Zeta   float64 // Σ m·u²

	Mass   NodeMap
	Disp   NodeMap
	WU     NodeMap // m·u on common nodes
	WUU    NodeMap // m·u² on common nodes
	Common []string
}

// ForceResult holds the equivalent static nodal forces of one group.
// Beta, Zeta, Disp, WU and WUU stay empty for vertical results.
type ForceResult struct {
	Axis   loadcase.Axis
	Group  string
	Factor float64

	Beta           float64
	Zeta           float64
	TotalMass      float64
	BaseShear      float64
	BaseShearFloor float64

	Mass NodeMap
	Disp NodeMap
	WU   NodeMap
	WUU  NodeMap

	Raw   NodeMap // first-mode distribution before the floor check
	Final NodeMap // forces to apply

	Scaled      bool
	ScaleFactor float64
}

// TotalForce is the signed sum of the final nodal forces.
func (r *ForceResult) TotalForce() float64 {
	return r.Final.Sum()
}
