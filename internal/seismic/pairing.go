package seismic

import "math"

// Pairing holds displacement and mass results of one group keyed by node,
// together with the nodes present on both sides.
type Pairing struct {
	Disp   NodeMap
	Mass   NodeMap
	Common []string // sorted with NodeLess
}

// Pair zips both results and intersects their node sets. A node with only
// a displacement or only a mass is left out of every weighted sum; it is
// never given a zero value on the missing side.
func Pair(disp, mass NodeResult) (*Pairing, error) {
	dm, err := disp.Map()
	if err != nil {
		return nil, err
	}
	mm, err := mass.Map()
	if err != nil {
		return nil, err
	}

	common := make([]string, 0, len(dm))
	for n := range dm {
		if _, ok := mm[n]; ok {
			common = append(common, n)
		}
	}
	if len(common) == 0 {
		return nil, ErrEmptyIntersection
	}
	SortNodes(common)

	return &Pairing{Disp: dm, Mass: mm, Common: common}, nil
}

// Weights are the mass-weighted displacement sums over the common nodes.
type Weights struct {
	WU   NodeMap // m·u
	WUU  NodeMap // m·u²
	Beta float64 // |Σ m·u|
	Zeta float64 // Σ m·u²
}

// Weights computes m·u and m·u² for every common node.
func (p *Pairing) Weights() Weights {
	w := Weights{
		WU:  make(NodeMap, len(p.Common)),
		WUU: make(NodeMap, len(p.Common)),
	}
	var sumWU float64
	for _, n := range p.Common {
		u, m := p.Disp[n], p.Mass[n]
		w.WU[n] = u * m
		w.WUU[n] = u * u * m
		sumWU += w.WU[n]
		w.Zeta += w.WUU[n]
	}
	w.Beta = math.Abs(sumWU)
	return w
}

// Degenerate reports whether either sum is zero.
func (w Weights) Degenerate() bool {
	return w.Beta == 0 || w.Zeta == 0
}
