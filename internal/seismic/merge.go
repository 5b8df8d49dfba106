package seismic

import "fmt"

// MergeGroups combines several group results into one synthetic group.
// Nodes keep the order they are first met in, walking groups in slice
// order, and a node present in more than one group keeps the value of the
// first group. All inputs must carry the same quantity.
//
// MergeForces resolves duplicates the other way round; the two are not
// interchangeable.
func MergeGroups(name string, groups []GroupData) (GroupData, error) {
	merged := GroupData{Group: name}
	if len(groups) == 0 {
		return merged, nil
	}
	merged.Result.Quantity = groups[0].Result.Quantity

	seen := make(map[string]struct{})
	for _, g := range groups {
		r := g.Result
		if r.Quantity != merged.Result.Quantity {
			return GroupData{}, fmt.Errorf("%w: cannot merge %s of group %q into %s",
				ErrConfigurationMismatch, r.Quantity, g.Group, merged.Result.Quantity)
		}
		if len(r.Names) != len(r.Values) {
			return GroupData{}, fmt.Errorf("%w: group %q has %d names but %d values",
				ErrConfigurationMismatch, g.Group, len(r.Names), len(r.Values))
		}
		for i, n := range r.Names {
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
			merged.Result.Names = append(merged.Result.Names, n)
			merged.Result.Values = append(merged.Result.Values, r.Values[i])
		}
	}
	return merged, nil
}

// Overlay unions node maps; for a node in several maps the last map wins.
func Overlay(maps ...NodeMap) NodeMap {
	out := make(NodeMap)
	for _, m := range maps {
		for n, v := range m {
			out[n] = v
		}
	}
	return out
}

// MergeForces builds the per-axis load map from the final forces of every
// group. A node loaded by several groups takes the force of the last one.
func MergeForces(results []*ForceResult) NodeMap {
	maps := make([]NodeMap, 0, len(results))
	for _, r := range results {
		if r != nil {
			maps = append(maps, r.Final)
		}
	}
	return Overlay(maps...)
}
