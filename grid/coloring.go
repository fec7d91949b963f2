package grid

// ColorElements groups elements so that no two elements of the same group
// share an edge. Assembly loops that scatter into per-edge rows can then run
// every element of a group concurrently without write conflicts. Groups are
// returned in color order, elements within a group in ascending order.
func (g *Grid) ColorElements() [][]int {
	ec := g.edges
	colors := make([]int, g.NumElements())
	var ncolors int
	for e := range colors {
		var used uint64
		for _, idx := range ec.EToEdge[e] {
			for _, nb := range ec.Edges[idx].Elements {
				if nb >= 0 && nb < e {
					used |= 1 << colors[nb]
				}
			}
		}
		c := 0
		for used&(1<<c) != 0 {
			c++
		}
		colors[e] = c
		ncolors = max(ncolors, c+1)
	}

	groups := make([][]int, ncolors)
	for e, c := range colors {
		groups[c] = append(groups[c], e)
	}
	return groups
}
