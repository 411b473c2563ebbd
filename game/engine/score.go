package engine

// GPS returns the scoring weight of a crate anchored at c
func GPS(c Coordinate) int {
	return 100*c.Y + c.X
}

// Score sums the GPS coordinate of every crate anchor: the single-width box,
// or the left half of a double-width crate.
func Score(g *Grid) int {
	total := 0
	for c, t := range g.tiles {
		if t.IsAnchor() {
			total += GPS(c)
		}
	}
	return total
}
