package engine

// Simulate applies moves to a copy of grid and returns the final grid and its GPS sum.
// The input grid is left as it was.
func Simulate(grid *Grid, moves []Direction) (*Grid, int) {
	g := grid.Clone()
	for _, d := range moves {
		Apply(g, d)
	}
	return g, Score(g)
}

// SolveScenario runs a scenario's whole move list and returns the final GPS sum
func SolveScenario(config *ScenarioConfig, wide bool) (int, error) {
	grid, err := BuildGrid(config, wide)
	if err != nil {
		return 0, err
	}
	_, score := Simulate(grid, ParseMoves(config.Moves))
	return score, nil
}

// CountOccupied returns the number of cells that are not Free
func CountOccupied(g *Grid) int {
	n := 0
	for _, t := range g.tiles {
		if t != Free {
			n++
		}
	}
	return n
}
