// Package engine provides the core simulation for the warehouse robot.
//
// The engine package implements:
//   - The tile grid model (Grid, Tile, Coordinate, Direction)
//   - The two-phase push protocol for single- and double-width crates
//   - GPS scoring over final crate positions
//   - Scenario configuration, validation and session state
//
// Core Types:
//
// Grid owns every cell and the cached robot position. Apply pushes the robot
// one step: a read-only probe collects every cell that must shift, and only
// when the whole chain is free does the commit relocate it, farthest cell
// first. A Blocked result leaves the grid exactly as it was.
//
// Usage:
//
//	grid, err := engine.NewGrid([]string{
//		"#..#",
//		"#.O@",
//		"#..#",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	outcome := engine.Apply(grid, engine.Left)
//	score := engine.Score(grid)
//
// Double-width warehouses are derived once with Grid.Widen, which turns every
// cell into two: '#' into "##", '.' into "..", '@' into "@." and 'O' into "[]".
//
// GameEngine wraps a grid with a scenario, its scripted move list and a move
// history, and is what sessions hold.
package engine
