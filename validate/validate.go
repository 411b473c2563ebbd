// Command validate checks the scenario files in a configs directory
// (../configs unless a directory is given). For every .json, .hcl and .txt
// scenario it checks:
//   - the file decodes and passes scenario validation (grid shape, symbols,
//     exactly one robot, no mixed crate widths, messages)
//   - the warehouse is enclosed by walls
//   - every crate shares the robot's floor area, so it can be reached
//   - the move list holds no stray characters
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/mcp-training/warehouse/game/config"
	"github.com/wricardo/mcp-training/warehouse/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

// validateConfig loads and validates a single scenario file
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	cfg, err := config.LoadFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	grid, err := engine.BuildGrid(cfg, false)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot build grid: %v", err))
		return result
	}

	// Border must be walls
	for _, c := range openBorder(grid) {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Border cell %s is not a wall", c))
	}

	if stray := strayMoveChars(cfg.Moves); stray > 0 {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Move list has %d characters that are not ^ v < >", stray))
	}

	if result.Valid {
		reachability := validateConnectivity(grid)
		if !reachability.Valid {
			result.Valid = false
		}
		result.Errors = append(result.Errors, reachability.Errors...)
	}

	if result.Valid {
		score, err := engine.SolveScenario(cfg, false)
		if err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Script run failed: %v", err))
			return result
		}
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Name: %s", cfg.Name))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Grid: %dx%d", grid.Width(), grid.Height()))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Crates: %d", len(grid.Crates())))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Double-width: %t", cfg.Wide || grid.IsWide()))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Scripted moves: %d", len(engine.ParseMoves(cfg.Moves))))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ GPS after script: %d", score))
	}

	return result
}

func openBorder(grid *engine.Grid) []engine.Coordinate {
	var open []engine.Coordinate
	w, h := grid.Width(), grid.Height()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x != 0 && y != 0 && x != w-1 && y != h-1 {
				continue
			}
			c := engine.Coordinate{X: x, Y: y}
			if t, _ := grid.TileAt(c); t != engine.Wall {
				open = append(open, c)
			}
		}
	}
	return open
}

func strayMoveChars(moves string) int {
	stray := 0
	for _, r := range moves {
		if _, ok := engine.DirectionFromRune(r); ok {
			continue
		}
		switch r {
		case ' ', '\t', '\r', '\n':
			continue
		}
		stray++
	}
	return stray
}

// validateConnectivity flood-fills the robot's floor area, treating crates as
// passable, and reports crates the robot can never touch.
func validateConnectivity(grid *engine.Grid) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	start := grid.RobotPosition()
	visited := map[engine.Coordinate]bool{start: true}
	queue := []engine.Coordinate{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, d := range engine.AllDirections {
			next := current.Step(d)
			if visited[next] {
				continue
			}
			if t, ok := grid.TileAt(next); !ok || t == engine.Wall {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}

	crates := grid.Crates()
	var unreachable []string
	for _, c := range crates {
		if !visited[c] {
			unreachable = append(unreachable, fmt.Sprintf("Crate at %s", c))
		}
	}

	if len(unreachable) > 0 {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Connectivity failure: %d/%d crates unreachable from the robot", len(unreachable), len(crates)))
		for _, crate := range unreachable {
			result.Errors = append(result.Errors, fmt.Sprintf("Unreachable: %s", crate))
		}
	} else {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Connectivity: All %d crates reachable from the robot", len(crates)))
	}

	return result
}

func scenarioFiles(configDir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.json", "*.hcl", "*.txt"} {
		matches, err := filepath.Glob(filepath.Join(configDir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// main validates each scenario file, printing a concise report and exiting
// with non-zero status if any are invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	files, err := scenarioFiles(configDir)
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All scenarios are valid!")
	} else {
		fmt.Println("❌ Some scenarios have errors")
		os.Exit(1)
	}
}
