package puzzle

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/wricardo/mcp-training/warehouse/game/engine"
)

var ErrInvalidPuzzle = errors.New("invalid puzzle")

// document is the raw shape of a puzzle input: map rows first, then any
// number of move runs. Anything in the move section that is not a move
// symbol is skipped.
type document struct {
	Rows  []string `parser:"@Row+"`
	Moves []string `parser:"( @Moves | Row | Other )*"`
}

var puzzleLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Row", Pattern: `[#.@O\[\]]+`},
	{Name: "Moves", Pattern: `[<>^v]+`},
	{Name: "Newline", Pattern: `\r?\n`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
	{Name: "Other", Pattern: `.`},
})

var parser = participle.MustBuild[document](
	participle.Lexer(puzzleLexer),
	participle.Elide("Newline", "Whitespace"),
)

// Puzzle is a parsed warehouse map with its move list
type Puzzle struct {
	Name  string
	Rows  []string
	Moves []engine.Direction

	grid *engine.Grid
}

// Parse reads a puzzle from text. The map is validated immediately.
func Parse(input string) (*Puzzle, error) {
	return parse("input", input)
}

// ParseFile reads a puzzle from a file; the file's base name becomes the puzzle name
func ParseFile(path string) (*Puzzle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return parse(name, string(data))
}

func parse(name, input string) (*Puzzle, error) {
	doc, err := parser.ParseString(name, input)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPuzzle, err)
	}

	grid, err := engine.NewGrid(doc.Rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPuzzle, err)
	}

	return &Puzzle{
		Name:  name,
		Rows:  doc.Rows,
		Moves: engine.ParseMoves(strings.Join(doc.Moves, "")),
		grid:  grid,
	}, nil
}

// Grid returns a fresh copy of the map as written
func (p *Puzzle) Grid() *engine.Grid {
	return p.grid.Clone()
}

// WideGrid returns the double-width version of the map
func (p *Puzzle) WideGrid() (*engine.Grid, error) {
	return p.grid.Widen()
}

// Solve runs the move list on a copy of the map and returns the GPS sum
func (p *Puzzle) Solve(wide bool) (int, error) {
	grid := p.Grid()
	if wide {
		var err error
		if grid, err = p.WideGrid(); err != nil {
			return 0, err
		}
	}
	_, score := engine.Simulate(grid, p.Moves)
	return score, nil
}

// Config converts the puzzle into a scenario config so it can be served like any other
func (p *Puzzle) Config() *engine.ScenarioConfig {
	return &engine.ScenarioConfig{
		Name:        p.Name,
		Description: fmt.Sprintf("%dx%d warehouse with %d crates and %d scripted moves", p.grid.Width(), p.grid.Height(), len(p.grid.Crates()), len(p.Moves)),
		Layout:      append([]string(nil), p.Rows...),
		Moves:       engine.FormatMoves(p.Moves),
		Messages: engine.ScenarioMessages{
			Welcome:    fmt.Sprintf("Welcome to %s!", p.Name),
			Moved:      "Moved %s.",
			Blocked:    "Blocked moving %s.",
			ScriptDone: "Script finished. GPS sum: %d",
		},
	}
}
