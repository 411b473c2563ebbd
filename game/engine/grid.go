package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrInvalidGrid = errors.New("invalid grid")

// Grid owns the warehouse cells and the cached robot location.
// Coordinates missing from the map are out of bounds and behave like walls.
type Grid struct {
	tiles  map[Coordinate]Tile
	robot  Coordinate
	width  int
	height int
}

// NewGrid builds a grid from a rectangular character map and checks its invariants
func NewGrid(rows []string) (*Grid, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: layout is empty", ErrInvalidGrid)
	}

	g := &Grid{
		tiles:  make(map[Coordinate]Tile),
		height: len(rows),
	}

	robots := 0
	single, wide := false, false
	for y, row := range rows {
		runes := []rune(row)
		if y == 0 {
			g.width = len(runes)
			if g.width == 0 {
				return nil, fmt.Errorf("%w: row 1 is empty", ErrInvalidGrid)
			}
		} else if len(runes) != g.width {
			return nil, fmt.Errorf("%w: row %d has %d cells, expected %d", ErrInvalidGrid, y+1, len(runes), g.width)
		}

		for x, r := range runes {
			tile, ok := TileFromRune(r)
			if !ok {
				return nil, fmt.Errorf("%w: unknown symbol %q at (%d,%d)", ErrInvalidGrid, r, x, y)
			}
			c := Coordinate{X: x, Y: y}
			switch tile {
			case Robot:
				robots++
				g.robot = c
			case Box:
				single = true
			case BoxLeft:
				wide = true
				if x+1 >= len(runes) || runes[x+1] != ']' {
					return nil, fmt.Errorf("%w: crate half '[' at %s has no ']' to its right", ErrInvalidGrid, c)
				}
			case BoxRight:
				wide = true
				if x == 0 || runes[x-1] != '[' {
					return nil, fmt.Errorf("%w: crate half ']' at %s has no '[' to its left", ErrInvalidGrid, c)
				}
			}
			g.tiles[c] = tile
		}
	}

	switch {
	case robots == 0:
		return nil, fmt.Errorf("%w: no robot found", ErrInvalidGrid)
	case robots > 1:
		return nil, fmt.Errorf("%w: found %d robots, expected exactly one", ErrInvalidGrid, robots)
	case single && wide:
		return nil, fmt.Errorf("%w: single-width and double-width crates cannot be mixed", ErrInvalidGrid)
	}

	return g, nil
}

// MustGrid is NewGrid for fixed layouts; it panics on invalid input
func MustGrid(rows ...string) *Grid {
	g, err := NewGrid(rows)
	if err != nil {
		panic(err)
	}
	return g
}

// TileAt returns the tile at c, or false when c is outside the mapped area
func (g *Grid) TileAt(c Coordinate) (Tile, bool) {
	t, ok := g.tiles[c]
	return t, ok
}

// set replaces the content of c. Only the commit phase of a push calls it.
func (g *Grid) set(c Coordinate, t Tile) {
	g.tiles[c] = t
	if t == Robot {
		g.robot = c
	}
}

// RobotPosition returns the robot's current coordinate
func (g *Grid) RobotPosition() Coordinate {
	return g.robot
}

// Width returns the number of columns
func (g *Grid) Width() int {
	return g.width
}

// Height returns the number of rows
func (g *Grid) Height() int {
	return g.height
}

// IsWide reports whether the grid holds double-width crates
func (g *Grid) IsWide() bool {
	for _, t := range g.tiles {
		if t == BoxLeft {
			return true
		}
	}
	return false
}

// Widen expands a single-width grid horizontally: every cell becomes two.
func (g *Grid) Widen() (*Grid, error) {
	rows := g.Rows()
	wide := make([]string, len(rows))
	for i, row := range rows {
		var b strings.Builder
		b.Grow(len(row) * 2)
		for _, r := range row {
			switch r {
			case '#':
				b.WriteString("##")
			case '.':
				b.WriteString("..")
			case '@':
				b.WriteString("@.")
			case 'O':
				b.WriteString("[]")
			default:
				return nil, fmt.Errorf("%w: cannot widen a grid that already holds %q", ErrInvalidGrid, r)
			}
		}
		wide[i] = b.String()
	}
	return NewGrid(wide)
}

// Rows renders the grid back into its character map
func (g *Grid) Rows() []string {
	rows := make([]string, g.height)
	buf := make([]rune, g.width)
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			t, ok := g.tiles[Coordinate{X: x, Y: y}]
			if !ok {
				buf[x] = ' '
				continue
			}
			buf[x] = t.Rune()
		}
		rows[y] = string(buf)
	}
	return rows
}

func (g *Grid) String() string {
	return strings.Join(g.Rows(), "\n")
}

// Clone returns an independent copy of the grid
func (g *Grid) Clone() *Grid {
	tiles := make(map[Coordinate]Tile, len(g.tiles))
	for c, t := range g.tiles {
		tiles[c] = t
	}
	return &Grid{tiles: tiles, robot: g.robot, width: g.width, height: g.height}
}

// Equal reports whether two grids hold the same tile at every coordinate
func (g *Grid) Equal(o *Grid) bool {
	if g == nil || o == nil {
		return g == o
	}
	if len(g.tiles) != len(o.tiles) || g.robot != o.robot {
		return false
	}
	for c, t := range g.tiles {
		if ot, ok := o.tiles[c]; !ok || ot != t {
			return false
		}
	}
	return true
}

// CountTiles counts cells per tile kind
func (g *Grid) CountTiles() map[Tile]int {
	counts := make(map[Tile]int)
	for _, t := range g.tiles {
		counts[t]++
	}
	return counts
}

// Crates returns the anchor coordinate of every crate, in reading order
func (g *Grid) Crates() []Coordinate {
	var anchors []Coordinate
	for c, t := range g.tiles {
		if t.IsAnchor() {
			anchors = append(anchors, c)
		}
	}
	sort.Slice(anchors, func(i, j int) bool {
		if anchors[i].Y != anchors[j].Y {
			return anchors[i].Y < anchors[j].Y
		}
		return anchors[i].X < anchors[j].X
	})
	return anchors
}

// LocalView returns the 3x3 neighbourhood around the robot; out of bounds reads as '#'
func (g *Grid) LocalView() []string {
	lines := make([]string, 0, 3)
	for dy := -1; dy <= 1; dy++ {
		var row strings.Builder
		for dx := -1; dx <= 1; dx++ {
			t, ok := g.TileAt(g.robot.Add(Coordinate{X: dx, Y: dy}))
			if !ok {
				row.WriteRune(Wall.Rune())
				continue
			}
			row.WriteRune(t.Rune())
		}
		lines = append(lines, row.String())
	}
	return lines
}

// MarshalJSON encodes the grid as its character rows
func (g *Grid) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Rows())
}

// UnmarshalJSON rebuilds the grid from character rows, re-checking every invariant
func (g *Grid) UnmarshalJSON(data []byte) error {
	var rows []string
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	parsed, err := NewGrid(rows)
	if err != nil {
		return err
	}
	*g = *parsed
	return nil
}
