package engine

import "fmt"

// Tile is the content of a single warehouse cell
type Tile uint8

const (
	Wall Tile = iota
	Free
	Robot
	Box
	BoxLeft
	BoxRight
)

// TileFromRune maps a map character to its tile
func TileFromRune(r rune) (Tile, bool) {
	switch r {
	case '#':
		return Wall, true
	case '.':
		return Free, true
	case '@':
		return Robot, true
	case 'O':
		return Box, true
	case '[':
		return BoxLeft, true
	case ']':
		return BoxRight, true
	}
	return 0, false
}

// Rune returns the map character for the tile
func (t Tile) Rune() rune {
	switch t {
	case Wall:
		return '#'
	case Free:
		return '.'
	case Robot:
		return '@'
	case Box:
		return 'O'
	case BoxLeft:
		return '['
	case BoxRight:
		return ']'
	}
	return '?'
}

func (t Tile) String() string {
	switch t {
	case Wall:
		return "wall"
	case Free:
		return "free"
	case Robot:
		return "robot"
	case Box:
		return "box"
	case BoxLeft:
		return "box_left"
	case BoxRight:
		return "box_right"
	}
	return fmt.Sprintf("tile(%d)", uint8(t))
}

// IsBox reports whether the tile is any movable crate cell
func (t Tile) IsBox() bool {
	return t == Box || t == BoxLeft || t == BoxRight
}

// IsAnchor reports whether the tile is the cell a crate is scored by
func (t Tile) IsAnchor() bool {
	return t == Box || t == BoxLeft
}

// partnerOffset returns the offset from a crate half to its other half
func (t Tile) partnerOffset() (Coordinate, bool) {
	switch t {
	case BoxLeft:
		return Coordinate{X: 1}, true
	case BoxRight:
		return Coordinate{X: -1}, true
	}
	return Coordinate{}, false
}
