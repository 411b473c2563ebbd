package engine

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidDirection = errors.New("invalid direction")

// Coordinate represents x,y grid coordinates. X grows to the right, Y grows downward.
type Coordinate struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns the component-wise sum of two coordinates
func (c Coordinate) Add(o Coordinate) Coordinate {
	return Coordinate{X: c.X + o.X, Y: c.Y + o.Y}
}

// Step returns the neighbouring coordinate in the given direction
func (c Coordinate) Step(d Direction) Coordinate {
	return c.Add(d.Delta())
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Direction is one of the four cardinal push directions
type Direction int

const (
	Up Direction = iota
	Right
	Down
	Left
)

// AllDirections lists directions in the order the possible-moves helpers report them
var AllDirections = []Direction{Up, Down, Left, Right}

// Delta returns the unit offset for the direction
func (d Direction) Delta() Coordinate {
	switch d {
	case Up:
		return Coordinate{X: 0, Y: -1}
	case Right:
		return Coordinate{X: 1, Y: 0}
	case Down:
		return Coordinate{X: 0, Y: 1}
	case Left:
		return Coordinate{X: -1, Y: 0}
	}
	return Coordinate{}
}

// IsHorizontal reports whether the direction runs along a row
func (d Direction) IsHorizontal() bool {
	return d == Left || d == Right
}

// Valid reports whether d is one of the four defined directions
func (d Direction) Valid() bool {
	return d >= Up && d <= Left
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Right:
		return "right"
	case Down:
		return "down"
	case Left:
		return "left"
	}
	return fmt.Sprintf("direction(%d)", int(d))
}

// Symbol returns the move-list character for the direction
func (d Direction) Symbol() rune {
	switch d {
	case Up:
		return '^'
	case Right:
		return '>'
	case Down:
		return 'v'
	case Left:
		return '<'
	}
	return '?'
}

// MarshalText encodes the direction by name so JSON history stays readable
func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDirection, int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText accepts anything ParseDirection accepts
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DirectionFromRune maps a move-list character to a direction
func DirectionFromRune(r rune) (Direction, bool) {
	switch r {
	case '^':
		return Up, true
	case '>':
		return Right, true
	case 'v':
		return Down, true
	case '<':
		return Left, true
	}
	return 0, false
}

// ParseDirection accepts direction names (any case) or a single move symbol
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "u", "north", "^":
		return Up, nil
	case "right", "r", "east", ">":
		return Right, nil
	case "down", "d", "south", "v":
		return Down, nil
	case "left", "l", "west", "<":
		return Left, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// ParseMoves extracts the ordered move list from text, skipping every other character
func ParseMoves(s string) []Direction {
	moves := make([]Direction, 0, len(s))
	for _, r := range s {
		if d, ok := DirectionFromRune(r); ok {
			moves = append(moves, d)
		}
	}
	return moves
}

// FormatMoves renders a move list back into its symbol form
func FormatMoves(moves []Direction) string {
	var b strings.Builder
	b.Grow(len(moves))
	for _, d := range moves {
		b.WriteRune(d.Symbol())
	}
	return b.String()
}
