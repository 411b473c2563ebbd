package engine

import "fmt"

// MoveOutcome is the result of applying one command to a grid
type MoveOutcome int

const (
	Blocked MoveOutcome = iota
	Moved
)

func (o MoveOutcome) String() string {
	if o == Moved {
		return "moved"
	}
	return "blocked"
}

// MarshalText keeps outcomes readable in persisted history
func (o MoveOutcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText is the inverse of MarshalText
func (o *MoveOutcome) UnmarshalText(text []byte) error {
	if string(text) == "moved" {
		*o = Moved
	} else {
		*o = Blocked
	}
	return nil
}

// probe is the read-only feasibility check for one push. It records, in
// post-order, every cell whose content has to shift one step along dir:
// a cell is only appended after everything in front of it, so the list
// runs from the farthest cell back to the robot.
type probe struct {
	grid  *Grid
	dir   Direction
	memo  map[Coordinate]bool
	cells []Coordinate
}

func newProbe(g *Grid, d Direction) *probe {
	return &probe{
		grid: g,
		dir:  d,
		memo: make(map[Coordinate]bool),
	}
}

// canMove reports whether the content of from can shift one step along the probe direction
func (p *probe) canMove(from Coordinate) bool {
	if ok, seen := p.memo[from]; seen {
		return ok
	}

	next := from.Step(p.dir)
	tile, inBounds := p.grid.TileAt(next)

	var ok bool
	switch {
	case !inBounds:
		ok = false
	case tile == Free:
		ok = true
	case tile == Box:
		ok = p.canMove(next)
	case tile == BoxLeft || tile == BoxRight:
		if p.dir.IsHorizontal() {
			// along its own axis a crate is just two chained cells
			ok = p.canMove(next)
		} else {
			offset, _ := tile.partnerOffset()
			ok = p.canMove(next) && p.canMove(next.Add(offset))
		}
	default:
		// Wall, or a second robot which NewGrid never allows
		ok = false
	}

	p.memo[from] = ok
	if ok {
		p.cells = append(p.cells, from)
	}
	return ok
}

// PushPlan runs the feasibility probe for the robot and returns the cells that
// would move, farthest first. The grid is never modified. d must be one of the
// four defined directions; anything else panics with ErrInvalidDirection, since
// a blocked result would be indistinguishable from a wall.
func PushPlan(g *Grid, d Direction) ([]Coordinate, bool) {
	if !d.Valid() {
		panic(fmt.Errorf("%w: %d", ErrInvalidDirection, int(d)))
	}
	p := newProbe(g, d)
	if !p.canMove(g.RobotPosition()) {
		return nil, false
	}
	return p.cells, true
}

// CanPush reports whether the robot could move in direction d
func CanPush(g *Grid, d Direction) bool {
	_, ok := PushPlan(g, d)
	return ok
}

// Apply pushes the robot one step in direction d. A Blocked result leaves
// the grid untouched; the probe never writes, so there is nothing to undo.
// Like PushPlan it panics on an undefined direction. Parse untrusted input
// with ParseDirection or DirectionFromRune first.
func Apply(g *Grid, d Direction) MoveOutcome {
	cells, ok := PushPlan(g, d)
	if !ok {
		return Blocked
	}
	commit(g, d, cells)
	return Moved
}

// commit relocates every planned cell one step along d. cells must come from
// a successful probe on the same grid and direction: farthest cells go first,
// so a destination has always been vacated before it is written.
func commit(g *Grid, d Direction, cells []Coordinate) {
	delta := d.Delta()
	for _, src := range cells {
		t, _ := g.TileAt(src)
		g.set(src.Add(delta), t)
		g.set(src, Free)
	}
}
