package tui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/wricardo/mcp-training/warehouse/game/engine"
)

// Action is what a key press asks the player to do
type Action int

const (
	ActionNone Action = iota
	ActionMove
	ActionReset
	ActionStep
	ActionRunScript
	ActionQuit
)

// Command is a decoded key press
type Command struct {
	Action    Action
	Direction engine.Direction
}

var runeDirections = map[rune]engine.Direction{
	'k': engine.Up, 'w': engine.Up, '^': engine.Up,
	'l': engine.Right, 'd': engine.Right, '>': engine.Right,
	'j': engine.Down, 's': engine.Down, 'v': engine.Down,
	'h': engine.Left, 'a': engine.Left, '<': engine.Left,
}

// KeyCommand maps a key event to a player command
func KeyCommand(ev *tcell.EventKey) Command {
	switch ev.Key() {
	case tcell.KeyUp:
		return Command{Action: ActionMove, Direction: engine.Up}
	case tcell.KeyRight:
		return Command{Action: ActionMove, Direction: engine.Right}
	case tcell.KeyDown:
		return Command{Action: ActionMove, Direction: engine.Down}
	case tcell.KeyLeft:
		return Command{Action: ActionMove, Direction: engine.Left}
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return Command{Action: ActionQuit}
	case tcell.KeyRune:
	default:
		return Command{}
	}

	r := ev.Rune()
	if d, ok := runeDirections[r]; ok {
		return Command{Action: ActionMove, Direction: d}
	}
	switch r {
	case 'r':
		return Command{Action: ActionReset}
	case 'n':
		return Command{Action: ActionStep}
	case 'g':
		return Command{Action: ActionRunScript}
	case 'q':
		return Command{Action: ActionQuit}
	}
	return Command{}
}
