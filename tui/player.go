package tui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/wricardo/mcp-training/warehouse/game/engine"
)

const helpLine = "arrows/hjkl/wasd move  n step  g run script  r reset  q quit"

var (
	styleWall   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleFloor  = tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
	styleRobot  = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleCrate  = tcell.StyleDefault.Foreground(tcell.ColorOrange)
	styleStatus = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleHelp   = tcell.StyleDefault.Foreground(tcell.ColorGreen)
)

// Canvas is the part of tcell.Screen the renderer draws on
type Canvas interface {
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
}

// Player drives one engine from the keyboard
type Player struct {
	screen tcell.Screen
	engine *engine.GameEngine
	status string
}

// NewPlayer creates a player for an initialized screen
func NewPlayer(screen tcell.Screen, eng *engine.GameEngine) *Player {
	return &Player{
		screen: screen,
		engine: eng,
		status: eng.GetState().Message,
	}
}

// Play opens the terminal, runs the player until quit, and restores the terminal
func Play(eng *engine.GameEngine) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	return NewPlayer(screen, eng).Run()
}

// Run processes events until a quit command arrives
func (p *Player) Run() error {
	p.redraw()
	for {
		switch ev := p.screen.PollEvent().(type) {
		case nil:
			// screen finalized
			return nil
		case *tcell.EventResize:
			p.screen.Sync()
			p.redraw()
		case *tcell.EventKey:
			if !p.Apply(KeyCommand(ev)) {
				return nil
			}
			p.redraw()
		}
	}
}

// Apply executes one command against the engine. It returns false on quit.
func (p *Player) Apply(cmd Command) bool {
	switch cmd.Action {
	case ActionQuit:
		return false
	case ActionMove:
		p.engine.Move(cmd.Direction)
		p.status = p.engine.GetState().Message
	case ActionStep:
		if _, ok := p.engine.Step(); !ok {
			p.status = "No scripted moves left"
		} else {
			p.status = p.engine.GetState().Message
		}
	case ActionRunScript:
		ran := p.engine.RunScript()
		p.status = fmt.Sprintf("Ran %d scripted moves. GPS sum: %d", ran, p.engine.GetScore())
	case ActionReset:
		p.engine.Reset()
		p.status = "Warehouse reset"
	}
	return true
}

// Status returns the last status line
func (p *Player) Status() string {
	return p.status
}

func (p *Player) redraw() {
	p.screen.Clear()
	Render(p.screen, p.engine.GetState(), p.status)
	p.screen.Show()
}

// Render draws the grid with a status block underneath
func Render(c Canvas, state *engine.GameState, status string) {
	rows := state.Grid.Rows()
	for y, row := range rows {
		x := 0
		for _, r := range row {
			c.SetContent(x, y, r, nil, tileStyle(r))
			x++
		}
	}

	line := len(rows) + 1
	drawText(c, 0, line, styleStatus, fmt.Sprintf("GPS: %d  Robot: %s  Script: %d/%d  Moves: %d (%d blocked)",
		state.Score, state.RobotPos, state.ScriptCursor, state.ScriptLength, state.TotalMoves, state.BlockedCount))
	drawText(c, 0, line+1, styleStatus, status)
	drawText(c, 0, line+3, styleHelp, helpLine)
}

func tileStyle(r rune) tcell.Style {
	switch r {
	case '#':
		return styleWall
	case '@':
		return styleRobot
	case 'O', '[', ']':
		return styleCrate
	}
	return styleFloor
}

func drawText(c Canvas, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		c.SetContent(x, y, r, nil, style)
		x++
	}
}
