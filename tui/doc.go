// Package tui is a terminal player for a single warehouse.
//
// It renders the grid with tcell and maps keys onto engine commands: arrow
// keys, hjkl, wasd or the ^v<> symbols push the robot, n applies the next
// scripted move, g runs the rest of the script, r resets and q or Esc quits.
package tui
