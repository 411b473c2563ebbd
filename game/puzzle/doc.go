// Package puzzle reads warehouse puzzles in their plain text form: the map
// rows, a blank line, then the robot's moves spread over any number of lines.
//
//	########
//	#..O.O.#
//	##@.O..#
//	########
//
//	<^^>>>vv<v>>v<<
//
// The grammar is built with participle. Line breaks inside the move list are
// ignored, as is any character that is not one of ^ v < >.
package puzzle
