// Package stream is the client side of the session update feed served at /ws.
// The watch command uses it to follow a session from another terminal.
package stream
