// Package websocket pushes live session updates to watchers.
//
// A Hub groups connections by session ID. Watchers connect with
// /ws?session=<id> and receive a JSON Message after every state change
// of that session; they never send commands over the socket. Frames that
// queue up while a write is in flight are joined with '\n' into one
// websocket message, so readers split on newlines before decoding.
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	defer hub.Stop()
//
//	hub.BroadcastToSession(sessionID, state)
//
// The hub's maps are only touched by the Run goroutine; every other
// method talks to it over channels.
package websocket
