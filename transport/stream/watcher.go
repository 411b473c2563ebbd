package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"nhooyr.io/websocket"

	wshub "github.com/wricardo/mcp-training/warehouse/transport/websocket"
)

// ErrStop can be returned by a Handler to end Watch without an error
var ErrStop = errors.New("stop watching")

// maxFrameSize bounds a single websocket message; states of large grids
// carry their full history.
const maxFrameSize = 16 << 20

// Handler receives every update in arrival order
type Handler func(msg *wshub.Message) error

// Watcher follows one session's update feed
type Watcher struct {
	baseURL string
}

// NewWatcher creates a watcher for a server such as http://localhost:8080
func NewWatcher(baseURL string) *Watcher {
	return &Watcher{baseURL: strings.TrimRight(baseURL, "/")}
}

// URL returns the websocket endpoint for a session
func (w *Watcher) URL(sessionID string) (string, error) {
	u, err := url.Parse(w.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL %q: %w", w.baseURL, err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("invalid server URL %q: unsupported scheme %q", w.baseURL, u.Scheme)
	}

	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	u.RawQuery = url.Values{"session": []string{sessionID}}.Encode()
	return u.String(), nil
}

// Watch dials the session feed and calls handle for each message until ctx
// is cancelled, the server closes the socket, or handle returns an error.
// Cancellation and ErrStop end the watch with a nil error.
func (w *Watcher) Watch(ctx context.Context, sessionID string, handle Handler) error {
	endpoint, err := w.URL(sessionID)
	if err != nil {
		return err
	}

	conn, _, err := websocket.Dial(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", endpoint, err)
	}
	defer conn.Close(websocket.StatusInternalError, "")
	conn.SetReadLimit(maxFrameSize)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			return fmt.Errorf("read from %s: %w", endpoint, err)
		}

		for _, frame := range bytes.Split(data, []byte{'\n'}) {
			if len(bytes.TrimSpace(frame)) == 0 {
				continue
			}

			var msg wshub.Message
			if err := json.Unmarshal(frame, &msg); err != nil {
				return fmt.Errorf("decode update: %w", err)
			}

			if err := handle(&msg); err != nil {
				if errors.Is(err, ErrStop) {
					conn.Close(websocket.StatusNormalClosure, "")
					return nil
				}
				return err
			}
		}
	}
}
