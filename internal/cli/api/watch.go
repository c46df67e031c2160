package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Event — кадр канала /ws.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// wsURL переводит http(s)://host в ws(s)://host/ws.
func wsURL(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://") + "/ws"
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://") + "/ws"
	default:
		return "ws://" + base + "/ws"
	}
}

// Watch подключается к каналу событий, подписывается на комментарии markerIDs
// и вызывает handle для каждого кадра, пока ctx не отменён.
func (c *Client) Watch(ctx context.Context, markerIDs []string, handle func(Event)) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	header := http.Header{}
	if c.Token != "" {
		header.Set("Authorization", "Bearer "+c.Token)
	}
	conn, _, err := dialer.DialContext(ctx, wsURL(c.BaseURL), header)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	for _, id := range markerIDs {
		if err := conn.WriteJSON(map[string]string{"event": "subscribeMarker", "data": id}); err != nil {
			return fmt.Errorf("subscribe %s: %w", id, err)
		}
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		var ev Event
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				return fmt.Errorf("connection closed: %s", closeErr.Text)
			}
			return err
		}
		handle(ev)
	}
}
