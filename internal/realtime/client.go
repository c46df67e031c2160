package realtime

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 64
)

var clientIDCounter atomic.Uint64

// Client — посредник между WebSocket-соединением и хабом.
type Client struct {
	id   uint64
	hub  *Hub
	conn *websocket.Conn
	send chan Message
}

// NewClient создаёт клиента с уникальным возрастающим id.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:   clientIDCounter.Add(1),
		hub:  hub,
		conn: conn,
		send: make(chan Message, sendBuffer),
	}
}

// ID — идентификатор клиента.
func (c *Client) ID() uint64 {
	return c.id
}

// inbound — кадр от клиента.
type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Start запускает чтение и запись соединения.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg inbound
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debugw("websocket read failed", "client", c.id, "error", err)
			}
			return
		}
		c.handle(msg)
	}
}

// handle обрабатывает запрос подписки и отвечает ack.
func (c *Client) handle(msg inbound) {
	switch msg.Event {
	case EventSubscribe, EventUnsubscribe:
	default:
		c.hub.logger.Debugw("unknown websocket event", "client", c.id, "event", msg.Event)
		return
	}

	var markerID string
	if err := json.Unmarshal(msg.Data, &markerID); err != nil || markerID == "" {
		c.reply(Ack{OK: false, Error: "markerId must be a non-empty string"})
		return
	}

	topic := CommentTopic(markerID)
	if msg.Event == EventSubscribe {
		c.hub.Subscribe(c, topic)
	} else {
		c.hub.Unsubscribe(c, topic)
	}
	c.reply(Ack{OK: true})
}

func (c *Client) reply(a Ack) {
	c.hub.sendTo(c, Message{Event: EventAck, Data: a})
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				// хаб закрыл очередь
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				c.hub.logger.Debugw("websocket write failed", "client", c.id, "error", err)
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWS возвращает обработчик апгрейда до WebSocket. origins — разрешённые
// значения заголовка Origin; "*" или пустой список разрешают всё. Запросы без
// Origin (не браузерные клиенты) принимаются.
func ServeWS(hub *Hub, origins []string, logger *zap.SugaredLogger) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin:      originChecker(origins),
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if !hub.Running() {
			http.Error(w, "realtime channel unavailable", http.StatusServiceUnavailable)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warnw("websocket upgrade failed", "error", err)
			return
		}
		client := NewClient(hub, conn)
		if !hub.Register(client) {
			// хаб остановился между проверкой и регистрацией
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"), time.Now().Add(writeWait))
			_ = conn.Close()
			return
		}
		client.Start()
	}
}

func originChecker(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(origins) == 0 {
			return true
		}
		for _, o := range origins {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}
