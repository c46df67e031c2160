// Package realtime рассылает события изменения сущностей подключённым
// WebSocket-клиентам.
//
// Изображения и маркеры уходят всем клиентам, комментарии только подписчикам
// темы Marker/{markerId}/Comment.
package realtime

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"CyMarker/internal/metrics"
	"CyMarker/internal/model"
)

// Имена событий в кадрах {"event": ..., "data": ...}.
const (
	EventSaved       = "saved"
	EventRemoved     = "removed"
	EventAck         = "ack"
	EventSubscribe   = "subscribeMarker"
	EventUnsubscribe = "unsubscribeMarker"
)

const broadcastBuffer = 256

// CommentTopic — тема комментариев маркера.
func CommentTopic(markerID string) string {
	return "Marker/" + markerID + "/Comment"
}

// Message — кадр, отправляемый клиенту.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Saved — полезная нагрузка события saved, заполнено ровно одно поле.
type Saved struct {
	Image   *model.Image   `json:"image,omitempty"`
	Marker  *model.Marker  `json:"marker,omitempty"`
	Comment *model.Comment `json:"comment,omitempty"`
}

// Removed — полезная нагрузка события removed, заполнено ровно одно поле.
type Removed struct {
	ImageID   string `json:"imageId,omitempty"`
	MarkerID  string `json:"markerId,omitempty"`
	CommentID string `json:"commentId,omitempty"`
}

// Ack — ответ на subscribeMarker/unsubscribeMarker.
type Ack struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// delivery — сообщение и его адресат: пустая тема означает всех клиентов.
type delivery struct {
	topic string
	msg   Message
}

// Hub хранит клиентов и их подписки. Все методы безопасны для конкурентного
// вызова; методы Emit* на nil-хабе ничего не делают.
type Hub struct {
	logger *zap.SugaredLogger

	mu      sync.RWMutex
	clients map[*Client]map[string]struct{} // клиент -> его темы
	stopped bool                            // после остановки новые клиенты не принимаются

	broadcast chan delivery
	running   atomic.Bool
}

// NewHub создаёт хаб. Рассылка начинается после запуска RunWithContext.
func NewHub(logger *zap.SugaredLogger) *Hub {
	return &Hub{
		logger:    logger,
		clients:   make(map[*Client]map[string]struct{}),
		broadcast: make(chan delivery, broadcastBuffer),
	}
}

// RunWithContext доставляет события до отмены ctx, затем закрывает всех клиентов.
func (h *Hub) RunWithContext(ctx context.Context) error {
	h.running.Store(true)
	defer h.running.Store(false)

	h.logger.Infow("realtime hub started")
	for {
		select {
		case <-ctx.Done():
			n := h.ClientCount()
			h.closeAllClients()
			h.logger.Infow("realtime hub stopped", "clients_closed", n)
			return ctx.Err()
		case d := <-h.broadcast:
			h.deliver(d)
		}
	}
}

// Running сообщает, запущен ли цикл рассылки.
func (h *Hub) Running() bool {
	return h != nil && h.running.Load()
}

// Register добавляет клиента без подписок. Остановленный хаб клиента не
// принимает: его очередь закрывается, возвращается false.
func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		close(c.send)
		return false
	}
	h.clients[c] = make(map[string]struct{})
	n := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Inc()
	h.logger.Infow("websocket client connected", "client", c.id, "total_clients", n)
	return true
}

// Unregister удаляет клиента и закрывает его очередь. Повторный вызов безопасен.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	removed := h.removeLocked(c)
	n := len(h.clients)
	h.mu.Unlock()

	if removed {
		h.logger.Infow("websocket client disconnected", "client", c.id, "total_clients", n)
	}
}

// removeLocked требует удержания h.mu на запись.
func (h *Hub) removeLocked(c *Client) bool {
	if _, ok := h.clients[c]; !ok {
		return false
	}
	delete(h.clients, c)
	close(c.send)
	metrics.WSConnections.Dec()
	return true
}

// Subscribe добавляет клиента в тему. Незарегистрированный клиент игнорируется.
func (h *Hub) Subscribe(c *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if topics, ok := h.clients[c]; ok {
		topics[topic] = struct{}{}
	}
}

// Unsubscribe убирает клиента из темы.
func (h *Hub) Unsubscribe(c *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if topics, ok := h.clients[c]; ok {
		delete(topics, topic)
	}
}

// sendTo кладёт сообщение в очередь зарегистрированного клиента, не блокируясь.
func (h *Hub) sendTo(c *Client, msg Message) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; !ok {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// ClientCount — число подключённых клиентов.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// EmitSaved публикует событие сохранения.
func (h *Hub) EmitSaved(s Saved) {
	topic := ""
	if s.Comment != nil {
		topic = CommentTopic(s.Comment.MarkerID)
	}
	h.emit(delivery{topic: topic, msg: Message{Event: EventSaved, Data: s}})
}

// EmitRemoved публикует событие удаления. markerID задаёт тему для комментариев.
func (h *Hub) EmitRemoved(r Removed, markerID string) {
	topic := ""
	if r.CommentID != "" {
		topic = CommentTopic(markerID)
	}
	h.emit(delivery{topic: topic, msg: Message{Event: EventRemoved, Data: r}})
}

// emit ставит событие в очередь. Без запущенного хаба или при полной очереди
// событие теряется.
func (h *Hub) emit(d delivery) {
	if !h.Running() {
		metrics.RecordNotifierEvent(d.msg.Event, false)
		return
	}
	select {
	case h.broadcast <- d:
		metrics.RecordNotifierEvent(d.msg.Event, true)
	default:
		metrics.RecordNotifierEvent(d.msg.Event, false)
		h.logger.Warnw("broadcast queue full, dropping event", "event", d.msg.Event, "topic", d.topic)
	}
}

// deliver отправляет сообщение адресатам по порядку id. Клиент с полной
// очередью отключается.
func (h *Hub) deliver(d delivery) {
	h.mu.Lock()
	defer h.mu.Unlock()

	targets := make([]*Client, 0, len(h.clients))
	for c, topics := range h.clients {
		if d.topic != "" {
			if _, ok := topics[d.topic]; !ok {
				continue
			}
		}
		targets = append(targets, c)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].id < targets[j].id })

	for _, c := range targets {
		select {
		case c.send <- d.msg:
		default:
			h.removeLocked(c)
			metrics.WSSlowClients.Inc()
			h.logger.Warnw("slow websocket client disconnected", "client", c.id)
		}
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped = true
	for c := range h.clients {
		h.removeLocked(c)
	}
}
