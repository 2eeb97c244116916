// Package live pushes notifications and view updates to connected browser
// tabs over websockets.
package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/ashureev/hms-console/internal/identity"
	"github.com/ashureev/hms-console/internal/notify"
	"github.com/ashureev/hms-console/internal/views"
	"github.com/coder/websocket"
)

// Message types sent to the browser.
const (
	TypeNotification = "notification"
	TypeViewUpdate   = "view_update"
	TypePong         = "pong"
)

const writeTimeout = 5 * time.Second

// Message is the envelope written to a tab's websocket.
type Message struct {
	Type         string               `json:"type"`
	Notification *notify.Notification `json:"notification,omitempty"`
	View         views.Name           `json:"view,omitempty"`
	Model        any                  `json:"model,omitempty"`
}

// Hub tracks one websocket per tab and buffers notifications for replay.
type Hub struct {
	queue  *notify.Queue
	logger *slog.Logger

	mu     sync.RWMutex
	active map[string]*client

	// beforeReplay runs after a connection is registered and before its
	// replay is read from the queue.
	beforeReplay func(tabID string)
}

// client is one tab's connection.
type client struct {
	conn *websocket.Conn

	// mu serializes writes and is held for the whole replay.
	mu sync.Mutex
	// replayed is the highest event id covered by last_event_id or the replay.
	replayed int64
}

// NewHub creates a hub backed by queue.
func NewHub(queue *notify.Queue, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		queue:  queue,
		logger: logger,
		active: make(map[string]*client),
	}
}

// Attach registers conn as the tab's connection, closing any connection it
// replaces, and replays the notifications newer than afterEventID. It
// returns the number replayed. A notification raised while attaching is
// written once, either by the replay or by its own push.
func (h *Hub) Attach(tabID string, conn *websocket.Conn, afterEventID int64) int {
	c := &client{conn: conn, replayed: afterEventID}
	c.mu.Lock()
	defer c.mu.Unlock()

	h.mu.Lock()
	if existing, ok := h.active[tabID]; ok && existing.conn != conn {
		_ = existing.conn.Close(websocket.StatusNormalClosure, "connection replaced")
	}
	h.active[tabID] = c
	h.mu.Unlock()
	h.logger.Info("Live connection registered", "tab_id", tabID)

	if h.beforeReplay != nil {
		h.beforeReplay(tabID)
	}

	missed := h.queue.Since(tabID, afterEventID)
	if len(missed) > 0 {
		c.replayed = missed[len(missed)-1].EventID
	}
	for i := range missed {
		if err := writeJSON(conn, Message{Type: TypeNotification, Notification: &missed[i]}); err != nil {
			h.logger.Debug("Replay write failed", "tab_id", tabID, "error", err)
			return i
		}
	}
	return len(missed)
}

// Unregister removes conn if it is still the tab's connection.
func (h *Hub) Unregister(tabID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.active[tabID]; ok && current.conn == conn {
		delete(h.active, tabID)
		h.logger.Info("Live connection unregistered", "tab_id", tabID)
	}
}

// Connected reports whether the tab has a live connection.
func (h *Hub) Connected(tabID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.active[tabID]
	return ok
}

// CloseAll terminates every connection. Used on shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for tabID, c := range h.active {
		_ = c.conn.Close(websocket.StatusGoingAway, "server shutting down")
		delete(h.active, tabID)
	}
}

// Notify implements notify.Notifier. The notification is queued for the
// context's tab and pushed if the tab is connected.
func (h *Hub) Notify(ctx context.Context, n notify.Notification) {
	tabID := identity.TabIDFromContext(ctx)
	n = h.queue.Enqueue(tabID, n)
	h.send(tabID, Message{Type: TypeNotification, Notification: &n})
}

// PushView sends the view's current model to the tab.
func (h *Hub) PushView(_ context.Context, tabID string, v views.View) {
	h.send(tabID, Message{Type: TypeViewUpdate, View: v.Name(), Model: v.Model()})
}

// Forget drops the tab's buffered notifications.
func (h *Hub) Forget(tabID string) {
	h.queue.Prune(tabID)
}

func (h *Hub) send(tabID string, msg Message) {
	h.mu.RLock()
	c := h.active[tabID]
	h.mu.RUnlock()
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if msg.Notification != nil && msg.Notification.EventID <= c.replayed {
		return
	}
	if err := writeJSON(c.conn, msg); err != nil {
		h.logger.Debug("Live write failed", "tab_id", tabID, "type", msg.Type, "error", err)
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}
