package streaming

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"scamshield/internal/domain/models"
	"scamshield/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait / 2
	maxMessageSize = 8 * 1024
	clientBuffer   = 64
)

// Frame types sent to live feed clients
const (
	FrameEvent      = "event"
	FrameSubscribed = "subscribed"
	FrameError      = "error"
)

// Frame is one JSON message on the live feed
type Frame struct {
	Type   string                 `json:"type"`
	Event  *models.CommunityEvent `json:"event,omitempty"`
	Filter *Subscription          `json:"filter,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

// ClientCommand is what a client may send: {"action":"subscribe","filter":{...}}
// narrows the feed, {"action":"unsubscribe"} restores the full feed.
type ClientCommand struct {
	Action string        `json:"action"`
	Filter *Subscription `json:"filter,omitempty"`
}

// LiveStats describes the connected audience
type LiveStats struct {
	Clients int   `json:"clients"`
	Users   int   `json:"users"`
	Dropped int64 `json:"dropped_frames"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CORS is enforced by the router; mobile clients send no Origin
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocketHub pushes community events to authenticated live feed
// clients, grouped by user.
type WebSocketHub struct {
	logger *logger.Logger
	phones PhoneNormalizer

	mu    sync.RWMutex
	users map[string]map[*liveClient]struct{}

	events  chan *models.CommunityEvent
	dropped atomic.Int64
}

type liveClient struct {
	userID string
	conn   *websocket.Conn
	frames chan []byte
	filter atomic.Pointer[Subscription]
}

// NewWebSocketHub creates a new WebSocket hub. Phone filters sent by
// clients are normalized with phones before matching.
func NewWebSocketHub(log *logger.Logger, phones PhoneNormalizer) *WebSocketHub {
	return &WebSocketHub{
		logger: log.WithComponent("live-feed"),
		phones: phones,
		users:  make(map[string]map[*liveClient]struct{}),
		events: make(chan *models.CommunityEvent, 256),
	}
}

// Run fans queued events out to clients until ctx is done
func (h *WebSocketHub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.disconnectAll()
			return
		case event := <-h.events:
			h.fanOut(event)
		}
	}
}

// BroadcastEvent queues an event for delivery. It never blocks; when the
// queue is full the event is dropped for live clients only.
func (h *WebSocketHub) BroadcastEvent(event *models.CommunityEvent) {
	select {
	case h.events <- event:
	default:
		h.dropped.Add(1)
		h.logger.Warn().Str("type", string(event.Type)).Msg("live feed queue full, dropping event")
	}
}

func (h *WebSocketHub) fanOut(event *models.CommunityEvent) {
	data, err := json.Marshal(Frame{Type: FrameEvent, Event: event})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to encode event frame")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, clients := range h.users {
		for c := range clients {
			if !c.filter.Load().Matches(event) {
				continue
			}
			if !c.offer(data) {
				h.dropped.Add(1)
			}
		}
	}
}

// ServeWebSocket upgrades the request and attaches the connection to
// userID, who has already been authenticated by the router.
func (h *WebSocketHub) ServeWebSocket(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Str("user_id", userID).Msg("live feed upgrade failed")
		return
	}

	c := &liveClient{
		userID: userID,
		conn:   conn,
		frames: make(chan []byte, clientBuffer),
	}
	h.attach(c)

	go h.writeLoop(c)
	go h.readLoop(c)
}

func (h *WebSocketHub) attach(c *liveClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.users[c.userID]
	if !ok {
		clients = make(map[*liveClient]struct{})
		h.users[c.userID] = clients
	}
	clients[c] = struct{}{}
	h.logger.Debug().Str("user_id", c.userID).Int("user_connections", len(clients)).Msg("live feed client attached")
}

// detach removes c and closes its frame channel exactly once
func (h *WebSocketHub) detach(c *liveClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.users[c.userID]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	if len(clients) == 0 {
		delete(h.users, c.userID)
	}
	close(c.frames)
}

func (h *WebSocketHub) disconnectAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, clients := range h.users {
		for c := range clients {
			close(c.frames)
		}
		delete(h.users, userID)
	}
}

// readLoop applies client commands and keeps the read deadline moving
func (h *WebSocketHub) readLoop(c *liveClient) {
	defer func() {
		h.detach(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug().Err(err).Str("user_id", c.userID).Msg("live feed read failed")
			}
			return
		}

		var cmd ClientCommand
		if err := json.Unmarshal(raw, &cmd); err != nil {
			h.reply(c, Frame{Type: FrameError, Error: "malformed command"})
			continue
		}
		switch cmd.Action {
		case "subscribe":
			filter := cmd.Filter.Normalized(h.phones)
			c.filter.Store(filter)
			h.reply(c, Frame{Type: FrameSubscribed, Filter: filter})
		case "unsubscribe":
			c.filter.Store(nil)
			h.reply(c, Frame{Type: FrameSubscribed})
		default:
			h.reply(c, Frame{Type: FrameError, Error: "unknown action " + cmd.Action})
		}
	}
}

// writeLoop sends one frame per WebSocket message and pings idle clients
func (h *WebSocketHub) writeLoop(c *liveClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.frames:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// offer queues data without blocking; false means the client is too slow.
// Callers hold the hub read lock, so frames cannot be closed underneath.
func (c *liveClient) offer(data []byte) bool {
	select {
	case c.frames <- data:
		return true
	default:
		return false
	}
}

// reply answers a client command. The hub lock guards against a
// concurrent detach closing frames.
func (h *WebSocketHub) reply(c *liveClient, f Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, attached := h.users[c.userID][c]; attached {
		c.offer(data)
	}
}

// ClientCount returns the number of open connections
func (h *WebSocketHub) ClientCount() int {
	return h.Stats().Clients
}

// Stats reports connections, distinct users and frames dropped so far
func (h *WebSocketHub) Stats() LiveStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	stats := LiveStats{Users: len(h.users), Dropped: h.dropped.Load()}
	for _, clients := range h.users {
		stats.Clients += len(clients)
	}
	return stats
}
