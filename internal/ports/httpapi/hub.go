package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/heroiclabs/nakama-common/runtime"

	"guinote/internal/logging"
	"guinote/internal/ports"
	"guinote/internal/table"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type client struct {
	gameID   string
	playerID string
	send     chan ports.LoggedEvent
}

// Hub streams logged events to websocket subscribers. Each subscriber only receives
// the events it may see.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
	logger  runtime.Logger
}

var _ ports.EventPublisher = (*Hub)(nil)

func NewHub(logger runtime.Logger) *Hub {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Hub{clients: map[string]map[*client]struct{}{}, logger: logger}
}

func (h *Hub) Publish(_ context.Context, events []ports.LoggedEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ev := range events {
		for c := range h.clients[ev.GameID] {
			if !table.Visible(ev.Event, c.playerID) {
				continue
			}
			select {
			case c.send <- ev:
			default:
				h.logger.Warn("dropping event %d for slow subscriber %s in game %s", ev.Seq, c.playerID, ev.GameID)
			}
		}
	}
	return nil
}

func (h *Hub) subscribe(gameID, playerID string) *client {
	c := &client{gameID: gameID, playerID: playerID, send: make(chan ports.LoggedEvent, sendBuffer)}
	h.mu.Lock()
	if h.clients[gameID] == nil {
		h.clients[gameID] = map[*client]struct{}{}
	}
	h.clients[gameID][c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *Hub) unsubscribe(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.clients[c.gameID]; ok {
		if _, ok := subs[c]; ok {
			delete(subs, c)
			close(c.send)
		}
		if len(subs) == 0 {
			delete(h.clients, c.gameID)
		}
	}
}

// Subscribers counts the open streams of gameID.
func (h *Hub) Subscribers(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[gameID])
}

// serve upgrades the request and pumps events until the socket closes. backlog is
// read after subscribing so no event falls between the two; duplicates are skipped by
// sequence number.
func (h *Hub) serve(w http.ResponseWriter, r *http.Request, gameID, playerID string, backlog func() ([]ports.LoggedEvent, error)) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade for %s: %v", playerID, err)
		return
	}
	c := h.subscribe(gameID, playerID)
	past, err := backlog()
	if err != nil {
		h.logger.Warn("websocket backlog for %s in game %s: %v", playerID, gameID, err)
	}
	go h.writePump(conn, c, past)
	h.readPump(conn, c)
}

// readPump discards client messages and unsubscribes when the socket closes.
func (h *Hub) readPump(conn *websocket.Conn, c *client) {
	defer func() {
		h.unsubscribe(c)
		conn.Close()
	}()
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(conn *websocket.Conn, c *client, backlog []ports.LoggedEvent) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	var last int64
	write := func(ev ports.LoggedEvent) error {
		if ev.Seq <= last {
			return nil
		}
		last = ev.Seq
		data, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteMessage(websocket.TextMessage, data)
	}
	for _, ev := range backlog {
		if err := write(ev); err != nil {
			return
		}
	}
	for {
		select {
		case ev, ok := <-c.send:
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := write(ev); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
