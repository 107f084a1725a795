package websockets

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	broadcastBuffer = 64
	clientBuffer    = 16

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// NewWebSocketManager initializes a WebSocketManager
func NewWebSocketManager(logger *zap.Logger) *WebSocketManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSocketManager{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan Event, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run dispatches registrations and events until ctx is done. It never writes
// to a connection itself: events are queued on each client's send channel and
// a client whose queue is full is dropped.
func (manager *WebSocketManager) Run(ctx context.Context) {
	defer close(manager.done)

	for {
		select {
		case <-ctx.Done():
			manager.mu.Lock()
			for client := range manager.clients {
				manager.drop(client)
			}
			manager.mu.Unlock()
			return

		case client := <-manager.register:
			manager.mu.Lock()
			manager.clients[client] = struct{}{}
			manager.mu.Unlock()

		case client := <-manager.unregister:
			manager.mu.Lock()
			if _, exists := manager.clients[client]; exists {
				manager.drop(client)
			}
			manager.mu.Unlock()

		case event := <-manager.broadcast:
			payload, err := json.Marshal(event)
			if err != nil {
				manager.logger.Error("marshal feed event", zap.Error(err))
				continue
			}

			manager.mu.Lock()
			for client := range manager.clients {
				if !client.wants(event) {
					continue
				}
				select {
				case client.send <- payload:
				default:
					manager.logger.Info("dropping slow feed client", zap.String("city", client.City))
					manager.drop(client)
				}
			}
			manager.mu.Unlock()
		}
	}
}

// drop removes a client and closes its queue, which makes its writer close
// the connection. The caller must hold mu.
func (manager *WebSocketManager) drop(client *Client) {
	delete(manager.clients, client)
	close(client.send)
}

// Publish queues an event for delivery. It never blocks the caller: when the
// queue is full the event is dropped and clients catch up on their next fetch.
func (manager *WebSocketManager) Publish(event Event) {
	if manager == nil {
		return
	}
	select {
	case manager.broadcast <- event:
	default:
		manager.logger.Warn("feed event dropped", zap.String("type", event.Type), zap.Stringer("report_id", event.ReportID))
	}
}

func (manager *WebSocketManager) ClientCount() int {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	return len(manager.clients)
}

// HandleConnections upgrades HTTP requests to WebSocket connections. A
// "city" query parameter pre-selects the subscription.
func (manager *WebSocketManager) HandleConnections(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		manager.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	client := &Client{
		Conn: conn,
		City: r.URL.Query().Get("city"),
		send: make(chan []byte, clientBuffer),
	}

	select {
	case manager.register <- client:
	case <-manager.done:
		return
	}
	go client.writePump()

	defer func() {
		select {
		case manager.unregister <- client:
		case <-manager.done:
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var message Message
		if err := json.Unmarshal(msg, &message); err != nil {
			manager.logger.Debug("invalid websocket message", zap.Error(err))
			continue
		}

		if message.Type == MsgTypeSubscribe {
			manager.mu.Lock()
			client.City = message.City
			manager.mu.Unlock()
		}
	}
}

// writePump is the only writer on the connection. Every write carries a
// deadline so a peer that stops reading is disconnected instead of stalling.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) wants(event Event) bool {
	return c.City == "" || c.City == event.City
}
