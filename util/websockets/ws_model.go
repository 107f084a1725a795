package websockets

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Message types
const (
	MsgTypeSubscribe     = "subscribe"
	MsgTypeReportCreated = "report.created"
	MsgTypeVoteChanged   = "vote.changed"
)

// Client represents a connected feed viewer. An empty City receives every event.
// City is guarded by the manager's mutex; send is closed by the manager only.
type Client struct {
	Conn *websocket.Conn
	City string
	send chan []byte
}

type WebSocketManager struct {
	clients    map[*Client]struct{}
	broadcast  chan Event
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.Mutex
	logger     *zap.Logger
}

// Event is pushed to subscribed clients when the feed changes.
type Event struct {
	Type      string    `json:"type"`
	ReportID  uuid.UUID `json:"report_id"`
	City      string    `json:"city"`
	VoteCount int       `json:"vote_count"`
}

// Message struct for incoming WebSocket messages
type Message struct {
	Type string `json:"type"`
	City string `json:"city,omitempty"`
}
