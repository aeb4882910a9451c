package server

import (
	"context"
	"fmt"

	"github.com/gofiber/websocket/v2"

	"github.com/huangminghuang/chainwait/logger"
	"github.com/huangminghuang/chainwait/tracker"
)

const hubInnerChannelsBufferSize = 100

// hub fans tracked transaction events out to connected websocket clients.
// Only the run goroutine writes to connections.
type hub struct {
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	events     chan tracker.Event
	log        logger.Logger
}

func newHub(log logger.Logger) *hub {
	return &hub{
		register:   make(chan *websocket.Conn, hubInnerChannelsBufferSize),
		unregister: make(chan *websocket.Conn, hubInnerChannelsBufferSize),
		events:     make(chan tracker.Event, hubInnerChannelsBufferSize),
		log:        log,
	}
}

// broadcast hands an event to the hub without blocking. Events overflowing
// the hub buffer are dropped; the feed is best effort.
func (h *hub) broadcast(ev tracker.Event) {
	select {
	case h.events <- ev:
	default:
		h.log.Warn("websocket hub, event buffer full, dropping event")
	}
}

func (h *hub) run(ctx context.Context) {
	clients := make(map[*websocket.Conn]struct{})
	for {
		select {
		case <-ctx.Done():
			for conn := range clients {
				conn.Close()
			}
			return
		case conn := <-h.register:
			clients[conn] = struct{}{}
		case conn := <-h.unregister:
			delete(clients, conn)
		case ev := <-h.events:
			for conn := range clients {
				if err := conn.WriteJSON(ev); err != nil {
					h.log.Error(fmt.Sprintf("websocket hub, write failed: %s", err))
					delete(clients, conn)
					conn.Close()
				}
			}
		}
	}
}

// serve is the websocket handler. It keeps the connection registered until
// the client goes away; inbound messages are discarded.
func (h *hub) serve(conn *websocket.Conn) {
	h.register <- conn
	defer func() {
		h.unregister <- conn
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
