package httpapi

import (
	"context"
	"net/http"
	"sync"
	"time"

	"foodcourt/app-svc/internal/domain"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const writeWait = 5 * time.Second

// OrderHub fans the catalog's order snapshots out to websocket clients.
type OrderHub struct {
	clients    map[*websocket.Conn]bool
	changed    chan struct{}
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	logger     *logrus.Logger

	mu     sync.Mutex
	latest []domain.Order
}

func NewOrderHub(logger *logrus.Logger) *OrderHub {
	return &OrderHub{
		clients:    make(map[*websocket.Conn]bool),
		changed:    make(chan struct{}, 1),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Publish is safe to call from catalog listeners; it never blocks.
// Snapshots published while Run is busy collapse into the latest one.
func (h *OrderHub) Publish(orders []domain.Order) {
	h.mu.Lock()
	h.latest = orders
	h.mu.Unlock()

	select {
	case h.changed <- struct{}{}:
	default:
	}
}

func (h *OrderHub) snapshot() []domain.Order {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.latest == nil {
		return []domain.Order{}
	}
	return h.latest
}

func (h *OrderHub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for conn := range h.clients {
				conn.Close()
				delete(h.clients, conn)
			}
			return
		case conn := <-h.register:
			h.clients[conn] = true
			h.send(conn, h.snapshot())
		case conn := <-h.unregister:
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
		case <-h.changed:
			orders := h.snapshot()
			for conn := range h.clients {
				h.send(conn, orders)
			}
		}
	}
}

func (h *OrderHub) send(conn *websocket.Conn, orders []domain.Order) {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(orders); err != nil {
		h.logger.WithError(err).Debug("ws write error")
		conn.Close()
		delete(h.clients, conn)
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (h *OrderHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("ws upgrade error")
		return
	}
	select {
	case h.register <- conn:
		go h.listen(conn)
	case <-h.done:
		conn.Close()
	}
}

// listen drains client frames until the connection closes.
func (h *OrderHub) listen(conn *websocket.Conn) {
	defer func() {
		select {
		case h.unregister <- conn:
		case <-h.done:
		}
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
