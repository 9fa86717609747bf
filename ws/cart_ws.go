package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"menu-service/common/middleware"
	"menu-service/models"
	"menu-service/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 1024
	broadcastQueue = 256
)

// CartReader loads the snapshot sent when a client connects.
type CartReader interface {
	GetCart(ctx context.Context, sessionID string) (*models.CartView, *services.ServiceError)
}

// CartHub pushes cart snapshots to every websocket open for a session.
type CartHub struct {
	clients    map[string]map[*websocket.Conn]bool // sessionID -> connections
	broadcast  chan CartUpdate
	register   chan Subscription
	unregister chan Subscription
	done       chan struct{}
	mu         sync.Mutex
	carts      CartReader
	upgrader   websocket.Upgrader
	logger     *zap.Logger
}

type Subscription struct {
	Conn      *websocket.Conn
	SessionID string
}

type CartUpdate struct {
	SessionID string
	View      models.CartView
}

// Message is the frame written to clients.
type Message struct {
	Type string          `json:"type"`
	Data models.CartView `json:"data"`
}

func NewCartHub(carts CartReader, allowedOrigins []string, logger *zap.Logger) *CartHub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &CartHub{
		clients:    make(map[string]map[*websocket.Conn]bool),
		broadcast:  make(chan CartUpdate, broadcastQueue),
		register:   make(chan Subscription),
		unregister: make(chan Subscription),
		done:       make(chan struct{}),
		carts:      carts,
		logger:     logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// Run owns every connection write. It returns when ctx is done, closing
// all open connections.
func (h *CartHub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for sessionID, conns := range h.clients {
				for conn := range conns {
					_ = conn.Close()
				}
				delete(h.clients, sessionID)
			}
			h.mu.Unlock()
			return

		case sub := <-h.register:
			h.mu.Lock()
			if h.clients[sub.SessionID] == nil {
				h.clients[sub.SessionID] = make(map[*websocket.Conn]bool)
			}
			h.clients[sub.SessionID][sub.Conn] = true
			h.mu.Unlock()

		case sub := <-h.unregister:
			h.mu.Lock()
			h.remove(sub.SessionID, sub.Conn)
			h.mu.Unlock()

		case update := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.clients[update.SessionID] {
				if err := write(conn, update.View); err != nil {
					h.logger.Debug("ws write failed", zap.String("session_id", update.SessionID), zap.Error(err))
					h.remove(update.SessionID, conn)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove must be called with mu held.
func (h *CartHub) remove(sessionID string, conn *websocket.Conn) {
	conns, ok := h.clients[sessionID]
	if !ok {
		return
	}
	if _, ok := conns[conn]; ok {
		delete(conns, conn)
		_ = conn.Close()
	}
	if len(conns) == 0 {
		delete(h.clients, sessionID)
	}
}

// NotifyCart queues a snapshot for the session's connections. It never
// blocks; updates are dropped when the queue is full.
func (h *CartHub) NotifyCart(sessionID string, view models.CartView) {
	select {
	case h.broadcast <- CartUpdate{SessionID: sessionID, View: view}:
	default:
		h.logger.Warn("ws broadcast queue full, dropping cart update", zap.String("session_id", sessionID))
	}
}

// Connections returns the number of open connections for a session.
func (h *CartHub) Connections(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[sessionID])
}

// HandleWebSocket upgrades the request and sends the current cart before
// subscribing the connection to updates.
func (h *CartHub) HandleWebSocket(c *gin.Context) {
	sessionID := middleware.SessionID(c)

	view, svcErr := h.carts.GetCart(c.Request.Context(), sessionID)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	conn.SetReadLimit(maxMessageSize)

	if err := write(conn, *view); err != nil {
		_ = conn.Close()
		return
	}

	sub := Subscription{Conn: conn, SessionID: sessionID}
	select {
	case h.register <- sub:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go h.listen(sub)
}

// listen drains client frames until the connection closes. Clients mutate
// the cart over HTTP only.
func (h *CartHub) listen(sub Subscription) {
	defer func() {
		select {
		case h.unregister <- sub:
		case <-h.done:
		}
	}()

	for {
		if _, _, err := sub.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("ws read error", zap.String("session_id", sub.SessionID), zap.Error(err))
			}
			return
		}
	}
}

func write(conn *websocket.Conn, view models.CartView) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(Message{Type: "cart", Data: view})
}
