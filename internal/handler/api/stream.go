package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	models "SwapGate/internal/domain/models"
	xlogger "SwapGate/pkg/logger"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPingPeriod = 30 * time.Second
	streamSendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The feed carries no credentials and is read-only.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ThreatStreamHandler fans detected threats out to connected WebSocket
// clients. It implements usecase.ThreatFeed; Broadcast never blocks, slow
// clients are disconnected instead.
type ThreatStreamHandler struct {
	logger  *xlogger.Logger
	mu      sync.RWMutex
	clients map[*streamClient]struct{}
}

type streamClient struct {
	conn *websocket.Conn
	send chan models.AdversarialThreat
}

func NewThreatStreamHandler(logger *xlogger.Logger) *ThreatStreamHandler {
	return &ThreatStreamHandler{
		logger:  logger,
		clients: make(map[*streamClient]struct{}),
	}
}

func (h *ThreatStreamHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/threats/stream", h.Stream)
}

// Stream upgrades the connection and streams threat records until the client
// goes away.
func (h *ThreatStreamHandler) Stream(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", xlogger.Error(err))
		return err
	}

	client := &streamClient{
		conn: conn,
		send: make(chan models.AdversarialThreat, streamSendBuffer),
	}
	h.mu.Lock()
	h.clients[client] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("threat stream client connected", xlogger.Int("clients", n))

	go h.writeLoop(client)
	h.readLoop(client)
	return nil
}

// Broadcast queues a threat for every connected client without blocking.
func (h *ThreatStreamHandler) Broadcast(t models.AdversarialThreat) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- t:
		default:
			// client is not keeping up; writeLoop will close it
		}
	}
}

func (h *ThreatStreamHandler) writeLoop(client *streamClient) {
	ticker := time.NewTicker(streamPingPeriod)
	defer func() {
		ticker.Stop()
		h.drop(client)
	}()

	for {
		select {
		case t, ok := <-client.send:
			if !ok {
				return
			}
			client.conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := client.conn.WriteJSON(t); err != nil {
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop discards client frames; the feed is one-way. It returns when the
// connection drops, which also tears down the write side.
func (h *ThreatStreamHandler) readLoop(client *streamClient) {
	defer h.drop(client)
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *ThreatStreamHandler) drop(client *streamClient) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()
	client.conn.Close()
}
