package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"StockCast/internal/usecase"
	xlogger "StockCast/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// StreamHandler upgrades /api/stream to a WebSocket and relays broadcast
// price and forecast events to the client as JSON frames.
type StreamHandler struct {
	broadcaster *usecase.Broadcaster
	logger      *xlogger.Logger
	upgrader    websocket.Upgrader
}

func NewStreamHandler(broadcaster *usecase.Broadcaster, logger *xlogger.Logger) *StreamHandler {
	return &StreamHandler{
		broadcaster: broadcaster,
		logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *StreamHandler) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	events := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(events)
	defer conn.Close()

	h.logger.Debug("stream client connected",
		xlogger.String("remote", conn.RemoteAddr().String()))

	// reader drains control frames and detects the client going away
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return nil
		case <-c.Request().Context().Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				return nil
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		}
	}
}
