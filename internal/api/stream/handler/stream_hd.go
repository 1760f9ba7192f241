package streamHandler

import (
	"NosePointer/internal/api/stream"
	"NosePointer/internal/middleware"
	contextPkg "NosePointer/pkg/context"
	"NosePointer/pkg/handlerUtil"
	"NosePointer/pkg/log"
	"NosePointer/pkg/response"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

func (h *StreamHandler) requireUpgrade(ctx *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(ctx) {
		return ctx.Next()
	}

	errHandler := handlerUtil.New(h.log)
	return errHandler.Handle(ctx, h.middleware.GetRequestID(ctx), stream.ErrUpgradeRequired, ctx.Path(), "upgrade_websocket")
}

// handleViewerWebSocket makes sure the capture pipeline is running, then
// relays every hub message to this viewer until either side goes away.
func (h *StreamHandler) handleViewerWebSocket(c *websocket.Conn) {
	sessionID := uuid.NewString()
	requestID, _ := c.Locals(middleware.RequestIDKey).(string)

	logger := h.log.WithFields(log.Fields{
		"session_id": sessionID,
		"request_id": requestID,
		"remote":     c.RemoteAddr().String(),
	})
	logger.Info("Viewer connected")
	defer logger.Info("Viewer disconnected")

	if h.streamService.Start() {
		logger.Info("Capture pipeline started on viewer connect")
	}

	sub, err := h.hub.Subscribe(sessionID)
	if err != nil {
		logger.WithField("error", response.Wrap(stream.ErrStreamUnavailable, err).Error()).Error("Failed to subscribe viewer")
		_ = c.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, stream.ErrStreamUnavailable.Error()),
			time.Now().Add(writeTimeout),
		)
		return
	}
	defer func() {
		_ = h.hub.Unsubscribe(sessionID)
	}()

	closed := make(chan struct{})
	go h.readLoop(c, closed)
	defer h.stopReader(c, closed)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-sub.Messages():
			if !ok {
				_ = c.WriteControl(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "stream closed"),
					time.Now().Add(writeTimeout),
				)
				return
			}

			if err := c.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				logger.Errorf("Error setting write deadline: %v", err)
				return
			}
			if err := c.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Debugf("Error writing to viewer: %v", err)
				return
			}

		case <-ticker.C:
			if err := c.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				logger.Debugf("Ping to viewer failed: %v", err)
				return
			}

		case <-closed:
			return
		}
	}
}

// stopReader closes the socket and waits for readLoop to exit. The handler
// must not return while readLoop still reads: gofiber recycles the Conn and
// fasthttp reuses its buffers for the next client once it returns.
func (h *StreamHandler) stopReader(c *websocket.Conn, closed <-chan struct{}) {
	_ = c.SetReadDeadline(time.Now())
	_ = c.Close()
	<-closed
}

// readLoop drains inbound frames so control messages are processed. Viewers
// have no commands, so data messages are discarded.
func (h *StreamHandler) readLoop(c *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)

	_ = c.SetReadDeadline(time.Now().Add(pongWait))
	c.SetPongHandler(func(string) error {
		return c.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debugf("Viewer socket error: %v", err)
			}
			return
		}
	}
}

func (h *StreamHandler) GetStatus(ctx *fiber.Ctx) error {
	errHandler := handlerUtil.New(h.log)

	reqCtx := contextPkg.FromFiberCtx(ctx.UserContext(), ctx)
	log.WithRequestID(reqCtx).WithField("path", ctx.Path()).Debug("Processing stream status request")

	status := stream.StatusResponse{
		State:       h.streamService.State(),
		Subscribers: h.hub.Count(),
		Pipeline:    h.streamService.Stats(),
		Broadcast:   h.hub.Stats(),
	}
	if h.mirror != nil {
		status.Mirror = &stream.MirrorStats{Dropped: h.mirror.Dropped()}
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, status)
}
