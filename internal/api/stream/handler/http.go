package streamHandler

import (
	streamService "NosePointer/internal/api/stream/service"
	"NosePointer/internal/middleware"
	"NosePointer/pkg/broadcast"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

const (
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	writeTimeout = 10 * time.Second
)

type StreamHandler struct {
	log           *logrus.Logger
	middleware    middleware.Middleware
	streamService streamService.IStreamService
	hub           broadcast.IHub
	mirror        broadcast.DropReporter
}

func New(
	log *logrus.Logger,
	middleware middleware.Middleware,
	ss streamService.IStreamService,
	hub broadcast.IHub,
	mirror broadcast.DropReporter,
) *StreamHandler {
	return &StreamHandler{
		log:           log,
		middleware:    middleware,
		streamService: ss,
		hub:           hub,
		mirror:        mirror,
	}
}

func (h *StreamHandler) Start(srv fiber.Router) {
	stream := srv.Group("/stream")
	stream.Get("/status", h.GetStatus)

	stream.Use("/ws", h.middleware.NewRateLimiter, h.requireUpgrade)
	stream.Get("/ws", websocket.New(h.handleViewerWebSocket))
}
