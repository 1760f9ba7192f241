package config

import (
	streamHandler "NosePointer/internal/api/stream/handler"
	streamService "NosePointer/internal/api/stream/service"
	"NosePointer/internal/middleware"
	"NosePointer/pkg/broadcast"
	"NosePointer/pkg/redis"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 5 * time.Second

type ServerOption func(*Server) error

type Server struct {
	engine        *fiber.App
	log           *logrus.Logger
	middleware    middleware.Middleware
	validator     *validator.Validate
	appConfig     *AppConfig
	hub           broadcast.IHub
	streamService streamService.IStreamService
	redisMirror   *redis.EventMirror
	redisClient   redis.IRedis
	handlers      []handler
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.hub == nil {
		return nil, fmt.Errorf("broadcast hub is required")
	}
	if server.streamService == nil {
		return nil, fmt.Errorf("stream service is required")
	}
	if server.middleware == nil {
		server.middleware = middleware.New(server.log)
	}
	if server.appConfig == nil {
		cfg := DefaultAppConfig()
		server.appConfig = &cfg
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

// WithAppConfig validates cfg when a validator has already been supplied.
func WithAppConfig(cfg AppConfig) ServerOption {
	return func(s *Server) error {
		if s.validator != nil {
			if err := cfg.Validate(s.validator); err != nil {
				return err
			}
		}
		s.appConfig = &cfg
		return nil
	}
}

func WithHub(hub broadcast.IHub) ServerOption {
	return func(s *Server) error {
		s.hub = hub
		return nil
	}
}

func WithStreamService(ss streamService.IStreamService) ServerOption {
	return func(s *Server) error {
		s.streamService = ss
		return nil
	}
}

// WithRedisMirror hands the mirror and its client to the server so both are
// released on shutdown. The mirror must already be teed into the publisher
// given to the stream service.
func WithRedisMirror(client redis.IRedis, mirror *redis.EventMirror) ServerOption {
	return func(s *Server) error {
		s.redisClient = client
		s.redisMirror = mirror
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		if s.appConfig != nil {
			limit, burst := s.appConfig.RateLimiter()
			s.middleware = middleware.NewWithRateLimit(s.log, limit, burst)
			return nil
		}
		s.middleware = middleware.New(s.log)
		return nil
	}
}

func (s *Server) RegisterHandler() {
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware())

	var mirror broadcast.DropReporter
	if s.redisMirror != nil {
		mirror = s.redisMirror
	}
	streamHandlers := streamHandler.New(s.log, s.middleware, s.streamService, s.hub, mirror)

	s.setupHealthCheck()
	s.handlers = append(s.handlers, streamHandlers)

	router := s.engine.Group("/api/v1")
	for _, h := range s.handlers {
		h.Start(router)
	}
}

func (s *Server) Run() error {
	address := s.appConfig.Address()
	s.log.Infof("Listening on %s", address)

	if err := s.engine.Listen(address); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	return nil
}

// Shutdown stops accepting viewers, disconnects the remaining ones and
// flushes the optional redis mirror. The capture pipeline is stopped by
// cancelling the context it was built with.
func (s *Server) Shutdown() error {
	err := s.engine.ShutdownWithTimeout(shutdownTimeout)

	s.hub.Close()

	if s.redisMirror != nil {
		s.redisMirror.Close()
	}
	if s.redisClient != nil {
		if cerr := s.redisClient.Close(); cerr != nil {
			s.log.Warnf("Failed to close redis client: %v", cerr)
		}
	}

	return err
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"status": "ok",
		})
	})
}
