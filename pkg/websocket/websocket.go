package websocketPkg

import (
	"NosePointer/internal/entity"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/time/rate"
)

var ErrDetectorUnavailable = errors.New("landmark detector unavailable")

type ILandmarkDetector interface {
	Detect(ctx context.Context, frame entity.DetectorFrame) ([]entity.FaceLandmarks, error)
	IsConnected() bool
	Reconnect() error
	Close() error
}

type Options struct {
	URL                    string
	MaxNumFaces            int
	RefineLandmarks        bool
	MinDetectionConfidence float64
	MinTrackingConfidence  float64
	HandshakeTimeout       time.Duration
	ReadTimeout            time.Duration
	WriteTimeout           time.Duration
	PingInterval           time.Duration
	RetryInterval          time.Duration
}

func DefaultOptions() Options {
	return Options{
		URL:                    "ws://localhost:8000/api/v1/landmarks/ws",
		MaxNumFaces:            1,
		RefineLandmarks:        true,
		MinDetectionConfidence: 0.6,
		MinTrackingConfidence:  0.6,
		HandshakeTimeout:       2 * time.Second,
		ReadTimeout:            2 * time.Second,
		WriteTimeout:           time.Second,
		PingInterval:           30 * time.Second,
		RetryInterval:          5 * time.Second,
	}
}

type configureMessage struct {
	Type                   string  `json:"type"`
	MaxNumFaces            int     `json:"max_num_faces"`
	RefineLandmarks        bool    `json:"refine_landmarks"`
	MinDetectionConfidence float64 `json:"min_detection_confidence"`
	MinTrackingConfidence  float64 `json:"min_tracking_confidence"`
}

type session struct {
	conn *websocket.Conn
	stop chan struct{}
}

type landmarkClient struct {
	opts    Options
	log     *logrus.Logger
	retry   *rate.Limiter
	mu      sync.Mutex
	current *session
}

// NewLandmarkClient dials the landmark service once. A failed dial is logged
// and the client reconnects on demand, at most once per RetryInterval.
func NewLandmarkClient(opts Options, log *logrus.Logger) ILandmarkDetector {
	defaults := DefaultOptions()
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = defaults.HandshakeTimeout
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = defaults.ReadTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaults.WriteTimeout
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = defaults.PingInterval
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = defaults.RetryInterval
	}
	if opts.MaxNumFaces <= 0 {
		opts.MaxNumFaces = defaults.MaxNumFaces
	}

	client := &landmarkClient{
		opts:  opts,
		log:   log,
		retry: rate.NewLimiter(rate.Every(opts.RetryInterval), 1),
	}

	client.retry.Allow()
	if err := client.Reconnect(); err != nil {
		log.WithFields(logrus.Fields{
			"url":   opts.URL,
			"error": err.Error(),
		}).Warn("Initial connection to landmark service failed, will retry on demand")
	} else {
		log.WithField("url", opts.URL).Info("Successfully connected to landmark service")
	}

	return client
}

func (c *landmarkClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.current != nil
}

func (c *landmarkClient) Reconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dropLocked()

	if c.opts.URL == "" {
		return fmt.Errorf("landmark service URL not configured")
	}

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = c.opts.HandshakeTimeout

	conn, _, err := dialer.Dial(c.opts.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.opts.URL, err)
	}

	configure, err := jsoniter.Marshal(configureMessage{
		Type:                   "configure",
		MaxNumFaces:            c.opts.MaxNumFaces,
		RefineLandmarks:        c.opts.RefineLandmarks,
		MinDetectionConfidence: c.opts.MinDetectionConfidence,
		MinTrackingConfidence:  c.opts.MinTrackingConfidence,
	})
	if err != nil {
		conn.Close()
		return fmt.Errorf("error encoding configure message: %w", err)
	}

	conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, configure); err != nil {
		conn.Close()
		return fmt.Errorf("error sending configure message: %w", err)
	}
	conn.SetWriteDeadline(time.Time{})

	conn.SetPingHandler(func(appData string) error {
		err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(c.opts.WriteTimeout))
		if err != nil {
			c.log.Debugf("Error sending pong to landmark service: %v", err)
		}
		return nil
	})

	s := &session{conn: conn, stop: make(chan struct{})}
	c.current = s

	go c.keepAlive(s)

	return nil
}

func (c *landmarkClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dropLocked()
	return nil
}

func (c *landmarkClient) dropLocked() {
	if c.current == nil {
		return
	}
	close(c.current.stop)
	c.current.conn.Close()
	c.current = nil
}

func (c *landmarkClient) drop(s *session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == s {
		c.dropLocked()
	}
}

func (c *landmarkClient) keepAlive(s *session) {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			err := s.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(c.opts.WriteTimeout))
			if err != nil {
				c.log.WithField("error", err.Error()).Warn("Ping to landmark service failed, marking connection as dead")
				c.drop(s)
				return
			}
		}
	}
}

func (c *landmarkClient) getSession() (*session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return nil, fmt.Errorf("not connected to landmark service")
	}
	return c.current, nil
}

// Detect sends one RGB24 frame and waits for the landmark reply. Only the
// pipeline goroutine calls it, so requests and replies never interleave.
func (c *landmarkClient) Detect(ctx context.Context, frame entity.DetectorFrame) ([]entity.FaceLandmarks, error) {
	s, err := c.getSession()
	if err != nil {
		if !c.retry.Allow() {
			return nil, ErrDetectorUnavailable
		}
		if err := c.Reconnect(); err != nil {
			return nil, fmt.Errorf("cannot connect to landmark service: %w", err)
		}
		if s, err = c.getSession(); err != nil {
			return nil, err
		}
	}

	payload, err := msgpack.Marshal(&frame)
	if err != nil {
		return nil, fmt.Errorf("error encoding frame: %w", err)
	}

	s.conn.SetWriteDeadline(c.deadline(ctx, c.opts.WriteTimeout))
	if err := s.conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
		c.drop(s)
		return nil, fmt.Errorf("error sending frame: %w", err)
	}

	s.conn.SetReadDeadline(c.deadline(ctx, c.opts.ReadTimeout))
	_, message, err := s.conn.ReadMessage()
	if err != nil {
		c.drop(s)
		return nil, fmt.Errorf("error reading landmark message: %w", err)
	}

	var result entity.LandmarkResult
	if err := jsoniter.Unmarshal(message, &result); err != nil {
		return nil, fmt.Errorf("error unmarshaling landmark response: %w", err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("landmark service error: %s", result.Error)
	}

	return result.Faces, nil
}

func (c *landmarkClient) deadline(ctx context.Context, timeout time.Duration) time.Time {
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		return d
	}
	return deadline
}
