package config

import (
	"NosePointer/internal/api/stream"
	"NosePointer/internal/entity"
	"NosePointer/pkg/broadcast"
	"NosePointer/pkg/redis"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

func TestLoadAppConfigDefaults(t *testing.T) {
	for _, key := range []string{"APP_HOST", "APP_PORT", "FRAME_INTERVAL", "REDIS_ADDRESS", "JPEG_QUALITY"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadAppConfig()
	if err != nil {
		t.Fatalf("LoadAppConfig: %v", err)
	}
	if cfg.Address() != "0.0.0.0:5000" {
		t.Errorf("address = %q, want 0.0.0.0:5000", cfg.Address())
	}
	if cfg.FrameInterval != 30*time.Millisecond {
		t.Errorf("frame interval = %v, want 30ms", cfg.FrameInterval)
	}
	if cfg.TrackedLandmark != 1 {
		t.Errorf("tracked landmark = %d, want 1", cfg.TrackedLandmark)
	}
	if cfg.RedisEnabled() {
		t.Errorf("redis enabled without REDIS_ADDRESS")
	}
	if err := cfg.Validate(NewValidator()); err != nil {
		t.Fatalf("defaults fail validation: %v", err)
	}
}

func TestLoadAppConfigOverrides(t *testing.T) {
	t.Setenv("APP_HOST", "127.0.0.1")
	t.Setenv("APP_PORT", "8081")
	t.Setenv("FRAME_INTERVAL", "45")
	t.Setenv("DETECTOR_RETRY_INTERVAL", "2s")
	t.Setenv("DETECTION_CONFIDENCE", "0.75")
	t.Setenv("REDIS_ADDRESS", "localhost:6379")
	t.Setenv("REDIS_MIRROR_FRAMES", "true")
	t.Setenv("CAMERA_DEVICE", "/dev/video2")

	cfg, err := LoadAppConfig()
	if err != nil {
		t.Fatalf("LoadAppConfig: %v", err)
	}

	if cfg.Address() != "127.0.0.1:8081" {
		t.Errorf("address = %q", cfg.Address())
	}
	if cfg.FrameInterval != 45*time.Millisecond {
		t.Errorf("bare number should be milliseconds, got %v", cfg.FrameInterval)
	}
	if got := cfg.DetectorOptions(); got.RetryInterval != 2*time.Second || got.MinDetectionConfidence != 0.75 {
		t.Errorf("detector options = %+v", got)
	}
	if !cfg.RedisEnabled() || !cfg.RedisMirrorFrames {
		t.Errorf("redis mirror not enabled: %+v", cfg)
	}
	if cfg.CameraOptions().Device != "/dev/video2" {
		t.Errorf("camera device = %q", cfg.CameraOptions().Device)
	}
	if err := cfg.Validate(NewValidator()); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadAppConfigReportsMalformedValues(t *testing.T) {
	t.Setenv("APP_PORT", "eighty")
	t.Setenv("FRAME_INTERVAL", "soon")

	_, err := LoadAppConfig()
	if err == nil {
		t.Fatal("expected an error for malformed values")
	}
	for _, key := range []string{"APP_PORT", "FRAME_INTERVAL"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not mention %s", err, key)
		}
	}
}

func TestValidateRejectsOutOfRangeValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
		field  string
	}{
		{"port", func(c *AppConfig) { c.Port = 70000 }, "APP_PORT"},
		{"jpeg quality", func(c *AppConfig) { c.JPEGQuality = 0 }, "JPEG_QUALITY"},
		{"frame interval", func(c *AppConfig) { c.FrameInterval = 0 }, "FRAME_INTERVAL"},
		{"confidence", func(c *AppConfig) { c.TrackingConfidence = 1.5 }, "TRACKING_CONFIDENCE"},
		{"detector url", func(c *AppConfig) { c.DetectorURL = "" }, "AI_LANDMARK_URL"},
		{"redis address", func(c *AppConfig) { c.RedisAddress = "no-port" }, "REDIS_ADDRESS"},
	}

	validate := NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultAppConfig()
			tt.mutate(&cfg)

			err := cfg.Validate(validate)
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("Validate = %v, want validation errors", err)
			}
			if verrs[0].Field() != tt.field {
				t.Errorf("failing field = %q, want %q", verrs[0].Field(), tt.field)
			}
		})
	}
}

type idleStreamService struct{}

func (idleStreamService) Start() bool { return false }
func (idleStreamService) Done() <-chan struct{} {
	done := make(chan struct{})
	close(done)
	return done
}
func (idleStreamService) State() entity.RunState      { return entity.RunStateIdle }
func (idleStreamService) Stats() stream.PipelineStats { return stream.PipelineStats{} }

func newTestServer(t *testing.T, opts ...ServerOption) *Server {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	base := []ServerOption{
		WithFiber(NewFiber(logger)),
		WithLogger(logger),
		WithValidator(NewValidator()),
		WithAppConfig(DefaultAppConfig()),
		WithHub(broadcast.NewHub(logger, 4)),
		WithStreamService(idleStreamService{}),
		WithMiddleware(),
	}

	server, err := NewServer(append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	server.RegisterHandler()
	t.Cleanup(func() { _ = server.Shutdown() })
	return server
}

func TestServerHealthAndStatusRoutes(t *testing.T) {
	server := newTestServer(t)

	resp, err := server.engine.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	var health map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&health)
	resp.Body.Close()
	if resp.StatusCode != 200 || health["status"] != "ok" {
		t.Fatalf("health = %d %v", resp.StatusCode, health)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Errorf("health response has no request id")
	}

	resp, err = server.engine.Test(httptest.NewRequest("GET", "/api/v1/stream/status", nil))
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("status code = %d, want 200", resp.StatusCode)
	}
}

func TestNewServerRequiresCoreComponents(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	if _, err := NewServer(WithFiber(NewFiber(logger)), WithLogger(logger)); err == nil {
		t.Fatal("NewServer without hub and stream service should fail")
	}

	cfg := DefaultAppConfig()
	cfg.Port = 0
	_, err := NewServer(
		WithFiber(NewFiber(logger)),
		WithLogger(logger),
		WithValidator(NewValidator()),
		WithAppConfig(cfg),
	)
	if err == nil {
		t.Fatal("NewServer should reject an invalid app config")
	}
}

type discardRedis struct{ closed bool }

func (r *discardRedis) PublishEvent(ctx context.Context, channel string, message []byte) error {
	return nil
}

func (r *discardRedis) Close() error {
	r.closed = true
	return nil
}

func TestServerReportsRedisMirrorInStatus(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	client := &discardRedis{}
	mirror := redis.NewEventMirror(client, "events", logger, entity.EventDirection)
	server := newTestServer(t, WithRedisMirror(client, mirror))

	resp, err := server.engine.Test(httptest.NewRequest("GET", "/api/v1/stream/status", nil))
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	defer resp.Body.Close()

	var body stream.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Mirror == nil {
		t.Fatal("status does not report the redis mirror")
	}

	if err := server.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !client.closed {
		t.Error("redis client not closed on shutdown")
	}
}
