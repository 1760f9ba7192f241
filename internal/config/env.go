package config

import (
	streamService "NosePointer/internal/api/stream/service"
	"NosePointer/pkg/camera"
	"NosePointer/pkg/redis"
	websocketPkg "NosePointer/pkg/websocket"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"
)

// AppConfig is every knob the process reads from the environment. The env
// tag names the variable and doubles as the field name in validation errors.
type AppConfig struct {
	Host     string `env:"APP_HOST" validate:"required"`
	Port     int    `env:"APP_PORT" validate:"min=1,max=65535"`
	Env      string `env:"APP_ENV" validate:"oneof=development production test"`
	LogLevel string `env:"LOG_LEVEL" validate:"omitempty,oneof=trace debug info warn warning error fatal panic"`

	CameraDevice    string        `env:"CAMERA_DEVICE" validate:"required"`
	CameraWidth     int           `env:"CAMERA_WIDTH" validate:"min=0"`
	CameraHeight    int           `env:"CAMERA_HEIGHT" validate:"min=0"`
	FrameInterval   time.Duration `env:"FRAME_INTERVAL" validate:"min=1ms"`
	JPEGQuality     int           `env:"JPEG_QUALITY" validate:"min=1,max=100"`
	TrackedLandmark int           `env:"TRACKED_LANDMARK" validate:"min=0,max=477"`

	DetectorURL           string        `env:"AI_LANDMARK_URL" validate:"required,url"`
	DetectionConfidence   float64       `env:"DETECTION_CONFIDENCE" validate:"gte=0,lte=1"`
	TrackingConfidence    float64       `env:"TRACKING_CONFIDENCE" validate:"gte=0,lte=1"`
	DetectorRetryInterval time.Duration `env:"DETECTOR_RETRY_INTERVAL"`

	SubscriberBuffer int `env:"SUBSCRIBER_BUFFER" validate:"min=1,max=1024"`

	RedisAddress      string `env:"REDIS_ADDRESS" validate:"omitempty,hostname_port"`
	RedisPassword     string `env:"REDIS_PASSWORD"`
	RedisDB           int    `env:"REDIS_DB" validate:"min=0"`
	RedisChannel      string `env:"REDIS_CHANNEL" validate:"required_with=RedisAddress"`
	RedisMirrorFrames bool   `env:"REDIS_MIRROR_FRAMES"`

	RateLimit float64 `env:"RATE_LIMIT" validate:"gt=0"`
	RateBurst int     `env:"RATE_BURST" validate:"min=1"`
}

func DefaultAppConfig() AppConfig {
	detector := websocketPkg.DefaultOptions()

	return AppConfig{
		Host:                  "0.0.0.0",
		Port:                  5000,
		Env:                   "development",
		CameraDevice:          "0",
		FrameInterval:         streamService.DefaultFrameInterval,
		JPEGQuality:           80,
		TrackedLandmark:       streamService.DefaultTrackedLandmark,
		DetectorURL:           detector.URL,
		DetectionConfidence:   detector.MinDetectionConfidence,
		TrackingConfidence:    detector.MinTrackingConfidence,
		DetectorRetryInterval: detector.RetryInterval,
		SubscriberBuffer:      8,
		RedisChannel:          "nosepointer:events",
		RateLimit:             50,
		RateBurst:             100,
	}
}

// LoadAppConfig overlays the environment on DefaultAppConfig. Malformed
// values are reported together rather than silently falling back.
func LoadAppConfig() (AppConfig, error) {
	cfg := DefaultAppConfig()
	var errs []error

	lookupString(&cfg.Host, "APP_HOST")
	lookupInt(&cfg.Port, "APP_PORT", &errs)
	lookupString(&cfg.Env, "APP_ENV")
	lookupString(&cfg.LogLevel, "LOG_LEVEL")

	lookupString(&cfg.CameraDevice, "CAMERA_DEVICE")
	lookupInt(&cfg.CameraWidth, "CAMERA_WIDTH", &errs)
	lookupInt(&cfg.CameraHeight, "CAMERA_HEIGHT", &errs)
	lookupDuration(&cfg.FrameInterval, "FRAME_INTERVAL", &errs)
	lookupInt(&cfg.JPEGQuality, "JPEG_QUALITY", &errs)
	lookupInt(&cfg.TrackedLandmark, "TRACKED_LANDMARK", &errs)

	lookupString(&cfg.DetectorURL, "AI_LANDMARK_URL")
	lookupFloat(&cfg.DetectionConfidence, "DETECTION_CONFIDENCE", &errs)
	lookupFloat(&cfg.TrackingConfidence, "TRACKING_CONFIDENCE", &errs)
	lookupDuration(&cfg.DetectorRetryInterval, "DETECTOR_RETRY_INTERVAL", &errs)

	lookupInt(&cfg.SubscriberBuffer, "SUBSCRIBER_BUFFER", &errs)

	lookupString(&cfg.RedisAddress, "REDIS_ADDRESS")
	lookupString(&cfg.RedisPassword, "REDIS_PASSWORD")
	lookupInt(&cfg.RedisDB, "REDIS_DB", &errs)
	lookupString(&cfg.RedisChannel, "REDIS_CHANNEL")
	lookupBool(&cfg.RedisMirrorFrames, "REDIS_MIRROR_FRAMES", &errs)

	lookupFloat(&cfg.RateLimit, "RATE_LIMIT", &errs)
	lookupInt(&cfg.RateBurst, "RATE_BURST", &errs)

	if err := errors.Join(errs...); err != nil {
		return cfg, fmt.Errorf("invalid environment: %w", err)
	}
	return cfg, nil
}

func (c AppConfig) Validate(validate *validator.Validate) error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func (c AppConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c AppConfig) RedisEnabled() bool {
	return c.RedisAddress != ""
}

func (c AppConfig) CameraOptions() camera.Options {
	return camera.Options{
		Device: c.CameraDevice,
		Width:  c.CameraWidth,
		Height: c.CameraHeight,
	}
}

func (c AppConfig) DetectorOptions() websocketPkg.Options {
	opts := websocketPkg.DefaultOptions()
	opts.URL = c.DetectorURL
	opts.MinDetectionConfidence = c.DetectionConfidence
	opts.MinTrackingConfidence = c.TrackingConfidence
	opts.RetryInterval = c.DetectorRetryInterval
	return opts
}

func (c AppConfig) StreamOptions() streamService.Options {
	return streamService.Options{
		FrameInterval:   c.FrameInterval,
		TrackedLandmark: c.TrackedLandmark,
	}
}

func (c AppConfig) RedisOptions() redis.Options {
	return redis.Options{
		Address:  c.RedisAddress,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

func (c AppConfig) RateLimiter() (rate.Limit, int) {
	return rate.Limit(c.RateLimit), c.RateBurst
}

func lookupString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

func lookupInt(dst *int, key string, errs *[]error) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = n
}

func lookupFloat(dst *float64, key string, errs *[]error) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = f
}

func lookupBool(dst *bool, key string, errs *[]error) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = b
}

// lookupDuration accepts Go duration strings ("30ms") or a bare number of
// milliseconds.
func lookupDuration(dst *time.Duration, key string, errs *[]error) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return
	}
	v = strings.TrimSpace(v)

	if ms, err := strconv.Atoi(v); err == nil {
		*dst = time.Duration(ms) * time.Millisecond
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = d
}
