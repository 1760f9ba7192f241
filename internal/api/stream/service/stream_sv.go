package streamService

import (
	"NosePointer/internal/api/stream"
	"NosePointer/internal/entity"
	"NosePointer/pkg/camera"
	"NosePointer/pkg/vision"
	websocketPkg "NosePointer/pkg/websocket"
	"context"
	"errors"
	"fmt"
	"image"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

func (s *streamService) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != entity.RunStateIdle {
		return false
	}

	s.state = entity.RunStateRunning
	s.done = make(chan struct{})
	run := atomic.AddUint64(&s.runs, 1)

	s.log.WithField("run", run).Info("Starting capture pipeline")
	go s.run(run, s.done)

	return true
}

func (s *streamService) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.done
}

func (s *streamService) State() entity.RunState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

func (s *streamService) setState(state entity.RunState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = state
}

func (s *streamService) Stats() stream.PipelineStats {
	return stream.PipelineStats{
		Runs:                atomic.LoadUint64(&s.runs),
		Iterations:          atomic.LoadUint64(&s.iterations),
		FramesPublished:     atomic.LoadUint64(&s.framesPublished),
		DirectionsPublished: atomic.LoadUint64(&s.directionsPublished),
		EncodeFailures:      atomic.LoadUint64(&s.encodeFailures),
		DetectFailures:      atomic.LoadUint64(&s.detectFailures),
		CurrentDirection:    s.currentDirection.Load().(entity.Direction),
	}
}

func (s *streamService) run(run uint64, done chan struct{}) {
	defer close(done)
	defer s.setState(entity.RunStateIdle)

	logger := s.log.WithField("run", run)

	if s.ctx.Err() != nil {
		logger.Info("Process is shutting down, capture pipeline not started")
		return
	}

	device, err := s.cameras.Open()
	if err != nil {
		logger.WithField("error", err.Error()).Error("Failed to acquire camera, capture pipeline stopped")
		return
	}
	defer s.releaseCamera(logger, device)

	detector := s.detectors()
	defer detector.Close()

	defer s.setState(entity.RunStateStopping)

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	logger.Info("Capture pipeline running")

	for {
		if err := s.step(s.ctx, logger, device, detector); err != nil {
			logger.WithField("error", err.Error()).Error("Capture pipeline stopped")
			return
		}

		select {
		case <-s.ctx.Done():
			logger.Info("Capture pipeline shutting down")
			return
		case <-ticker.Chan():
		}
	}
}

func (s *streamService) releaseCamera(logger *logrus.Entry, device camera.IDevice) {
	if err := device.Close(); err != nil {
		logger.WithField("error", err.Error()).Warn("Failed to release camera")
		return
	}
	logger.Info("Camera released")
}

// step produces one update. Only a camera read failure is returned; every
// other problem is confined to this iteration.
func (s *streamService) step(
	ctx context.Context,
	logger *logrus.Entry,
	device camera.IDevice,
	detector websocketPkg.ILandmarkDetector,
) error {
	frame, err := device.Read()
	if err != nil {
		return fmt.Errorf("read frame: %w", err)
	}
	atomic.AddUint64(&s.iterations, 1)

	vision.MirrorHorizontal(frame)

	direction := entity.DirectionNone
	if point, ok := s.trackPoint(ctx, logger, detector, frame); ok {
		direction = vision.ClassifyDirection(point)
		vision.Annotate(frame, point, direction)
	}
	s.currentDirection.Store(direction)

	encoded, err := s.encoder.EncodeFrame(frame)
	if err != nil {
		atomic.AddUint64(&s.encodeFailures, 1)
		logger.WithField("error", err.Error()).Warn("Failed to encode frame, skipping")
		return nil
	}

	s.publisher.Publish(entity.EventFrame, stream.FrameMessage{Image: s.encoder.EncodeBase64(encoded)})
	atomic.AddUint64(&s.framesPublished, 1)

	if !direction.IsNone() {
		s.publisher.Publish(entity.EventDirection, stream.DirectionMessage{Direction: direction})
		atomic.AddUint64(&s.directionsPublished, 1)
	}

	return nil
}

// trackPoint returns the tracked landmark of the first detected face.
func (s *streamService) trackPoint(
	ctx context.Context,
	logger *logrus.Entry,
	detector websocketPkg.ILandmarkDetector,
	frame *image.RGBA,
) (entity.LandmarkPoint, bool) {
	faces, err := detector.Detect(ctx, vision.ToDetectorFrame(frame))
	if err != nil {
		atomic.AddUint64(&s.detectFailures, 1)
		if errors.Is(err, websocketPkg.ErrDetectorUnavailable) {
			logger.Debug("Landmark detector unavailable, streaming without annotation")
		} else {
			logger.WithField("error", err.Error()).Warn("Landmark detection failed")
		}
		return entity.LandmarkPoint{}, false
	}

	if len(faces) == 0 {
		return entity.LandmarkPoint{}, false
	}

	return faces[0].Point(s.trackedLandmark)
}
