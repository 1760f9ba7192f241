package streamService

import (
	"NosePointer/internal/api/stream"
	"NosePointer/internal/entity"
	"NosePointer/pkg/broadcast"
	"NosePointer/pkg/camera"
	websocketPkg "NosePointer/pkg/websocket"
	"context"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

const (
	DefaultFrameInterval   = 30 * time.Millisecond
	DefaultTrackedLandmark = 1
)

type IStreamService interface {
	// Start launches the capture pipeline unless a run is already active.
	// It reports whether this call started a new run and never blocks on it.
	Start() bool
	// Done is closed once the current run has released the camera. When no
	// run is active it returns an already closed channel.
	Done() <-chan struct{}
	State() entity.RunState
	Stats() stream.PipelineStats
}

type FrameEncoder interface {
	EncodeFrame(frame image.Image) ([]byte, error)
	EncodeBase64(data []byte) string
}

// DetectorFactory opens a landmark detector for the lifetime of one run.
type DetectorFactory func() websocketPkg.ILandmarkDetector

type Options struct {
	FrameInterval   time.Duration
	TrackedLandmark int
	Clock           clockwork.Clock
}

type streamService struct {
	ctx       context.Context
	log       *logrus.Logger
	cameras   camera.IOpener
	detectors DetectorFactory
	encoder   FrameEncoder
	publisher broadcast.Publisher

	clock           clockwork.Clock
	interval        time.Duration
	trackedLandmark int

	mu    sync.Mutex
	state entity.RunState
	done  chan struct{}

	runs                uint64
	iterations          uint64
	framesPublished     uint64
	directionsPublished uint64
	encodeFailures      uint64
	detectFailures      uint64
	currentDirection    atomic.Value
}

// NewStreamService builds the capture pipeline. ctx bounds the lifetime of
// every run and should live as long as the process, never a single request.
func NewStreamService(
	ctx context.Context,
	log *logrus.Logger,
	cameras camera.IOpener,
	detectors DetectorFactory,
	encoder FrameEncoder,
	publisher broadcast.Publisher,
	opts Options,
) IStreamService {
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = DefaultFrameInterval
	}
	if opts.TrackedLandmark < 0 {
		opts.TrackedLandmark = DefaultTrackedLandmark
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	s := &streamService{
		ctx:             ctx,
		log:             log,
		cameras:         cameras,
		detectors:       detectors,
		encoder:         encoder,
		publisher:       publisher,
		clock:           opts.Clock,
		interval:        opts.FrameInterval,
		trackedLandmark: opts.TrackedLandmark,
		state:           entity.RunStateIdle,
		done:            make(chan struct{}),
	}
	close(s.done)
	s.currentDirection.Store(entity.DirectionNone)

	return s
}
