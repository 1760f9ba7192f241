package redis

import (
	"NosePointer/internal/entity"
	"context"
	"sync"
	"sync/atomic"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

const (
	mirrorQueueSize    = 32
	mirrorPublishLimit = 2 * time.Second
)

type mirrorEvent struct {
	Event entity.EventKind `json:"event"`
	Data  interface{}      `json:"data"`
	At    time.Time        `json:"at"`
}

// EventMirror copies selected pipeline events to a Redis pub/sub channel so
// consumers outside this process can follow the stream. Publish only enqueues;
// a single worker talks to Redis, and a full queue drops the event.
type EventMirror struct {
	client  IRedis
	channel string
	kinds   map[entity.EventKind]bool
	queue   chan mirrorEvent
	log     *logrus.Logger

	dropped uint64
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

func NewEventMirror(client IRedis, channel string, log *logrus.Logger, kinds ...entity.EventKind) *EventMirror {
	m := &EventMirror{
		client:  client,
		channel: channel,
		kinds:   make(map[entity.EventKind]bool, len(kinds)),
		queue:   make(chan mirrorEvent, mirrorQueueSize),
		log:     log,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, kind := range kinds {
		m.kinds[kind] = true
	}

	go m.worker()

	return m
}

func (m *EventMirror) Publish(kind entity.EventKind, payload interface{}) {
	if !m.kinds[kind] {
		return
	}

	select {
	case <-m.stop:
		return
	default:
	}

	select {
	case m.queue <- mirrorEvent{Event: kind, Data: payload, At: time.Now().UTC()}:
	default:
		atomic.AddUint64(&m.dropped, 1)
	}
}

func (m *EventMirror) Dropped() uint64 {
	return atomic.LoadUint64(&m.dropped)
}

// Close stops the worker after it drains what is already queued.
func (m *EventMirror) Close() {
	m.once.Do(func() {
		close(m.stop)
		<-m.done
	})
}

func (m *EventMirror) worker() {
	defer close(m.done)

	for {
		select {
		case event := <-m.queue:
			m.forward(event)
		case <-m.stop:
			for {
				select {
				case event := <-m.queue:
					m.forward(event)
				default:
					return
				}
			}
		}
	}
}

func (m *EventMirror) forward(event mirrorEvent) {
	message, err := jsoniter.Marshal(event)
	if err != nil {
		m.log.WithFields(logrus.Fields{
			"event": event.Event,
			"error": err.Error(),
		}).Warn("Failed to encode mirrored event")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), mirrorPublishLimit)
	defer cancel()

	if err := m.client.PublishEvent(ctx, m.channel, message); err != nil {
		m.log.WithFields(logrus.Fields{
			"channel": m.channel,
			"event":   event.Event,
			"error":   err.Error(),
		}).Warn("Failed to mirror event to Redis")
	}
}
