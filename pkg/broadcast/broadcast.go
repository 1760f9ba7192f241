package broadcast

import (
	"NosePointer/internal/entity"
	"errors"
	"sync"
	"sync/atomic"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

var (
	ErrHubClosed          = errors.New("broadcast: hub is closed")
	ErrSubscriberExists   = errors.New("broadcast: subscriber already exists")
	ErrSubscriberNotFound = errors.New("broadcast: subscriber not found")
)

const DefaultBufferSize = 8

// Publisher is the only thing the capture pipeline knows about delivery.
// Publish must never block on slow or absent subscribers.
type Publisher interface {
	Publish(kind entity.EventKind, payload interface{})
}

// DropReporter is implemented by publishers that shed events under load.
type DropReporter interface {
	Dropped() uint64
}

type IHub interface {
	Publisher
	Subscribe(id string) (*Subscription, error)
	Unsubscribe(id string) error
	Count() int
	Stats() HubStats
	Close()
}

// Envelope is the wire shape of every message a viewer receives.
type Envelope struct {
	Event entity.EventKind `json:"event"`
	Data  interface{}      `json:"data"`
}

type SubscriberStats struct {
	Sent    uint64 `json:"sent"`
	Dropped uint64 `json:"dropped"`
}

type HubStats struct {
	Published   uint64                     `json:"published"`
	Subscribers map[string]SubscriberStats `json:"subscribers"`
}

type Subscription struct {
	id      string
	ch      chan []byte
	sent    uint64
	dropped uint64
}

func (s *Subscription) ID() string {
	return s.id
}

// Messages yields encoded envelopes in publish order. The channel is closed
// when the subscription is removed or the hub shuts down.
func (s *Subscription) Messages() <-chan []byte {
	return s.ch
}

type hub struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscription
	bufferSize  int
	published   uint64
	closed      bool
	log         *logrus.Logger
}

func NewHub(log *logrus.Logger, bufferSize int) IHub {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	return &hub{
		subscribers: make(map[string]*Subscription),
		bufferSize:  bufferSize,
		log:         log,
	}
}

func (h *hub) Subscribe(id string) (*Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}

	if _, exists := h.subscribers[id]; exists {
		return nil, ErrSubscriberExists
	}

	sub := &Subscription{
		id: id,
		ch: make(chan []byte, h.bufferSize),
	}
	h.subscribers[id] = sub

	return sub, nil
}

func (h *hub) Unsubscribe(id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub, exists := h.subscribers[id]
	if !exists {
		return ErrSubscriberNotFound
	}

	delete(h.subscribers, id)
	close(sub.ch)

	return nil
}

// Publish encodes the envelope once and offers it to every subscriber.
// A subscriber whose buffer is full misses this message.
func (h *hub) Publish(kind entity.EventKind, payload interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed || len(h.subscribers) == 0 {
		return
	}

	message, err := jsoniter.Marshal(Envelope{Event: kind, Data: payload})
	if err != nil {
		h.log.WithFields(logrus.Fields{
			"event": kind,
			"error": err.Error(),
		}).Error("Failed to encode broadcast event")
		return
	}

	atomic.AddUint64(&h.published, 1)

	for _, sub := range h.subscribers {
		select {
		case sub.ch <- message:
			atomic.AddUint64(&sub.sent, 1)
		default:
			atomic.AddUint64(&sub.dropped, 1)
		}
	}
}

func (h *hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subscribers)
}

func (h *hub) Stats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := HubStats{
		Published:   atomic.LoadUint64(&h.published),
		Subscribers: make(map[string]SubscriberStats, len(h.subscribers)),
	}

	for id, sub := range h.subscribers {
		stats.Subscribers[id] = SubscriberStats{
			Sent:    atomic.LoadUint64(&sub.sent),
			Dropped: atomic.LoadUint64(&sub.dropped),
		}
	}

	return stats
}

func (h *hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	h.closed = true
	for id, sub := range h.subscribers {
		close(sub.ch)
		delete(h.subscribers, id)
	}
}
