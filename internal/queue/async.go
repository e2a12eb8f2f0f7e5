package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrBufferFull is returned when the async buffer cannot take more events.
var ErrBufferFull = errors.New("event buffer full")

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("publisher closed")

// Sender delivers a single event.
type Sender interface {
	Publish(ctx context.Context, ev UserEvent) error
}

// AsyncPublisher hands events to a background worker so request handlers
// never wait on the broker. Events are dropped, not blocked on, when the
// buffer is full.
type AsyncPublisher struct {
	next    Sender
	events  chan UserEvent
	timeout time.Duration
	log     logrus.FieldLogger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewAsyncPublisher starts the worker. size bounds the buffer.
func NewAsyncPublisher(next Sender, size int, log logrus.FieldLogger) *AsyncPublisher {
	if size <= 0 {
		size = 256
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	p := &AsyncPublisher{
		next:    next,
		events:  make(chan UserEvent, size),
		timeout: 5 * time.Second,
		log:     log,
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

// Publish enqueues ev. The context is not carried to the worker; the
// request that produced the event may finish first.
func (p *AsyncPublisher) Publish(_ context.Context, ev UserEvent) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.events <- ev:
		return nil
	default:
		return ErrBufferFull
	}
}

func (p *AsyncPublisher) run() {
	defer close(p.done)
	for ev := range p.events {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		if err := p.next.Publish(ctx, ev); err != nil {
			p.log.WithError(err).WithField("event_id", ev.ID).Warn("event dropped")
		}
		cancel()
	}
}

// Close stops accepting events and waits for the buffer to drain or ctx
// to end, whichever comes first.
func (p *AsyncPublisher) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.events)
	}
	p.mu.Unlock()

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
