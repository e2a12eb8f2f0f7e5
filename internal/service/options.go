package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/user-directory/internal/metrics"
	"github.com/iliyamo/user-directory/internal/queue"
)

type options struct {
	now     func() time.Time
	log     logrus.FieldLogger
	metrics *metrics.Metrics
	events  EventPublisher
}

// Option configures optional collaborators of the services.
type Option func(*options)

// WithNowFunc can be used to override the clock. Useful for testing.
func WithNowFunc(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) { o.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithEvents publishes user lifecycle events on p.
func WithEvents(p EventPublisher) Option {
	return func(o *options) { o.events = p }
}

func buildOptions(opts []Option) options {
	o := options{
		now: func() time.Time { return time.Now().UTC() },
		log: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// emit publishes an event. Failures are logged and counted, never returned:
// the store write has already happened.
func (o options) emit(ctx context.Context, t queue.EventType, userName, actor, detail string) {
	if o.events == nil {
		return
	}
	ev := queue.NewUserEvent(t, userName, actor, o.now())
	ev.Detail = detail
	err := o.events.Publish(ctx, ev)
	if err != nil {
		o.log.WithError(err).WithField("event_type", t).WithField("user", userName).Warn("user event not published")
	}
	o.metrics.UserEvent(string(t), err == nil)
}
