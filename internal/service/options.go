package service

import (
	"context"
	"time"

	"github.com/kursadbilgin/vaccination-engine/internal/domain"
	"github.com/kursadbilgin/vaccination-engine/internal/observability"
	"github.com/kursadbilgin/vaccination-engine/internal/queue"
	"go.uber.org/zap"
)

const (
	defaultStoreTimeout   = 5 * time.Second
	defaultPublishTimeout = 3 * time.Second
)

// Option customises the shared collaborators of the vaccination services.
type Option func(*options)

type options struct {
	now          func() time.Time
	location     *time.Location
	storeTimeout   time.Duration
	publishTimeout time.Duration
	publisher      queue.Publisher
	metrics        *observability.Metrics
	logger         *zap.Logger
}

// WithClock replaces time.Now. Tests use it to move through calendar days.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLocation sets the clinic time zone used to decide what "today" is.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.location = loc
		}
	}
}

func WithStoreTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.storeTimeout = d
		}
	}
}

// WithPublishTimeout bounds how long an operation waits on the event broker
// after its store change has been applied.
func WithPublishTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.publishTimeout = d
		}
	}
}

func WithPublisher(p queue.Publisher) Option {
	return func(o *options) {
		if p != nil {
			o.publisher = p
		}
	}
}

func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		now:            time.Now,
		location:       time.UTC,
		storeTimeout:   defaultStoreTimeout,
		publishTimeout: defaultPublishTimeout,
		publisher:      queue.NopPublisher{},
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) today() time.Time {
	return domain.DateIn(o.now(), o.location)
}

func (o options) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, o.storeTimeout)
}

func (o options) loggerFor(ctx context.Context) *zap.Logger {
	return observability.WithContextLogger(o.logger, ctx)
}

// publish emits an event on a best-effort basis. Failures are logged and
// never change the outcome of the operation that produced the event. The
// broker gets at most publishTimeout regardless of the caller's deadline.
func (o options) publish(ctx context.Context, msg queue.EventMessage) {
	if ctx == nil {
		ctx = context.Background()
	}
	if correlationID, ok := observability.CorrelationIDFromContext(ctx); ok {
		msg.CorrelationID = correlationID
	}

	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.publishTimeout)
	defer cancel()

	if err := o.publisher.Publish(publishCtx, msg); err != nil {
		o.loggerFor(ctx).Warn("failed to publish vaccination event",
			zap.String("eventType", msg.Type.String()),
			zap.String("eventId", msg.ID),
			zap.Error(err),
		)
	}
}
