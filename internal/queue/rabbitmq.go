package queue

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	startupTimeout     = 15 * time.Second
	dialAttemptTimeout = 5 * time.Second
	dialAttempts       = 3
	redialBackoff      = 250 * time.Millisecond
	heartbeat          = 10 * time.Second
)

// RabbitMQ owns the broker connection used for the event feed. A dropped
// connection is redialed lazily on the next publish, a bounded number of
// times and never past the caller's deadline.
type RabbitMQ struct {
	url         string
	attempts    int
	attemptWait time.Duration
	backoff     time.Duration

	mu     sync.RWMutex
	dialMu sync.Mutex
	conn   *amqp.Connection
}

func NewRabbitMQ(ctx context.Context, url string) (*RabbitMQ, error) {
	r, err := newRabbitMQ(url)
	if err != nil {
		return nil, err
	}

	startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	if _, err := r.connection(startCtx); err != nil {
		return nil, err
	}

	return r, nil
}

func newRabbitMQ(url string) (*RabbitMQ, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("rabbitmq url is required")
	}
	return &RabbitMQ{
		url:         url,
		attempts:    dialAttempts,
		attemptWait: dialAttemptTimeout,
		backoff:     redialBackoff,
	}, nil
}

// Healthy reports whether the underlying connection is open.
func (r *RabbitMQ) Healthy() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.conn != nil && !r.conn.IsClosed()
}

func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	conn := r.conn
	r.conn = nil
	r.mu.Unlock()

	if conn == nil || conn.IsClosed() {
		return nil
	}
	return conn.Close()
}

// channel opens a channel with the event topology declared. A stale
// connection is dropped and redialed once.
func (r *RabbitMQ) channel(ctx context.Context) (*amqp.Channel, error) {
	conn, err := r.connection(ctx)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		r.forget(conn)
		if conn, err = r.connection(ctx); err != nil {
			return nil, err
		}
		if ch, err = conn.Channel(); err != nil {
			return nil, fmt.Errorf("failed to open rabbitmq channel: %w", err)
		}
	}

	if err := declareTopology(ch); err != nil {
		_ = ch.Close()
		return nil, err
	}
	return ch, nil
}

func (r *RabbitMQ) current() *amqp.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.conn == nil || r.conn.IsClosed() {
		return nil
	}
	return r.conn
}

func (r *RabbitMQ) forget(conn *amqp.Connection) {
	r.mu.Lock()
	if r.conn == conn {
		r.conn = nil
	}
	r.mu.Unlock()
	_ = conn.Close()
}

// connection returns the open connection or dials a new one. It gives up
// after r.attempts dials or when ctx is done, whichever comes first.
func (r *RabbitMQ) connection(ctx context.Context) (*amqp.Connection, error) {
	if conn := r.current(); conn != nil {
		return conn, nil
	}

	r.dialMu.Lock()
	defer r.dialMu.Unlock()

	if conn := r.current(); conn != nil {
		return conn, nil
	}

	attempts := max(r.attempts, 1)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		conn, err := r.dial(ctx)
		if err == nil {
			r.mu.Lock()
			r.conn = conn
			r.mu.Unlock()
			return conn, nil
		}
		lastErr = err

		if attempt == attempts {
			break
		}
		timer := time.NewTimer(r.backoff * time.Duration(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("rabbitmq dial canceled: %w", ctx.Err())
		case <-timer.C:
		}
	}

	return nil, fmt.Errorf("rabbitmq unreachable after %d attempts: %w", attempts, lastErr)
}

// dial opens one AMQP connection. The TCP dial and the protocol handshake
// both stop at the earlier of the attempt timeout and the ctx deadline.
func (r *RabbitMQ) dial(ctx context.Context) (*amqp.Connection, error) {
	wait := r.attemptWait
	if wait <= 0 {
		wait = dialAttemptTimeout
	}
	attemptCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	deadline, _ := attemptCtx.Deadline()
	cfg := amqp.Config{
		Heartbeat: heartbeat,
		Locale:    "en_US",
		Dial: func(network, addr string) (net.Conn, error) {
			var d net.Dialer
			conn, err := d.DialContext(attemptCtx, network, addr)
			if err != nil {
				return nil, err
			}
			// Cleared by the client once the handshake completes.
			if err := conn.SetDeadline(deadline); err != nil {
				_ = conn.Close()
				return nil, err
			}
			return conn, nil
		},
	}

	conn, err := amqp.DialConfig(r.url, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rabbitmq: %w", err)
	}
	return conn, nil
}

func declareTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(ExchangeName, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %q: %w", ExchangeName, err)
	}
	if _, err := ch.QueueDeclare(AuditQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %q: %w", AuditQueueName, err)
	}
	if err := ch.QueueBind(AuditQueueName, auditBindingKey, ExchangeName, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %q: %w", AuditQueueName, err)
	}
	return nil
}
