package actions

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/c360/alertflow/component"
	"github.com/c360/alertflow/errors"
	"github.com/c360/alertflow/metric"
	"github.com/c360/alertflow/pkg/retry"
)

// Subscriber consumes the action queue subject and routes each message
// through the Router. Transient handler failures are retried; invalid
// messages are logged and dropped so one bad rule cannot wedge the queue.
type Subscriber struct {
	client  SubscribeClient
	subject string
	router  *Router
	logger  *slog.Logger
	metrics *metric.CoreMetrics
	retry   retry.Config

	state atomic.Int32
	sub   *nats.Subscription
	done  chan struct{}
}

// SubscribeClient is the slice of the NATS client the subscriber needs
type SubscribeClient interface {
	Subscribe(subject string, handler nats.MsgHandler) (*nats.Subscription, error)
}

// SubscriberOption configures a Subscriber
type SubscriberOption func(*Subscriber)

// WithMetrics wires handler failures into the core metrics
func WithMetrics(m *metric.CoreMetrics) SubscriberOption {
	return func(s *Subscriber) {
		s.metrics = m
	}
}

// WithRetry overrides the handler retry policy
func WithRetry(cfg retry.Config) SubscriberOption {
	return func(s *Subscriber) {
		s.retry = cfg
	}
}

// NewSubscriber creates a subscriber for subject routing through router
func NewSubscriber(client SubscribeClient, subject string, router *Router, opts ...SubscriberOption) (*Subscriber, error) {
	if subject == "" {
		return nil, errors.WrapInvalid(
			stderrors.New("subject is required"),
			"ActionSubscriber", "NewSubscriber", "validate options")
	}
	s := &Subscriber{
		client:  client,
		subject: subject,
		router:  router,
		logger:  slog.Default().With("component", "actions"),
		retry:   retry.Quick(),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Name implements component.Component
func (s *Subscriber) Name() string { return "action-subscriber" }

// State implements component.Component
func (s *Subscriber) State() component.State {
	return component.State(s.state.Load())
}

// Initialize implements component.Component
func (s *Subscriber) Initialize(context.Context) error {
	s.state.Store(int32(component.StateInitialized))
	return nil
}

// Start subscribes and blocks until Stop or cancellation
func (s *Subscriber) Start(ctx context.Context) error {
	sub, err := s.client.Subscribe(s.subject, func(msg *nats.Msg) {
		s.handle(ctx, msg.Data)
	})
	if err != nil {
		s.state.Store(int32(component.StateFailed))
		return errors.WrapTransient(err, "ActionSubscriber", "Start", "subscribe to "+s.subject)
	}
	s.sub = sub
	s.state.Store(int32(component.StateRunning))
	s.logger.Info("Action subscriber started", "subject", s.subject)

	select {
	case <-ctx.Done():
	case <-s.done:
	}
	return nil
}

func (s *Subscriber) handle(ctx context.Context, payload []byte) {
	err := retry.Do(ctx, s.retry, func() error {
		err := s.router.Route(ctx, payload)
		if err != nil && !errors.IsTransient(err) {
			return retry.NonRetryable(err)
		}
		return err
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.ErrorsTotal.WithLabelValues("actions", errors.Classify(err).String()).Inc()
		}
		s.logger.Error("Action failed", "subject", s.subject, "error", err)
	}
}

// Stop unsubscribes and unblocks Start
func (s *Subscriber) Stop(time.Duration) error {
	select {
	case <-s.done:
		return nil
	default:
	}
	close(s.done)
	if s.sub != nil {
		if err := s.sub.Unsubscribe(); err != nil {
			return errors.WrapTransient(err, "ActionSubscriber", "Stop", "unsubscribe")
		}
	}
	s.state.Store(int32(component.StateStopped))
	return nil
}
