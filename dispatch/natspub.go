package dispatch

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/c360/alertflow/errors"
	"github.com/c360/alertflow/pkg/retry"
)

// Publisher is the transport the NATS dispatcher publishes through.
// *natsclient.Client satisfies it.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// actionMessage is the wire format placed on the action queue.
type actionMessage struct {
	Action     string         `json:"action"`
	ActionData map[string]any `json:"action_data"`
}

// NATSPublisher dispatches actions by publishing them to a NATS subject
// where action handlers pick them up.
type NATSPublisher struct {
	pub     Publisher
	subject string
	retry   retry.Config
	logger  *slog.Logger
}

// NewNATSPublisher creates a dispatcher publishing to subject.
func NewNATSPublisher(pub Publisher, subject string) *NATSPublisher {
	return &NATSPublisher{
		pub:     pub,
		subject: subject,
		retry:   retry.Quick(),
		logger:  slog.Default().With("component", "dispatch"),
	}
}

// WithRetry overrides the publish retry policy.
func (p *NATSPublisher) WithRetry(cfg retry.Config) *NATSPublisher {
	p.retry = cfg
	return p
}

// Dispatch publishes the action to the queue subject, retrying transient
// publish failures.
func (p *NATSPublisher) Dispatch(ctx context.Context, action string, data map[string]any) error {
	payload, err := json.Marshal(actionMessage{Action: action, ActionData: data})
	if err != nil {
		return errors.WrapInvalid(err, "NATSPublisher", "Dispatch", "marshal action "+action)
	}

	err = retry.Do(ctx, p.retry, func() error {
		if err := p.pub.Publish(ctx, p.subject, payload); err != nil {
			if !errors.IsTransient(err) {
				return retry.NonRetryable(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return errors.WrapTransient(err, "NATSPublisher", "Dispatch", "publish action "+action)
	}

	p.logger.Debug("action dispatched", "action", action, "subject", p.subject)
	return nil
}
