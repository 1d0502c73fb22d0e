package natsclient

import (
	"log/slog"
	"time"

	"github.com/c360/alertflow/metric"
)

// ClientOption configures a Client
type ClientOption func(*Client)

// WithClientName sets the connection name reported to the server
func WithClientName(name string) ClientOption {
	return func(c *Client) {
		if name != "" {
			c.clientName = name
		}
	}
}

// WithMaxReconnects sets the reconnect attempt limit (-1 for infinite)
func WithMaxReconnects(n int) ClientOption {
	return func(c *Client) {
		c.maxReconnects = n
	}
}

// WithReconnectWait sets the delay between reconnect attempts
func WithReconnectWait(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.reconnectWait = d
		}
	}
}

// WithTimeout sets the connection timeout
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger used for connection events
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger.With("component", "natsclient")
		}
	}
}

// WithMetrics wires connection state into the core metrics
func WithMetrics(m *metric.CoreMetrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}
