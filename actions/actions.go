// Package actions consumes dispatched actions from the queue subject and
// executes them. Built-in handlers cover email notification and todo
// creation; deployments register additional handlers on the Router.
package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/c360/alertflow/errors"
)

// Handler executes one kind of action
type Handler func(ctx context.Context, data map[string]any) error

// Router maps action names to handlers
type Router struct {
	handlers map[string]Handler
	logger   *slog.Logger
}

// NewRouter creates an empty router
func NewRouter() *Router {
	return &Router{
		handlers: make(map[string]Handler),
		logger:   slog.Default().With("component", "actions"),
	}
}

// Register adds or replaces the handler for an action name
func (r *Router) Register(action string, h Handler) {
	r.handlers[action] = h
}

// queueMessage mirrors the wire format the dispatcher publishes.
type queueMessage struct {
	Action     string         `json:"action"`
	ActionData map[string]any `json:"action_data"`
}

// Route decodes a queue payload and executes the matching handler. Unknown
// actions are invalid: the rule named something this deployment cannot do.
func (r *Router) Route(ctx context.Context, payload []byte) error {
	var msg queueMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return errors.WrapInvalid(err, "ActionRouter", "Route", "decode queue message")
	}

	h, ok := r.handlers[msg.Action]
	if !ok {
		return errors.WrapInvalid(
			fmt.Errorf("no handler registered for action %q", msg.Action),
			"ActionRouter", "Route", "resolve handler")
	}

	if err := h(ctx, msg.ActionData); err != nil {
		return fmt.Errorf("ActionRouter.Route: execute %s: %w", msg.Action, err)
	}

	r.logger.Info("Action executed", "action", msg.Action)
	return nil
}

// stringField reads a string field from action data, with a fallback key for
// definitions that use the alternate spelling.
func stringField(data map[string]any, key, alt string) string {
	if s, ok := data[key].(string); ok && s != "" {
		return s
	}
	if alt != "" {
		if s, ok := data[alt].(string); ok {
			return s
		}
	}
	return ""
}
