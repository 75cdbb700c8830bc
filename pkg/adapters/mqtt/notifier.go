package mqtt

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/aretw0/roguepath/internal/logging"
	"github.com/aretw0/roguepath/pkg/domain"
)

// Publisher sends a payload to a topic. *Client satisfies it.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Notifier implements ports.Notifier by publishing each event as JSON to
// "<prefix>/<group>/<event type>".
type Notifier struct {
	pub    Publisher
	prefix string
	logger *slog.Logger
}

type NotifierOption func(*Notifier)

// WithTopicPrefix sets the topic root (default "roguepath").
func WithTopicPrefix(prefix string) NotifierOption {
	return func(n *Notifier) {
		n.prefix = strings.TrimSuffix(prefix, "/")
	}
}

// WithLogger sets the logger for publish failures.
func WithLogger(logger *slog.Logger) NotifierOption {
	return func(n *Notifier) {
		n.logger = logger
	}
}

// NewNotifier creates a notifier over pub.
func NewNotifier(pub Publisher, opts ...NotifierOption) *Notifier {
	n := &Notifier{
		pub:    pub,
		prefix: "roguepath",
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Topic returns the topic an event is published to.
func (n *Notifier) Topic(evt domain.Event) string {
	group := evt.GroupID
	if group == "" {
		group = "_"
	}
	return n.prefix + "/" + group + "/" + string(evt.Type)
}

// Notify publishes evt. Failures are logged, never returned.
func (n *Notifier) Notify(ctx context.Context, evt domain.Event) {
	payload, err := json.Marshal(evt)
	if err != nil {
		n.logger.Error("failed to encode event", "type", evt.Type, "err", err)
		return
	}
	topic := n.Topic(evt)
	if err := n.pub.Publish(topic, payload); err != nil {
		n.logger.Warn("failed to publish event", "topic", topic, "err", err)
	}
}
