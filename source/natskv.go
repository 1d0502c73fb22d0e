package source

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360/alertflow/errors"
)

// topicReading is the stored shape of the latest reading for a topic.
type topicReading struct {
	Value     any     `json:"value"`
	Timestamp float64 `json:"timestamp,omitempty"`
}

// KVSource fetches the latest reading for a topic from a JetStream KV
// bucket. Ingest writes the newest value per topic under a sanitized
// key; Fetch reads it back.
type KVSource struct {
	kv      jetstream.KeyValue
	timeout time.Duration
}

// NewKVSource creates a source backed by the given bucket.
func NewKVSource(kv jetstream.KeyValue) *KVSource {
	return &KVSource{kv: kv, timeout: 5 * time.Second}
}

// WithTimeout overrides the per-fetch timeout.
func (s *KVSource) WithTimeout(d time.Duration) *KVSource {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Fetch returns the latest value stored for topic. A topic with no
// stored reading maps to ErrTopicNotFound.
func (s *KVSource) Fetch(ctx context.Context, topic string) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	entry, err := s.kv.Get(ctx, TopicKey(topic))
	if err != nil {
		if stderrors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, errors.WrapInvalid(errors.ErrTopicNotFound, "KVSource", "Fetch", "get topic "+topic)
		}
		return nil, errors.WrapTransient(err, "KVSource", "Fetch", "get topic "+topic)
	}

	var reading topicReading
	if err := json.Unmarshal(entry.Value(), &reading); err != nil {
		return nil, errors.WrapInvalid(err, "KVSource", "Fetch", "decode topic "+topic)
	}
	return reading.Value, nil
}

// Store writes the latest reading for topic. Used by ingest paths and
// fixtures.
func (s *KVSource) Store(ctx context.Context, topic string, value any) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	payload, err := json.Marshal(topicReading{
		Value:     value,
		Timestamp: float64(time.Now().UnixMilli()) / 1000,
	})
	if err != nil {
		return errors.WrapInvalid(err, "KVSource", "Store", "encode topic "+topic)
	}
	if _, err := s.kv.Put(ctx, TopicKey(topic), payload); err != nil {
		return errors.WrapTransient(err, "KVSource", "Store", "put topic "+topic)
	}
	return nil
}

// TopicKey sanitizes a topic path into a valid KV key. Slashes become
// dots, so "sensors/temp1" stores under "sensors.temp1".
func TopicKey(topic string) string {
	key := strings.Trim(topic, "/")
	key = strings.ReplaceAll(key, "/", ".")
	return key
}
