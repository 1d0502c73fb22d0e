package actions

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360/alertflow/errors"
)

// Todo is one created todo item
type Todo struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Done      bool      `json:"done"`
	CreatedAt time.Time `json:"created_at"`
}

// TodoStore persists todo items
type TodoStore interface {
	Add(ctx context.Context, todo Todo) error
}

// KVTodoStore writes todos into a JetStream KV bucket, one entry per item
// keyed by id.
type KVTodoStore struct {
	kv jetstream.KeyValue
}

// NewKVTodoStore creates a store backed by the given bucket
func NewKVTodoStore(kv jetstream.KeyValue) *KVTodoStore {
	return &KVTodoStore{kv: kv}
}

// Add persists one todo
func (s *KVTodoStore) Add(ctx context.Context, todo Todo) error {
	payload, err := json.Marshal(todo)
	if err != nil {
		return errors.WrapInvalid(err, "KVTodoStore", "Add", "encode todo "+todo.ID)
	}
	if _, err := s.kv.Put(ctx, todo.ID, payload); err != nil {
		return errors.WrapTransient(err, "KVTodoStore", "Add", "put todo "+todo.ID)
	}
	return nil
}

// TodoHandler builds the handler for "add_todo" actions
func TodoHandler(store TodoStore) Handler {
	return func(ctx context.Context, data map[string]any) error {
		text := stringField(data, "text", "title")
		if text == "" {
			return errors.WrapInvalid(
				stderrors.New("add_todo action requires text"),
				"TodoHandler", "Handle", "read action data")
		}
		return store.Add(ctx, Todo{
			ID:        uuid.NewString(),
			Text:      text,
			CreatedAt: time.Now().UTC(),
		})
	}
}
