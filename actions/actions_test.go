package actions

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to+"|"+subject)
	return nil
}

type fakeTodoStore struct {
	mu    sync.Mutex
	todos []Todo
}

func (s *fakeTodoStore) Add(_ context.Context, todo Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.todos = append(s.todos, todo)
	return nil
}

func TestRouteEmail(t *testing.T) {
	mailer := &fakeMailer{}
	r := NewRouter()
	r.Register("email", EmailHandler(mailer))

	payload := []byte(`{
		"action": "email",
		"action_data": {
			"to": "ops@example.com",
			"subject": "Temperature alert",
			"message": "temp1 exceeded temp2"
		}
	}`)
	require.NoError(t, r.Route(context.Background(), payload))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "ops@example.com|Temperature alert", mailer.sent[0])
}

func TestRouteEmailMissingRecipient(t *testing.T) {
	r := NewRouter()
	r.Register("email", EmailHandler(&fakeMailer{}))

	err := r.Route(context.Background(), []byte(`{"action":"email","action_data":{"subject":"x"}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recipient")
}

func TestRouteAddTodo(t *testing.T) {
	store := &fakeTodoStore{}
	r := NewRouter()
	r.Register("add_todo", TodoHandler(store))

	payload := []byte(`{"action":"add_todo","action_data":{"text":"check HVAC"}}`)
	require.NoError(t, r.Route(context.Background(), payload))
	require.Len(t, store.todos, 1)
	assert.Equal(t, "check HVAC", store.todos[0].Text)
	assert.NotEmpty(t, store.todos[0].ID)
	assert.False(t, store.todos[0].Done)
}

func TestRouteUnknownAction(t *testing.T) {
	r := NewRouter()
	err := r.Route(context.Background(), []byte(`{"action":"page_everyone","action_data":{}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page_everyone")
}

func TestRouteMalformedPayload(t *testing.T) {
	r := NewRouter()
	err := r.Route(context.Background(), []byte(`{not json`))
	require.Error(t, err)
}

func TestRouteHandlerErrorPropagates(t *testing.T) {
	mailer := &fakeMailer{err: stderrors.New("relay refused")}
	r := NewRouter()
	r.Register("email", EmailHandler(mailer))

	err := r.Route(context.Background(), []byte(`{"action":"email","action_data":{"to":"a@b.c"}}`))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, mailer.err))
}

func TestSMTPConfigValidate(t *testing.T) {
	assert.Error(t, SMTPConfig{}.Validate())
	assert.Error(t, SMTPConfig{Host: "mail", Port: 25}.Validate())
	assert.NoError(t, SMTPConfig{Host: "mail", Port: 25, From: "alerts@example.com"}.Validate())
}

func TestStringField(t *testing.T) {
	data := map[string]any{"to": "x@y.z", "body": "hello"}
	assert.Equal(t, "x@y.z", stringField(data, "to", "recipient"))
	assert.Equal(t, "hello", stringField(data, "message", "body"))
	assert.Equal(t, "", stringField(data, "missing", ""))
}
