package source

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/alertflow/errors"
)

func TestStaticFetch(t *testing.T) {
	s := NewStatic()
	s.Set("sensors/temp1", 21.5)

	got, err := s.Fetch(context.Background(), "sensors/temp1")
	require.NoError(t, err)
	assert.Equal(t, 21.5, got)
}

func TestStaticFetchUnknownTopic(t *testing.T) {
	s := NewStatic()

	_, err := s.Fetch(context.Background(), "sensors/missing")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrTopicNotFound))
}

func TestStaticFail(t *testing.T) {
	s := NewStatic()
	s.Set("sensors/temp1", 21.5)
	boom := stderrors.New("backend down")
	s.Fail("sensors/temp1", boom)

	_, err := s.Fetch(context.Background(), "sensors/temp1")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, boom))

	s.Fail("sensors/temp1", nil)
	got, err := s.Fetch(context.Background(), "sensors/temp1")
	require.NoError(t, err)
	assert.Equal(t, 21.5, got)
}

func TestTopicKey(t *testing.T) {
	tests := []struct {
		topic string
		want  string
	}{
		{"sensors/temp1", "sensors.temp1"},
		{"/sensors/temp1/", "sensors.temp1"},
		{"plain", "plain"},
		{"a/b/c", "a.b.c"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TopicKey(tt.topic), tt.topic)
	}
}
