package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs     []kafka.Message
	deadline time.Time
	err      error
	closed   bool
}

func (r *recordingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.deadline, _ = ctx.Deadline()
	if r.err != nil {
		return r.err
	}
	r.msgs = append(r.msgs, msgs...)
	return nil
}

func (r *recordingWriter) Close() error {
	r.closed = true
	return nil
}

func TestKafka_Publish(t *testing.T) {
	w := &recordingWriter{}
	k := &Kafka{w: w}

	ev := New(UserRegistered, "u1", map[string]string{"email": "a@b.c"})
	require.NoError(t, k.Publish(context.Background(), TopicUser, "u1", ev))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, TopicUser, msg.Topic)
	assert.Equal(t, []byte("u1"), msg.Key)
	assert.WithinDuration(t, time.Now().Add(publishTimeout), w.deadline, time.Second)

	var got map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, UserRegistered, got["type"])
	assert.Equal(t, "u1", got["subject"])
	assert.Equal(t, "a@b.c", got["data"].(map[string]any)["email"])

	require.NoError(t, k.Close())
	assert.True(t, w.closed)
}

func TestKafka_PublishError(t *testing.T) {
	k := &Kafka{w: &recordingWriter{err: errors.New("broker down")}}
	err := k.Publish(context.Background(), TopicProduct, "p1", New(ProductCreated, "p1", nil))
	assert.ErrorContains(t, err, "broker down")
}

func TestFromBrokers(t *testing.T) {
	assert.IsType(t, Nop{}, FromBrokers(nil))

	p := FromBrokers([]string{"localhost:9092"})
	assert.IsType(t, &Kafka{}, p)
	require.NoError(t, p.Close())
}
