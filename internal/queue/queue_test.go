package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"detention/internal/queue"
)

func TestInMemory_PublishConsume(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	q := queue.NewInMemory(4)
	require.NoError(t, q.Publish(ctx, queue.Message{Type: queue.TypeVisitRequest, Body: []byte("req-1")}))
	require.NoError(t, q.Publish(ctx, queue.Message{Type: queue.TypeFaceEnroll, Body: []byte("vis-1")}))

	out, err := q.Consume(ctx)
	require.NoError(t, err)

	msg := <-out
	assert.Equal(t, queue.TypeVisitRequest, msg.Type)
	assert.Equal(t, "req-1", string(msg.Body))

	msg = <-out
	assert.Equal(t, queue.TypeFaceEnroll, msg.Type)
	assert.Equal(t, "vis-1", string(msg.Body))
}

func TestInMemory_PublishRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	q := queue.NewInMemory(0)
	err := q.Publish(ctx, queue.Message{Type: queue.TypeVisitRequest, Body: []byte("req-1")})
	assert.ErrorIs(t, err, context.Canceled)
}
