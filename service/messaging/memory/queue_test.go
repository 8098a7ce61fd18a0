package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type notification struct {
	Topic    string
	ThreadID string
}

func TestQueue(t *testing.T) {
	queue := NewQueue[notification](DefaultConfig())
	ctx := context.Background()

	err := queue.Publish(ctx, &notification{Topic: "approval.request.created", ThreadID: "t1"})
	assert.NoError(t, err)

	message, err := queue.Consume(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "approval.request.created", message.T().Topic)
	assert.Equal(t, "t1", message.T().ThreadID)

	assert.NoError(t, message.Ack())
	assert.Error(t, message.Ack(), "double ack")
}

func TestQueueRedelivery(t *testing.T) {
	config := DefaultConfig()
	config.MaxRetries = 1
	config.RetryDelay = 5 * time.Millisecond
	queue := NewQueue[notification](config)
	ctx := context.Background()

	assert.NoError(t, queue.Publish(ctx, &notification{Topic: "approval.request.decided"}))

	message, err := queue.Consume(ctx)
	assert.NoError(t, err)
	assert.NoError(t, message.Nack(nil))

	// The nacked message comes back once
	redeliveryCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	redelivered, err := queue.Consume(redeliveryCtx)
	assert.NoError(t, err)
	assert.Equal(t, "approval.request.decided", redelivered.T().Topic)

	// Exceeding max retries drops it
	assert.NoError(t, redelivered.Nack(nil))
	dropCtx, cancelDrop := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancelDrop()
	_, err = queue.Consume(dropCtx)
	assert.Error(t, err)
}

func TestQueueContextCancellation(t *testing.T) {
	config := DefaultConfig()
	config.QueueBuffer = 1
	queue := NewQueue[notification](config)

	// Fill the buffer so the next publish blocks on the context
	assert.NoError(t, queue.Publish(context.Background(), &notification{Topic: "x"}))
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	err := queue.Publish(cancelled, &notification{Topic: "overflow"})
	assert.Error(t, err)

	// Drain, then a consume on an empty queue honours the deadline
	message, err := queue.Consume(context.Background())
	assert.NoError(t, err)
	assert.NoError(t, message.Ack())
	waitCtx, cancelWait := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancelWait()
	_, err = queue.Consume(waitCtx)
	assert.Error(t, err)

	// Queue stays usable afterwards
	ctx := context.Background()
	assert.NoError(t, queue.Publish(ctx, &notification{Topic: "y"}))
	message, err = queue.Consume(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "y", message.T().Topic)
}
