package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pledgeforprogress/pledged/pkg/model"
)

type slowRecorder struct {
	mu     sync.Mutex
	delay  time.Duration
	seqs   []uint64
	ctxErr []error
	closed bool
}

func (r *slowRecorder) Publish(ctx context.Context, event *model.Event) error {
	if event.Seq == 1 {
		time.Sleep(r.delay)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.seqs = append(r.seqs, event.Seq)
	r.ctxErr = append(r.ctxErr, ctx.Err())
	return nil
}

func (r *slowRecorder) Close() error {
	r.closed = true
	return nil
}

func TestQueue_DeliversInOrder(t *testing.T) {
	next := &slowRecorder{delay: 50 * time.Millisecond}
	queue := NewQueue(next, 0)

	ctx, cancel := context.WithCancel(testCtx)

	start := time.Now()
	for seq := uint64(1); seq <= 5; seq++ {
		require.NoError(t, queue.Publish(ctx, &model.Event{Seq: seq, Kind: model.EventPledgeRecorded}))
	}
	assert.Less(t, time.Since(start), next.delay)

	// Cancelling the publishing context doesn't affect delivery
	cancel()

	require.NoError(t, queue.Close())
	assert.True(t, next.closed)
	assert.Equal(t, []uint64{1, 2, 3, 4, 5}, next.seqs)
	for _, err := range next.ctxErr {
		assert.NoError(t, err)
	}
}

func TestQueue_PublishAfterClose(t *testing.T) {
	queue := NewQueue(&recorder{}, 1)
	require.NoError(t, queue.Close())
	require.NoError(t, queue.Close())

	err := queue.Publish(testCtx, &model.Event{Seq: 1})
	assert.Equal(t, ErrQueueClosed, errors.Cause(err))
}

func TestQueue_FailingSubscriberKeepsDraining(t *testing.T) {
	next := &recorder{err: errors.New("unavailable")}
	queue := NewQueue(next, 1)

	for seq := uint64(1); seq <= 3; seq++ {
		require.NoError(t, queue.Publish(testCtx, &model.Event{Seq: seq}))
	}

	require.NoError(t, queue.Close())
	assert.Len(t, next.events, 3)
}
