package events

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/pledgeforprogress/pledged/pkg/model"
)

const defaultQueueSize = 1024

var ErrQueueClosed = errors.New("event queue is closed")

// Queue delivers events to the next publisher from a single goroutine,
// in the order they were queued. Publish only blocks while the buffer is full.
type Queue struct {
	next   Publisher
	events chan *model.Event
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

var _ Publisher = (*Queue)(nil)

func NewQueue(next Publisher, size int) *Queue {
	if size <= 0 {
		size = defaultQueueSize
	}

	q := &Queue{
		next:   next,
		events: make(chan *model.Event, size),
		done:   make(chan struct{}),
	}

	go q.run()
	return q
}

func (q *Queue) run() {
	defer close(q.done)

	for event := range q.events {
		if err := q.next.Publish(context.Background(), event); err != nil {
			log.WithError(err).WithField("seq", event.Seq).Errorf("failed to deliver %s event", event.Kind)
		}
	}
}

func (q *Queue) Publish(ctx context.Context, event *model.Event) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.events <- event:
		return nil
	case <-ctx.Done():
		return errors.Wrapf(ctx.Err(), "failed to queue event %d", event.Seq)
	}
}

// Close delivers the queued events and closes the next publisher.
func (q *Queue) Close() error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.events)
	}
	q.mu.Unlock()

	<-q.done
	return q.next.Close()
}
