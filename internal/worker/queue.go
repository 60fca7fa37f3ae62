package worker

import (
	"github.com/ramonehamilton/mtga-ratings-sync/internal/ratings"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/seventeenlands"
)

const (
	// MaxUploadAttempts is the attempt count at which a dequeued upload is
	// discarded together with the rest of the queue.
	MaxUploadAttempts = 3

	// MaxUploadRetries caps the re-enqueues of a failed upload.
	MaxUploadRetries = 3
)

// fifo is a slice-backed FIFO queue owned by the worker actor.
type fifo[T any] struct {
	items []T
}

func (q *fifo[T]) Len() int { return len(q.items) }

func (q *fifo[T]) PushBack(item T) { q.items = append(q.items, item) }

func (q *fifo[T]) PushFront(item T) {
	q.items = append(q.items, item)
	copy(q.items[1:], q.items)
	q.items[0] = item
}

// PopFront removes and returns the head. The queue must not be empty.
func (q *fifo[T]) PopFront() T {
	item := q.items[0]
	var zero T
	q.items[0] = zero
	q.items = q.items[1:]
	return item
}

// Replace swaps the queue contents for items.
func (q *fifo[T]) Replace(items []T) { q.items = items }

func (q *fifo[T]) Clear() { q.items = nil }

// statisticsRequest is one queued 17Lands download.
type statisticsRequest struct {
	batchID string
	params  seventeenlands.QueryParams
}

// uploadRequest is one queued rating upload.
type uploadRequest struct {
	batchID string
	ratings.UploadRequest

	// attempt counts the failed uploads of this request so far.
	attempt int
}
