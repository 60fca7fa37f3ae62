package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ramonehamilton/mtga-ratings-sync/internal/events"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/metrics"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/mtgahelper"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/ratings"
)

// CalculateRatings computes the ratings of params.Sets and replaces the upload
// queue with the result. On failure the queue is left untouched.
func (w *Worker) CalculateRatings(params ratings.Params) {
	w.post(func(ctx context.Context) {
		if !w.requireStore(ctx, events.FailedRatingCalculation) {
			return
		}
		if w.faults.Active(FaultCalculation) {
			w.fail(ctx, events.FailedRatingCalculation, ErrInjectedFault)
			return
		}

		sets := make([]string, len(params.Sets))
		for i, set := range params.Sets {
			sets[i] = strings.ToUpper(set)
		}
		params.Sets = sets

		views, err := w.store.Ratings.ListCardViews(ctx, sets)
		if err != nil {
			w.fail(ctx, events.FailedRatingCalculation, err)
			return
		}

		requests, err := ratings.Calculate(views, params)
		if err != nil {
			w.fail(ctx, events.FailedRatingCalculation, err)
			return
		}

		batchID := uuid.NewString()
		queue := make([]uploadRequest, len(requests))
		for i, req := range requests {
			queue[i] = uploadRequest{batchID: batchID, UploadRequest: req}
		}

		w.uploadQueue.Replace(queue)
		w.uploadBatch = batchID
		w.uploadTotal = len(queue)
		w.cancelled.Store(false)

		for _, req := range queue {
			w.emit(ctx, events.RatingCalculated, cardEvent(req, nil))
		}
		w.logger.Info("Ratings calculated", "batch", batchID, "cards", len(queue),
			"metric", params.Metric, "clear", params.Clear)
		w.emit(ctx, events.RatingsCalculated, events.BatchEvent{BatchID: batchID, Total: len(queue)})

		w.startTicker()
		w.updateQueueMetrics()
	})
}

// issueUpload dequeues the next upload when nothing is in flight.
func (w *Worker) issueUpload(ctx context.Context) {
	if w.uploadOutstanding > 0 || w.uploadQueue.Len() == 0 {
		return
	}
	if w.cancelled.Load() {
		w.cancelUploads(ctx)
		return
	}

	req := w.uploadQueue.PopFront()
	if req.attempt >= MaxUploadAttempts {
		w.discardUploads(ctx, req, ErrTooManyAttempts)
		return
	}

	w.uploadOutstanding++
	w.async(ctx, func(ctx context.Context) func(context.Context) {
		update := mtgahelper.CustomDraftRatingUpdate{
			IDArena: req.IDArena,
			Rating:  req.Rating,
			Note:    req.Comment,
		}
		err := w.timed(metrics.MTGAHelper, func() error {
			return w.mtgahelper.PutCustomRating(ctx, update)
		})
		return func(ctx context.Context) {
			w.uploadOutstanding--
			if err == nil && w.faults.Active(FaultUpload) {
				err = ErrInjectedFault
			}
			w.uploadCompleted(ctx, req, err)
			w.updateQueueMetrics()
		}
	})
}

func (w *Worker) uploadCompleted(ctx context.Context, req uploadRequest, err error) {
	// A recalculation replaced the queue while this upload was in flight.
	if req.batchID != w.uploadBatch {
		if err == nil {
			w.emit(ctx, events.RatingUploaded, cardEvent(req, nil))
		}
		return
	}

	if err != nil {
		w.logger.Warn("Rating upload failed", "card", req.Name, "attempt", req.attempt+1, "error", err)
		if w.cancelled.Load() {
			w.cancelUploads(ctx)
			return
		}
		if req.attempt < MaxUploadRetries {
			req.attempt++
			w.uploadQueue.PushFront(req)
			w.metrics.UploadRetries.Add(1)
			w.startTicker()
			return
		}
		w.discardUploads(ctx, req, err)
		return
	}

	w.metrics.RatingsUploaded.Add(1)
	w.emit(ctx, events.RatingUploaded, cardEvent(req, nil))

	if w.uploadQueue.Len() == 0 {
		w.cancelled.Store(false)
		w.logger.Info("All ratings uploaded", "batch", req.batchID, "cards", w.uploadTotal)
		w.emit(ctx, events.AllRatingsUploaded, events.BatchEvent{BatchID: req.batchID, Total: w.uploadTotal})
		w.syncTemplate(ctx)
		return
	}
	if w.cancelled.Load() {
		w.cancelUploads(ctx)
	}
}

// cancelUploads clears the queue and re-syncs the template to pick up what
// was written so far.
func (w *Worker) cancelUploads(ctx context.Context) {
	remaining := w.uploadQueue.Len()
	w.uploadQueue.Clear()
	w.cancelled.Store(false)
	w.metrics.UploadsCancelled.Add(1)

	w.logger.Info("Upload cancelled", "batch", w.uploadBatch, "remaining", remaining)
	w.emit(ctx, events.UploadCancelled, events.BatchEvent{BatchID: w.uploadBatch, Total: w.uploadTotal})
	w.syncTemplate(ctx)
}

// discardUploads abandons the whole batch after a card exhausted its attempts.
func (w *Worker) discardUploads(ctx context.Context, req uploadRequest, err error) {
	remaining := w.uploadQueue.Len()
	w.uploadQueue.Clear()
	w.metrics.UploadDiscards.Add(1)

	if !errors.Is(err, ErrTooManyAttempts) {
		err = fmt.Errorf("%w: %w", ErrTooManyAttempts, err)
	}
	w.logger.Error("Upload batch discarded", "batch", req.batchID, "card", req.Name,
		"attempts", req.attempt, "remaining", remaining, "error", err)
	w.emit(ctx, events.RatingUploadFailed, cardEvent(req, err))
}

func cardEvent(req uploadRequest, err error) events.CardEvent {
	event := events.CardEvent{
		BatchID: req.batchID,
		IDArena: req.IDArena,
		Name:    req.Name,
		Set:     req.Set,
		Rating:  req.Rating,
		Comment: req.Comment,
		Attempt: req.attempt,
	}
	if err != nil {
		event.Error = err.Error()
	}
	return event
}
