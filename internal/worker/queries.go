package worker

import (
	"context"
	"strings"

	"github.com/ramonehamilton/mtga-ratings-sync/internal/events"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/storage/models"
)

// Status is a snapshot of the worker's queues.
type Status struct {
	Initialised     bool   `json:"initialised"`
	StatisticsQueue int    `json:"statistics_queue"`
	StatisticsBatch string `json:"statistics_batch,omitempty"`
	UploadQueue     int    `json:"upload_queue"`
	UploadBatch     string `json:"upload_batch,omitempty"`
	UploadTotal     int    `json:"upload_total"`
	Outstanding     int    `json:"outstanding"`
	CancelRequested bool   `json:"cancel_requested"`
	TickerRunning   bool   `json:"ticker_running"`
}

// SetCustomRating stores a user override for one card. A nil or -1 rating
// together with an empty note removes the override.
func (w *Worker) SetCustomRating(idArena int, rating *int, note *string) {
	w.post(func(ctx context.Context) {
		if w.store == nil {
			w.emit(ctx, events.CustomRatingFailed, events.CustomRatingEvent{IDArena: idArena, Error: ErrNotInitialised.Error()})
			return
		}

		deleted, err := w.store.CustomRatings.Save(ctx, models.CustomRating{IDArena: idArena, Rating: rating, Note: note})
		if err != nil {
			w.logger.Warn("Failed to save custom rating", "idArena", idArena, "error", err)
			w.emit(ctx, events.CustomRatingFailed, events.CustomRatingEvent{IDArena: idArena, Error: err.Error()})
			return
		}
		w.emit(ctx, events.CustomRatingSaved, events.CustomRatingEvent{IDArena: idArena, Deleted: deleted})
	})
}

// ListSets returns every known set, newest first.
func (w *Worker) ListSets(ctx context.Context) ([]models.Set, error) {
	return query(ctx, w, func(ctx context.Context) ([]models.Set, error) {
		if w.store == nil {
			return nil, ErrNotInitialised
		}
		return w.store.Sets.List(ctx)
	})
}

// ListRatings returns the cards of a set with their statistics and overrides.
func (w *Worker) ListRatings(ctx context.Context, set string) ([]models.CardView, error) {
	return query(ctx, w, func(ctx context.Context) ([]models.CardView, error) {
		if w.store == nil {
			return nil, ErrNotInitialised
		}
		return w.store.Ratings.ListCardViews(ctx, []string{strings.ToUpper(set)})
	})
}

// RatingDistribution counts the template ratings of a set.
func (w *Worker) RatingDistribution(ctx context.Context, set string) (*models.RatingDistribution, error) {
	return query(ctx, w, func(ctx context.Context) (*models.RatingDistribution, error) {
		if w.store == nil {
			return nil, ErrNotInitialised
		}
		return w.store.Ratings.Distribution(ctx, strings.ToUpper(set))
	})
}

// Status returns a snapshot of the queues.
func (w *Worker) Status(ctx context.Context) (Status, error) {
	return query(ctx, w, func(context.Context) (Status, error) {
		return Status{
			Initialised:     w.store != nil,
			StatisticsQueue: w.statsQueue.Len(),
			StatisticsBatch: w.statsBatch,
			UploadQueue:     w.uploadQueue.Len(),
			UploadBatch:     w.uploadBatch,
			UploadTotal:     w.uploadTotal,
			Outstanding:     w.statsOutstanding + w.uploadOutstanding,
			CancelRequested: w.cancelled.Load(),
			TickerRunning:   w.ticker != nil,
		}, nil
	})
}
