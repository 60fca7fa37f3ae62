package worker

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ramonehamilton/mtga-ratings-sync/internal/events"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/metrics"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/seventeenlands"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/storage"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/storage/models"
)

// Download17LRatings replaces the statistics queue with one 17Lands request per
// set. Requests are issued one per tick; failed sets are reported and skipped.
// startDate and endDate are YYYY-MM-DD or empty.
func (w *Worker) Download17LRatings(format string, sets []string, startDate, endDate string) {
	w.post(func(ctx context.Context) {
		batchID := uuid.NewString()

		if w.store == nil {
			for _, set := range sets {
				w.statisticsFailed(ctx, batchID, strings.ToUpper(set), ErrNotInitialised)
			}
			w.emit(ctx, events.DownloadedAll17LRatings, events.BatchEvent{BatchID: batchID, Total: len(sets)})
			return
		}

		w.statsQueue.Clear()
		w.statsBatch = batchID
		w.statsTotal = len(sets)
		w.statsDone = false
		for _, set := range sets {
			w.statsQueue.PushBack(statisticsRequest{
				batchID: batchID,
				params: seventeenlands.QueryParams{
					Expansion: strings.ToUpper(set),
					Format:    format,
					StartDate: startDate,
					EndDate:   endDate,
				},
			})
		}

		w.logger.Info("Queued statistics downloads", "batch", batchID, "sets", len(sets), "format", format)
		if w.statsQueue.Len()+w.statsOutstanding == 0 {
			w.finishStatisticsBatch(ctx)
			return
		}
		w.startTicker()
		w.updateQueueMetrics()
	})
}

func (w *Worker) issueStatistics(ctx context.Context, req statisticsRequest) {
	w.statsOutstanding++

	w.async(ctx, func(ctx context.Context) func(context.Context) {
		var cards []seventeenlands.CardRating
		err := w.timed(metrics.SeventeenLands, func() (err error) {
			cards, err = w.seventeenlands.GetCardRatings(ctx, req.params)
			return err
		})
		return func(ctx context.Context) {
			w.statsOutstanding--
			set := req.params.Expansion

			if err == nil && w.faults.Active(FaultStatistics) {
				err = ErrInjectedFault
			}
			if err == nil {
				var stored int
				stored, err = w.storeStatistics(ctx, set, cards)
				if err == nil {
					w.metrics.StatisticsFetched.Add(1)
					w.logger.Info("Downloaded 17Lands statistics", "set", set, "cards", stored)
					w.emit(ctx, events.Downloaded17LRatings, events.SetEvent{BatchID: req.batchID, Set: set, Cards: stored})
				}
			}
			if err != nil {
				w.statisticsFailed(ctx, req.batchID, set, err)
			}

			if !w.statsDone && w.statsQueue.Len()+w.statsOutstanding == 0 {
				w.finishStatisticsBatch(ctx)
			}
			w.updateQueueMetrics()
		}
	})
}

func (w *Worker) statisticsFailed(ctx context.Context, batchID, set string, err error) {
	w.metrics.StatisticsFailed.Add(1)
	w.logger.Warn("Failed to download 17Lands statistics", "set", set, "error", err)
	w.emit(ctx, events.Failed17LRatings, events.SetEvent{BatchID: batchID, Set: set, Error: err.Error()})
}

func (w *Worker) finishStatisticsBatch(ctx context.Context) {
	w.statsDone = true
	w.logger.Info("Statistics downloads finished", "batch", w.statsBatch, "sets", w.statsTotal)
	w.emit(ctx, events.DownloadedAll17LRatings, events.BatchEvent{BatchID: w.statsBatch, Total: w.statsTotal})
}

// storeStatistics upserts every named entry in one transaction.
func (w *Worker) storeStatistics(ctx context.Context, set string, cards []seventeenlands.CardRating) (int, error) {
	now := time.Now().UTC()
	stored := 0

	err := w.store.Update(ctx, func(r storage.Repositories) error {
		for _, card := range cards {
			if card.Name == nil || *card.Name == "" {
				continue
			}
			if err := r.Statistics.Upsert(ctx, statisticsFromCard(set, card, now)); err != nil {
				return err
			}
			stored++
		}
		if stored == 0 {
			return ErrEmptyPayload
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return stored, nil
}

func statisticsFromCard(set string, c seventeenlands.CardRating, now time.Time) models.CardStatistics {
	return models.CardStatistics{
		Set:                     set,
		Name:                    *c.Name,
		SeenCount:               c.SeenCount,
		AvgSeen:                 c.AvgSeen,
		PickCount:               c.PickCount,
		AvgPick:                 c.AvgPick,
		GameCount:               c.GameCount,
		WinRate:                 c.WinRate,
		OpeningHandGameCount:    c.OpeningHandGameCount,
		OpeningHandWinRate:      c.OpeningHandWinRate,
		DrawnGameCount:          c.DrawnGameCount,
		DrawnWinRate:            c.DrawnWinRate,
		EverDrawnGameCount:      c.EverDrawnGameCount,
		EverDrawnWinRate:        c.EverDrawnWinRate,
		NeverDrawnGameCount:     c.NeverDrawnGameCount,
		NeverDrawnWinRate:       c.NeverDrawnWinRate,
		DrawnImprovementWinRate: c.DrawnImprovementWinRate,
		LastUpdate:              now,
	}
}
