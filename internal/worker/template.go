package worker

import (
	"context"
	"strings"

	"github.com/ramonehamilton/mtga-ratings-sync/internal/events"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/metrics"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/mtgahelper"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/storage"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/storage/models"
)

// DownloadCustomRatingTemplate fetches the user's rating template from MTGA
// Helper and stores it in Ratings.
func (w *Worker) DownloadCustomRatingTemplate() {
	w.post(w.syncTemplate)
}

func (w *Worker) syncTemplate(ctx context.Context) {
	if !w.requireStore(ctx, events.CustomRatingTemplateFailed) {
		return
	}

	w.async(ctx, func(ctx context.Context) func(context.Context) {
		var template []mtgahelper.CustomDraftRating
		err := w.timed(metrics.MTGAHelper, func() (err error) {
			template, err = w.mtgahelper.GetCustomRatings(ctx)
			return err
		})
		return func(ctx context.Context) {
			if err == nil && w.faults.Active(FaultTemplate) {
				err = ErrInjectedFault
			}
			if err != nil {
				w.fail(ctx, events.CustomRatingTemplateFailed, err)
				return
			}

			needsUpdate, err := w.storeTemplate(ctx, template)
			if err != nil {
				w.fail(ctx, events.CustomRatingTemplateFailed, err)
				return
			}
			w.emit(ctx, events.CustomRatingTemplate, events.NeedsUpdateEvent{NeedsUpdate: needsUpdate})
		}
	})
}

// storeTemplate writes the template rows. Rows are compared with the stored
// ones only until the first difference; from there on every row is written.
func (w *Worker) storeTemplate(ctx context.Context, template []mtgahelper.CustomDraftRating) (bool, error) {
	needsUpdate := false
	valid := 0

	err := w.store.Update(ctx, func(r storage.Repositories) error {
		diffing := true
		for _, entry := range template {
			if entry.Card.Set == "" || entry.Card.Name == "" {
				continue
			}
			valid++

			row := models.Rating{
				IDArena: entry.Card.IDArena,
				Set:     strings.ToUpper(entry.Card.Set),
				Name:    entry.Card.Name,
				Rating:  entry.Rating,
				Note:    entry.Note,
			}
			if row.Note != nil && *row.Note == "" {
				row.Note = nil
			}

			if diffing {
				stored, err := r.Ratings.Get(ctx, row.IDArena)
				if err != nil {
					return err
				}
				if sameRating(stored, row) {
					continue
				}
				diffing = false
				needsUpdate = true
			}

			if err := r.Ratings.Upsert(ctx, row); err != nil {
				return err
			}
		}
		if valid == 0 {
			return ErrEmptyPayload
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	w.logger.Info("Stored rating template", "cards", valid, "needsUpdate", needsUpdate)
	return needsUpdate, nil
}

func sameRating(stored *models.Rating, row models.Rating) bool {
	return stored != nil &&
		stored.Name == row.Name &&
		stored.Set == row.Set &&
		equalPtr(stored.Rating, row.Rating) &&
		equalPtr(stored.Note, row.Note)
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
