package worker

import (
	"context"
	"strings"

	"github.com/ramonehamilton/mtga-ratings-sync/internal/events"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/metrics"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/mtgahelper"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/scryfall"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/storage"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/storage/models"
)

// DownloadSets runs the MTGA Helper set discovery and then, whatever its
// outcome, the Scryfall metadata update.
func (w *Worker) DownloadSets() {
	w.post(func(ctx context.Context) {
		w.downloadSetsMTGAH(ctx, w.downloadSetsScryfall)
	})
}

// DownloadSetsMTGAH inserts the set codes MTGA Helper knows about and that are
// missing locally.
func (w *Worker) DownloadSetsMTGAH() {
	w.post(func(ctx context.Context) {
		w.downloadSetsMTGAH(ctx, nil)
	})
}

// DownloadSetsScryfall fills in name, type, release date and parent of the sets
// still missing metadata.
func (w *Worker) DownloadSetsScryfall() {
	w.post(w.downloadSetsScryfall)
}

func (w *Worker) downloadSetsMTGAH(ctx context.Context, then func(context.Context)) {
	finish := func(ctx context.Context) {
		if then != nil {
			then(ctx)
		}
	}

	if !w.requireStore(ctx, events.DownloadSetsMTGAHFailed) {
		finish(ctx)
		return
	}

	w.async(ctx, func(ctx context.Context) func(context.Context) {
		var resp *mtgahelper.SetsResponse
		err := w.timed(metrics.MTGAHelper, func() (err error) {
			resp, err = w.mtgahelper.GetSets(ctx)
			return err
		})
		return func(ctx context.Context) {
			defer finish(ctx)

			if err == nil && w.faults.Active(FaultSetsMTGAH) {
				err = ErrInjectedFault
			}
			if err != nil {
				w.fail(ctx, events.DownloadSetsMTGAHFailed, err)
				return
			}

			needsUpdate, err := w.storeSetCodes(ctx, resp.Sets)
			if err != nil {
				w.fail(ctx, events.DownloadSetsMTGAHFailed, err)
				return
			}
			w.emit(ctx, events.SetsMTGAH, events.NeedsUpdateEvent{NeedsUpdate: needsUpdate})
		}
	})
}

func (w *Worker) storeSetCodes(ctx context.Context, entries []mtgahelper.SetEntry) (bool, error) {
	var codes []string
	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		code := strings.ToUpper(strings.TrimSpace(entry.Name))
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}
	if len(codes) == 0 {
		return false, ErrEmptyPayload
	}

	inserted := 0
	err := w.store.Update(ctx, func(r storage.Repositories) error {
		existing, err := r.Sets.Codes(ctx)
		if err != nil {
			return err
		}
		for _, code := range codes {
			if existing[code] {
				continue
			}
			if err := r.Sets.InsertSkeleton(ctx, code); err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	if inserted > 0 {
		w.logger.Info("Discovered new sets", "count", inserted)
	}
	return inserted > 0, nil
}

func (w *Worker) downloadSetsScryfall(ctx context.Context) {
	if !w.requireStore(ctx, events.DownloadSetsScryfallFailed) {
		return
	}

	pending, err := w.store.Sets.Pending(ctx)
	if err != nil {
		w.fail(ctx, events.DownloadSetsScryfallFailed, err)
		return
	}
	if len(pending) == 0 {
		w.emit(ctx, events.SetsScryfall, events.NeedsUpdateEvent{NeedsUpdate: false})
		return
	}

	w.async(ctx, func(ctx context.Context) func(context.Context) {
		var list *scryfall.SetList
		err := w.timed(metrics.Scryfall, func() (err error) {
			list, err = w.scryfall.GetSets(ctx)
			return err
		})
		return func(ctx context.Context) {
			if err == nil && w.faults.Active(FaultSetsScryfall) {
				err = ErrInjectedFault
			}
			if err != nil {
				w.fail(ctx, events.DownloadSetsScryfallFailed, err)
				return
			}

			updated, err := w.storeSetMetadata(ctx, pending, list.Data)
			if err != nil {
				w.fail(ctx, events.DownloadSetsScryfallFailed, err)
				return
			}
			w.emit(ctx, events.SetsScryfall, events.NeedsUpdateEvent{NeedsUpdate: updated > 0})
		}
	})
}

func (w *Worker) storeSetMetadata(ctx context.Context, pending []string, catalogue []scryfall.Set) (int, error) {
	want := make(map[string]bool, len(pending))
	for _, code := range pending {
		want[code] = true
	}

	updated := 0
	err := w.store.Update(ctx, func(r storage.Repositories) error {
		for _, entry := range catalogue {
			code := strings.ToUpper(entry.Code)
			if !want[code] {
				continue
			}
			if err := r.Sets.UpdateMetadata(ctx, setFromCatalogue(code, entry)); err != nil {
				return err
			}
			want[code] = false
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	w.logger.Info("Applied Scryfall set metadata", "pending", len(pending), "updated", updated)
	return updated, nil
}

func setFromCatalogue(code string, entry scryfall.Set) models.Set {
	set := models.Set{Code: code}
	name := entry.Name
	set.Name = &name
	setType := scryfall.SetTypeMask(entry.SetType)
	set.Type = &setType
	if entry.ReleasedAt != "" {
		released := entry.ReleasedAt
		set.ReleaseDate = &released
	}
	if entry.ParentSetCode != "" {
		parent := strings.ToUpper(entry.ParentSetCode)
		set.ParentSet = &parent
	}
	return set
}
