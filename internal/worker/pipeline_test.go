package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ramonehamilton/mtga-ratings-sync/internal/events"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/mtgahelper"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/ratings"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/seventeenlands"
)

func TestTemplateSync_Diffing(t *testing.T) {
	h := newHarness(t)
	h.initialise(t)

	template := []mtgahelper.CustomDraftRating{
		templateRow(1, "dsk", "Acrobatic Cheerleader"),
		templateRow(2, "dsk", "Bashful Beastie"),
		templateRow(3, "", "Skipped"),
		templateRow(4, "dsk", "Cult Healer"),
	}
	h.host.setTemplate(template)

	h.worker.DownloadCustomRatingTemplate()
	e, _ := h.events.waitFor(t, events.CustomRatingTemplate)
	if update, _ := events.GetTypedData[events.NeedsUpdateEvent](e); !update.NeedsUpdate {
		t.Error("Expected needsUpdate=true on first sync")
	}

	views, err := h.worker.ListRatings(context.Background(), "DSK")
	if err != nil {
		t.Fatalf("ListRatings failed: %v", err)
	}
	if len(views) != 3 {
		t.Fatalf("Expected 3 stored cards, got %d", len(views))
	}

	h.worker.DownloadCustomRatingTemplate()
	e, _ = h.events.waitFor(t, events.CustomRatingTemplate)
	if update, _ := events.GetTypedData[events.NeedsUpdateEvent](e); update.NeedsUpdate {
		t.Error("Expected needsUpdate=false for an identical template")
	}

	changed := append([]mtgahelper.CustomDraftRating(nil), template...)
	changed[1].Rating = ptr(7)
	changed[1].Note = ptr("removal")
	h.host.setTemplate(changed)

	h.worker.DownloadCustomRatingTemplate()
	e, _ = h.events.waitFor(t, events.CustomRatingTemplate)
	if update, _ := events.GetTypedData[events.NeedsUpdateEvent](e); !update.NeedsUpdate {
		t.Error("Expected needsUpdate=true after a change")
	}

	views, _ = h.worker.ListRatings(context.Background(), "dsk")
	var beastie bool
	for _, v := range views {
		if v.IDArena == 2 {
			beastie = true
			if v.Rating.Rating == nil || *v.Rating.Rating != 7 {
				t.Errorf("Expected rating 7, got %v", v.Rating.Rating)
			}
			if v.Note == nil || *v.Note != "removal" {
				t.Errorf("Expected note 'removal', got %v", v.Note)
			}
		}
	}
	if !beastie {
		t.Error("Expected card 2 in the template")
	}
}

func TestTemplateSync_Failures(t *testing.T) {
	h := newHarness(t)
	h.initialise(t)

	h.host.setTemplate([]mtgahelper.CustomDraftRating{templateRow(1, "", "No Set")})
	h.worker.DownloadCustomRatingTemplate()
	e, _ := h.events.waitFor(t, events.CustomRatingTemplateFailed)
	if failure, _ := events.GetTypedData[events.FailureEvent](e); failure.Error != ErrEmptyPayload.Error() {
		t.Errorf("Expected empty payload error, got %q", failure.Error)
	}

	h.host.setTemplate([]mtgahelper.CustomDraftRating{templateRow(1, "dsk", "Card")})
	h.faults.Set(FaultTemplate, true)
	h.worker.DownloadCustomRatingTemplate()
	h.events.waitFor(t, events.CustomRatingTemplateFailed)

	views, _ := h.worker.ListRatings(context.Background(), "DSK")
	if len(views) != 0 {
		t.Errorf("Expected nothing stored, got %d", len(views))
	}
}

func TestDownload17LRatings_PartialFailure(t *testing.T) {
	h := newHarness(t)
	h.initialise(t)
	h.loadTemplate(t, []mtgahelper.CustomDraftRating{
		templateRow(1, "DSK", "Acrobatic Cheerleader"),
		templateRow(2, "BLB", "Agate Assault"),
	})

	h.source.bySet["DSK"] = []seventeenlands.CardRating{
		statRow("Acrobatic Cheerleader", 500, 0.55),
		{SeenCount: ptr(int64(1))}, // no name
	}
	h.source.errBySet["BLB"] = &seventeenlands.APIError{Type: seventeenlands.ErrUnavailable, StatusCode: 500, Message: "server error"}

	h.worker.Download17LRatings("PremierDraft", []string{"dsk", "blb"}, "2024-09-24", "")
	all, before := h.events.waitFor(t, events.DownloadedAll17LRatings)

	if countType(before, events.Downloaded17LRatings) != 1 || countType(before, events.Failed17LRatings) != 1 {
		t.Fatalf("Expected one success and one failure, got %v", before)
	}
	for _, e := range before {
		set, _ := events.GetTypedData[events.SetEvent](e)
		switch e.Type {
		case events.Downloaded17LRatings:
			if set.Set != "DSK" || set.Cards != 1 {
				t.Errorf("Expected DSK with 1 card, got %+v", set)
			}
		case events.Failed17LRatings:
			if set.Set != "BLB" || set.Error == "" {
				t.Errorf("Expected BLB failure with error, got %+v", set)
			}
		}
	}
	if batch, _ := events.GetTypedData[events.BatchEvent](all); batch.Total != 2 {
		t.Errorf("Expected batch total 2, got %d", batch.Total)
	}

	if len(h.source.requests) != 2 {
		t.Fatalf("Expected 2 requests, got %d", len(h.source.requests))
	}
	if first := h.source.requests[0]; first.Expansion != "DSK" || first.Format != "PremierDraft" || first.StartDate != "2024-09-24" {
		t.Errorf("Unexpected first query %+v", first)
	}

	views, _ := h.worker.ListRatings(context.Background(), "DSK")
	if len(views) != 1 || views[0].Statistics == nil || *views[0].Statistics.WinRate != 0.55 {
		t.Errorf("Expected stored statistics for DSK, got %+v", views)
	}

	if got := h.metrics.StatisticsFailed.Load(); got != 1 {
		t.Errorf("Expected 1 failed statistics download, got %d", got)
	}
}

func TestDownload17LRatings_EmptyResponse(t *testing.T) {
	h := newHarness(t)
	h.initialise(t)
	h.loadTemplate(t, []mtgahelper.CustomDraftRating{templateRow(1, "DSK", "Acrobatic Cheerleader")})

	h.source.bySet["DSK"] = []seventeenlands.CardRating{}

	h.worker.Download17LRatings("PremierDraft", []string{"DSK"}, "", "")
	e, _ := h.events.waitFor(t, events.Failed17LRatings)
	if set, _ := events.GetTypedData[events.SetEvent](e); set.Set != "DSK" {
		t.Errorf("Expected failure for DSK, got %q", set.Set)
	}
	h.events.waitFor(t, events.DownloadedAll17LRatings)

	views, _ := h.worker.ListRatings(context.Background(), "DSK")
	if len(views) != 1 || views[0].Statistics != nil {
		t.Errorf("Expected no statistics row, got %+v", views)
	}
}

// seedDSK stores three DSK cards with statistics.
func seedDSK(t *testing.T, h *harness) {
	t.Helper()
	h.loadTemplate(t, []mtgahelper.CustomDraftRating{
		templateRow(1, "DSK", "Acrobatic Cheerleader"),
		templateRow(2, "DSK", "Bashful Beastie"),
		templateRow(3, "DSK", "Cult Healer"),
	})
	h.source.bySet["DSK"] = []seventeenlands.CardRating{
		statRow("Acrobatic Cheerleader", 500, 0.50),
		statRow("Bashful Beastie", 500, 0.60),
		statRow("Cult Healer", 500, 0.55),
	}
	h.loadStatistics(t, "DSK")
}

func TestCalculateAndUpload(t *testing.T) {
	h := newHarness(t)
	h.initialise(t)
	seedDSK(t, h)

	h.worker.CalculateRatings(ratings.Params{
		Sets:           []string{"dsk"},
		Metric:         ratings.WinRate,
		CommentMetrics: []ratings.CommentMetric{{Metric: ratings.WinRate, Code: "WR"}},
		Locale:         "en",
	})

	calculated, before := h.events.waitFor(t, events.RatingsCalculated)
	if n := countType(before, events.RatingCalculated); n != 3 {
		t.Errorf("Expected 3 ratingCalculated signals, got %d", n)
	}
	if batch, _ := events.GetTypedData[events.BatchEvent](calculated); batch.Total != 3 || batch.BatchID == "" {
		t.Errorf("Expected batch of 3 with an id, got %+v", batch)
	}

	_, before = h.events.waitFor(t, events.AllRatingsUploaded)
	if n := countType(before, events.RatingUploaded); n != 3 {
		t.Errorf("Expected 3 ratingUploaded signals, got %d", n)
	}

	// The template is re-synced after the upload.
	h.events.waitFor(t, events.CustomRatingTemplate)

	want := map[int]int{1: 1, 2: 3, 3: 2}
	h.host.mu.Lock()
	puts := append([]mtgahelper.CustomDraftRatingUpdate(nil), h.host.puts...)
	h.host.mu.Unlock()
	if len(puts) != 3 {
		t.Fatalf("Expected 3 uploads, got %d", len(puts))
	}
	for _, put := range puts {
		if put.Rating == nil || *put.Rating != want[put.IDArena] {
			t.Errorf("Card %d: expected rating %d, got %v", put.IDArena, want[put.IDArena], put.Rating)
		}
		if put.Note == nil {
			t.Errorf("Card %d: expected a comment", put.IDArena)
		}
	}
	if *puts[0].Note != "WR:50.00%" {
		t.Errorf("Expected comment WR:50.00%%, got %q", *puts[0].Note)
	}
}

func TestCalculateRatings_OneSetWithoutEligibleCards(t *testing.T) {
	h := newHarness(t)
	h.initialise(t)
	h.loadTemplate(t, []mtgahelper.CustomDraftRating{
		templateRow(1, "DSK", "Acrobatic Cheerleader"),
		templateRow(2, "BLB", "Agate Assault"),
	})
	h.source.bySet["DSK"] = []seventeenlands.CardRating{statRow("Acrobatic Cheerleader", 500, 0.5)}
	h.loadStatistics(t, "DSK")

	h.worker.CalculateRatings(ratings.Params{Sets: []string{"DSK", "BLB"}, Metric: ratings.WinRate})
	e, before := h.events.waitFor(t, events.FailedRatingCalculation)
	if countType(before, events.RatingCalculated) != 0 {
		t.Error("Expected no ratingCalculated signal")
	}
	if failure, _ := events.GetTypedData[events.FailureEvent](e); failure.Error == "" {
		t.Error("Expected an error message")
	}

	status, _ := h.worker.Status(context.Background())
	if status.UploadQueue != 0 {
		t.Errorf("Expected upload queue untouched, got %d", status.UploadQueue)
	}
	if h.host.putCount() != 0 {
		t.Errorf("Expected no uploads, got %d", h.host.putCount())
	}
}

func TestCalculateRatings_ClearMode(t *testing.T) {
	h := newHarness(t)
	h.initialise(t)
	h.loadTemplate(t, []mtgahelper.CustomDraftRating{
		templateRow(1, "DSK", "Acrobatic Cheerleader"),
		templateRow(2, "DSK", "Bashful Beastie"),
	})

	h.worker.CalculateRatings(ratings.Params{Sets: []string{"DSK"}, Clear: true})
	h.events.waitFor(t, events.AllRatingsUploaded)

	h.host.mu.Lock()
	defer h.host.mu.Unlock()
	if len(h.host.puts) != 2 {
		t.Fatalf("Expected 2 uploads, got %d", len(h.host.puts))
	}
	for _, put := range h.host.puts {
		if put.Rating != nil || put.Note != nil {
			t.Errorf("Expected null rating and note, got %+v", put)
		}
	}
}

func TestUpload_RetriesThenSucceeds(t *testing.T) {
	h := newHarness(t)
	h.initialise(t)
	h.loadTemplate(t, []mtgahelper.CustomDraftRating{templateRow(1, "DSK", "Acrobatic Cheerleader")})

	h.host.mu.Lock()
	h.host.putFailures = 2
	h.host.mu.Unlock()

	h.worker.CalculateRatings(ratings.Params{Sets: []string{"DSK"}, Clear: true})
	_, before := h.events.waitFor(t, events.AllRatingsUploaded)

	if n := countType(before, events.RatingUploaded); n != 1 {
		t.Errorf("Expected 1 ratingUploaded, got %d", n)
	}
	if n := countType(before, events.RatingUploadFailed); n != 0 {
		t.Errorf("Expected no discard, got %d ratingUploadFailed", n)
	}
	if n := h.host.putCount(); n != 3 {
		t.Errorf("Expected 3 attempts, got %d", n)
	}
	if n := h.metrics.UploadRetries.Load(); n != 2 {
		t.Errorf("Expected 2 retries, got %d", n)
	}
}

func TestUpload_DiscardsAfterThreeFailures(t *testing.T) {
	h := newHarness(t)
	h.initialise(t)
	h.loadTemplate(t, []mtgahelper.CustomDraftRating{
		templateRow(1, "DSK", "Acrobatic Cheerleader"),
		templateRow(2, "DSK", "Bashful Beastie"),
	})

	h.host.mu.Lock()
	h.host.putFailures = -1
	h.host.mu.Unlock()

	h.worker.CalculateRatings(ratings.Params{Sets: []string{"DSK"}, Clear: true})
	e, before := h.events.waitFor(t, events.RatingUploadFailed)

	if countType(before, events.RatingUploaded) != 0 {
		t.Error("Expected no successful upload")
	}
	card, _ := events.GetTypedData[events.CardEvent](e)
	if card.IDArena != 1 || card.Error == "" {
		t.Errorf("Expected fatal failure for card 1, got %+v", card)
	}

	h.events.expectNone(t, 100*time.Millisecond)
	if n := h.host.putCount(); n != 3 {
		t.Errorf("Expected exactly 3 attempts, got %d", n)
	}

	status, _ := h.worker.Status(context.Background())
	if status.UploadQueue != 0 || status.Outstanding != 0 {
		t.Errorf("Expected empty queue, got %+v", status)
	}
	if n := h.metrics.UploadDiscards.Load(); n != 1 {
		t.Errorf("Expected 1 discard, got %d", n)
	}
}

func TestUpload_FaultInjection(t *testing.T) {
	h := newHarness(t)
	h.initialise(t)
	h.loadTemplate(t, []mtgahelper.CustomDraftRating{templateRow(1, "DSK", "Acrobatic Cheerleader")})

	h.faults.Set(FaultUpload, true)
	h.worker.CalculateRatings(ratings.Params{Sets: []string{"DSK"}, Clear: true})
	e, _ := h.events.waitFor(t, events.RatingUploadFailed)

	card, _ := events.GetTypedData[events.CardEvent](e)
	if card.Attempt != MaxUploadAttempts {
		t.Errorf("Expected attempt %d, got %d", MaxUploadAttempts, card.Attempt)
	}
}

func TestCancelUpload(t *testing.T) {
	h := newHarness(t)
	h.initialise(t)
	h.loadTemplate(t, []mtgahelper.CustomDraftRating{
		templateRow(1, "DSK", "Acrobatic Cheerleader"),
		templateRow(2, "DSK", "Bashful Beastie"),
		templateRow(3, "DSK", "Cult Healer"),
	})
	templateCalls := h.host.templateCount()

	h.host.putStarted = make(chan struct{})
	h.host.putRelease = make(chan struct{})

	h.worker.CalculateRatings(ratings.Params{Sets: []string{"DSK"}, Clear: true})

	select {
	case <-h.host.putStarted:
	case <-time.After(5 * time.Second):
		t.Fatal("Expected an upload to start")
	}
	h.worker.CancelUpload()
	close(h.host.putRelease)

	_, before := h.events.waitFor(t, events.UploadCancelled)
	if n := countType(before, events.RatingUploaded); n != 1 {
		t.Errorf("Expected the in-flight upload to finish, got %d ratingUploaded", n)
	}
	h.events.waitFor(t, events.CustomRatingTemplate)

	if n := h.host.putCount(); n != 1 {
		t.Errorf("Expected 1 upload, got %d", n)
	}
	if n := h.host.templateCount(); n != templateCalls+1 {
		t.Errorf("Expected a template re-sync, got %d calls", n-templateCalls)
	}

	status, _ := h.worker.Status(context.Background())
	if status.UploadQueue != 0 || status.CancelRequested {
		t.Errorf("Expected cleared queue and flag, got %+v", status)
	}
}

func TestSetCustomRating(t *testing.T) {
	h := newHarness(t)
	h.initialise(t)
	h.loadTemplate(t, []mtgahelper.CustomDraftRating{templateRow(1, "DSK", "Acrobatic Cheerleader")})

	h.worker.SetCustomRating(1, ptr(9), ptr("bomb"))
	e, _ := h.events.waitFor(t, events.CustomRatingSaved)
	if saved, _ := events.GetTypedData[events.CustomRatingEvent](e); saved.IDArena != 1 || saved.Deleted {
		t.Errorf("Expected saved override for card 1, got %+v", saved)
	}

	views, _ := h.worker.ListRatings(context.Background(), "DSK")
	if len(views) != 1 || views[0].Custom == nil || *views[0].Custom.Rating != 9 {
		t.Fatalf("Expected override rating 9, got %+v", views)
	}

	h.worker.SetCustomRating(1, ptr(-1), ptr(""))
	e, _ = h.events.waitFor(t, events.CustomRatingSaved)
	if saved, _ := events.GetTypedData[events.CustomRatingEvent](e); !saved.Deleted {
		t.Error("Expected the override to be deleted")
	}

	views, _ = h.worker.ListRatings(context.Background(), "DSK")
	if views[0].Custom != nil {
		t.Errorf("Expected no override, got %+v", views[0].Custom)
	}
}

func TestRatingDistribution(t *testing.T) {
	h := newHarness(t)
	h.initialise(t)

	rated := templateRow(1, "DSK", "Acrobatic Cheerleader")
	rated.Rating = ptr(4)
	h.loadTemplate(t, []mtgahelper.CustomDraftRating{rated, templateRow(2, "DSK", "Bashful Beastie")})

	dist, err := h.worker.RatingDistribution(context.Background(), "dsk")
	if err != nil {
		t.Fatalf("RatingDistribution failed: %v", err)
	}
	if dist.Counts[4] != 1 || dist.Unrated != 1 || dist.Total() != 2 {
		t.Errorf("Unexpected distribution %+v", dist)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := h.worker.RatingDistribution(ctx, "DSK"); !errors.Is(err, context.Canceled) && err != nil {
		t.Errorf("Expected nil or context.Canceled, got %v", err)
	}
}
