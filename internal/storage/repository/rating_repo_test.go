package repository

import (
	"context"
	"testing"

	"github.com/ramonehamilton/mtga-ratings-sync/internal/storage/models"
)

func TestRatingRepository_UpsertAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRatingRepository(db)
	ctx := context.Background()

	rating := models.Rating{IDArena: 67000, Set: "DOM", Name: "Llanowar Elves", Rating: ptrInt(7), Note: strPtr("good")}
	if err := repo.Upsert(ctx, rating); err != nil {
		t.Fatalf("Failed to upsert rating: %v", err)
	}

	got, err := repo.Get(ctx, 67000)
	if err != nil {
		t.Fatalf("Failed to get rating: %v", err)
	}
	if got == nil || got.Rating == nil || *got.Rating != 7 {
		t.Fatalf("Expected rating 7, got %+v", got)
	}

	// Replace wholesale, clearing the rating and the note.
	rating.Rating = nil
	rating.Note = nil
	if err := repo.Upsert(ctx, rating); err != nil {
		t.Fatalf("Failed to upsert rating: %v", err)
	}

	got, err = repo.Get(ctx, 67000)
	if err != nil {
		t.Fatalf("Failed to get rating: %v", err)
	}
	if got.Rating != nil || got.Note != nil {
		t.Errorf("Expected cleared rating and note, got %+v", got)
	}

	missing, err := repo.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Failed to get missing rating: %v", err)
	}
	if missing != nil {
		t.Errorf("Expected nil, got %+v", missing)
	}
}

func TestRatingRepository_ListBySets(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRatingRepository(db)
	ctx := context.Background()

	for _, r := range []models.Rating{
		{IDArena: 3, Set: "M19", Name: "Shock"},
		{IDArena: 2, Set: "DOM", Name: "Shivan Fire"},
		{IDArena: 1, Set: "DOM", Name: "Llanowar Elves"},
		{IDArena: 4, Set: "GRN", Name: "Status"},
	} {
		if err := repo.Upsert(ctx, r); err != nil {
			t.Fatalf("Failed to upsert rating: %v", err)
		}
	}

	ratings, err := repo.ListBySets(ctx, []string{"DOM", "M19"})
	if err != nil {
		t.Fatalf("Failed to list ratings: %v", err)
	}
	if len(ratings) != 3 {
		t.Fatalf("Expected 3 ratings, got %d", len(ratings))
	}
	if ratings[0].Name != "Llanowar Elves" || ratings[2].Set != "M19" {
		t.Errorf("Unexpected order: %+v", ratings)
	}

	empty, err := repo.ListBySets(ctx, nil)
	if err != nil {
		t.Fatalf("Failed to list with no sets: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("Expected no ratings, got %d", len(empty))
	}
}

func TestRatingRepository_ListCardViews(t *testing.T) {
	db := setupTestDB(t)
	ratings := NewRatingRepository(db)
	stats := NewStatisticsRepository(db)
	custom := NewCustomRatingRepository(db)
	ctx := context.Background()

	_ = ratings.Upsert(ctx, models.Rating{IDArena: 1, Set: "DOM", Name: "Llanowar Elves"})
	_ = ratings.Upsert(ctx, models.Rating{IDArena: 2, Set: "DOM", Name: "Shivan Fire"})

	if err := stats.Upsert(ctx, models.CardStatistics{
		Set: "DOM", Name: "Llanowar Elves", SeenCount: ptrInt64(500), AvgPick: ptrFloat(3.5),
	}); err != nil {
		t.Fatalf("Failed to upsert statistics: %v", err)
	}
	if _, err := custom.Save(ctx, models.CustomRating{IDArena: 2, Note: strPtr("sideboard")}); err != nil {
		t.Fatalf("Failed to save custom rating: %v", err)
	}

	views, err := ratings.ListCardViews(ctx, []string{"DOM"})
	if err != nil {
		t.Fatalf("Failed to list card views: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("Expected 2 views, got %d", len(views))
	}

	elves := views[0]
	if elves.Statistics == nil || elves.Statistics.AvgPick == nil || *elves.Statistics.AvgPick != 3.5 {
		t.Fatalf("Expected avg_pick 3.5 for Llanowar Elves, got %+v", elves.Statistics)
	}
	if elves.Statistics.WinRate != nil {
		t.Errorf("Expected nil win rate, got %v", *elves.Statistics.WinRate)
	}
	if elves.Custom != nil {
		t.Errorf("Expected no custom rating, got %+v", elves.Custom)
	}

	fire := views[1]
	if fire.Statistics != nil {
		t.Errorf("Expected no statistics for Shivan Fire, got %+v", fire.Statistics)
	}
	if fire.Custom == nil || !fire.Custom.HasNote() || fire.Custom.HasRating() {
		t.Errorf("Expected note-only custom rating, got %+v", fire.Custom)
	}
}

func TestRatingRepository_Distribution(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRatingRepository(db)
	ctx := context.Background()

	for _, r := range []models.Rating{
		{IDArena: 1, Set: "DOM", Name: "A", Rating: ptrInt(5)},
		{IDArena: 2, Set: "DOM", Name: "B", Rating: ptrInt(5)},
		{IDArena: 3, Set: "DOM", Name: "C", Rating: ptrInt(10)},
		{IDArena: 4, Set: "DOM", Name: "D"},
		{IDArena: 5, Set: "M19", Name: "E", Rating: ptrInt(1)},
	} {
		if err := repo.Upsert(ctx, r); err != nil {
			t.Fatalf("Failed to upsert rating: %v", err)
		}
	}

	dist, err := repo.Distribution(ctx, "DOM")
	if err != nil {
		t.Fatalf("Failed to get distribution: %v", err)
	}
	if dist.Counts[5] != 2 {
		t.Errorf("Expected 2 cards rated 5, got %d", dist.Counts[5])
	}
	if dist.Counts[10] != 1 {
		t.Errorf("Expected 1 card rated 10, got %d", dist.Counts[10])
	}
	if dist.Unrated != 1 {
		t.Errorf("Expected 1 unrated card, got %d", dist.Unrated)
	}
	if dist.Total() != 4 {
		t.Errorf("Expected total 4, got %d", dist.Total())
	}
}
