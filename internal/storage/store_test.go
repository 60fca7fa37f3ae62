package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/ramonehamilton/mtga-ratings-sync/internal/storage/models"
)

func TestStore_UpdateCommits(t *testing.T) {
	store := NewTestStore(t)
	ctx := context.Background()

	err := store.Update(ctx, func(r Repositories) error {
		if err := r.Sets.InsertSkeleton(ctx, "DOM"); err != nil {
			return err
		}
		return r.Sets.InsertSkeleton(ctx, "M19")
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	codes, err := store.Sets.Codes(ctx)
	if err != nil {
		t.Fatalf("Codes failed: %v", err)
	}
	if len(codes) != 2 || !codes["DOM"] || !codes["M19"] {
		t.Errorf("Expected DOM and M19, got %v", codes)
	}
}

func TestStore_UpdateRollsBackOnError(t *testing.T) {
	store := NewTestStore(t)
	ctx := context.Background()
	errBoom := errors.New("boom")

	err := store.Update(ctx, func(r Repositories) error {
		if err := r.Sets.InsertSkeleton(ctx, "DOM"); err != nil {
			return err
		}
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("Expected errBoom, got %v", err)
	}

	codes, err := store.Sets.Codes(ctx)
	if err != nil {
		t.Fatalf("Codes failed: %v", err)
	}
	if len(codes) != 0 {
		t.Errorf("Expected rollback to leave no sets, got %v", codes)
	}
}

func TestStore_UpdateRollsBackOnConstraintViolation(t *testing.T) {
	store := NewTestStore(t)
	ctx := context.Background()

	err := store.Update(ctx, func(r Repositories) error {
		if err := r.Sets.InsertSkeleton(ctx, "DOM"); err != nil {
			return err
		}
		// Duplicate primary key.
		return r.Sets.InsertSkeleton(ctx, "DOM")
	})
	if err == nil {
		t.Fatal("Expected duplicate insert to fail")
	}

	set, err := store.Sets.Get(ctx, "DOM")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if set != nil {
		t.Errorf("Expected no DOM row after rollback, got %+v", set)
	}
}

func TestStore_UpdateRepanics(t *testing.T) {
	store := NewTestStore(t)
	ctx := context.Background()

	defer func() {
		if recover() == nil {
			t.Fatal("Expected panic to propagate")
		}
		codes, err := store.Sets.Codes(ctx)
		if err != nil {
			t.Fatalf("Codes failed: %v", err)
		}
		if len(codes) != 0 {
			t.Errorf("Expected rollback after panic, got %v", codes)
		}
	}()

	_ = store.Update(ctx, func(r Repositories) error {
		_ = r.Sets.InsertSkeleton(ctx, "DOM")
		panic("invariant")
	})
}

func TestStore_CardViewsJoinThroughParent(t *testing.T) {
	store := NewTestStore(t)
	ctx := context.Background()

	parent := "STX"
	seen := int64(100)
	winRate := 0.55

	err := store.Update(ctx, func(r Repositories) error {
		for _, code := range []string{"STX", "STA"} {
			if err := r.Sets.InsertSkeleton(ctx, code); err != nil {
				return err
			}
		}
		if err := r.Sets.UpdateMetadata(ctx, models.Set{Code: "STA", ParentSet: &parent}); err != nil {
			return err
		}
		if err := r.Ratings.Upsert(ctx, models.Rating{IDArena: 1, Set: "STA", Name: "Lightning Bolt"}); err != nil {
			return err
		}
		return r.Statistics.Upsert(ctx, models.CardStatistics{
			Set: "STX", Name: "Lightning Bolt", SeenCount: &seen, WinRate: &winRate,
		})
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	views, err := store.Ratings.ListCardViews(ctx, []string{"STA"})
	if err != nil {
		t.Fatalf("ListCardViews failed: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("Expected 1 view, got %d", len(views))
	}
	if views[0].Statistics == nil {
		t.Fatal("Expected statistics joined through parent set")
	}
	if views[0].Statistics.Set != "STX" {
		t.Errorf("Expected statistics set STX, got %s", views[0].Statistics.Set)
	}
	if views[0].Statistics.WinRate == nil || *views[0].Statistics.WinRate != 0.55 {
		t.Errorf("Expected win rate 0.55, got %v", views[0].Statistics.WinRate)
	}
}
