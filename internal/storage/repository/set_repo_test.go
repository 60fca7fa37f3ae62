package repository

import (
	"context"
	"testing"

	"github.com/ramonehamilton/mtga-ratings-sync/internal/storage/models"
)

func TestSetRepository_InsertAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSetRepository(db)
	ctx := context.Background()

	if err := repo.InsertSkeleton(ctx, "DOM"); err != nil {
		t.Fatalf("Failed to insert set: %v", err)
	}

	set, err := repo.Get(ctx, "DOM")
	if err != nil {
		t.Fatalf("Failed to get set: %v", err)
	}
	if set == nil {
		t.Fatal("Expected set, got nil")
	}
	if set.Name != nil || set.Type != nil || set.ReleaseDate != nil || set.ParentSet != nil {
		t.Errorf("Expected skeleton set, got %+v", set)
	}

	missing, err := repo.Get(ctx, "XYZ")
	if err != nil {
		t.Fatalf("Failed to get missing set: %v", err)
	}
	if missing != nil {
		t.Errorf("Expected nil for missing set, got %+v", missing)
	}
}

func TestSetRepository_InsertDuplicateFails(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSetRepository(db)
	ctx := context.Background()

	if err := repo.InsertSkeleton(ctx, "DOM"); err != nil {
		t.Fatalf("Failed to insert set: %v", err)
	}
	if err := repo.InsertSkeleton(ctx, "DOM"); err == nil {
		t.Error("Expected duplicate insert to fail")
	}
}

func TestSetRepository_PendingAndUpdate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSetRepository(db)
	ctx := context.Background()

	for _, code := range []string{"M19", "DOM"} {
		if err := repo.InsertSkeleton(ctx, code); err != nil {
			t.Fatalf("Failed to insert set %s: %v", code, err)
		}
	}

	pending, err := repo.Pending(ctx)
	if err != nil {
		t.Fatalf("Failed to get pending sets: %v", err)
	}
	if len(pending) != 2 || pending[0] != "DOM" || pending[1] != "M19" {
		t.Errorf("Expected [DOM M19], got %v", pending)
	}

	setType := int64(1)
	err = repo.UpdateMetadata(ctx, models.Set{
		Code:        "DOM",
		Name:        strPtr("Dominaria"),
		Type:        &setType,
		ReleaseDate: strPtr("2018-04-27"),
	})
	if err != nil {
		t.Fatalf("Failed to update set: %v", err)
	}

	pending, err = repo.Pending(ctx)
	if err != nil {
		t.Fatalf("Failed to get pending sets: %v", err)
	}
	if len(pending) != 1 || pending[0] != "M19" {
		t.Errorf("Expected [M19], got %v", pending)
	}

	set, err := repo.Get(ctx, "DOM")
	if err != nil {
		t.Fatalf("Failed to get set: %v", err)
	}
	if set.Name == nil || *set.Name != "Dominaria" {
		t.Errorf("Expected name Dominaria, got %v", set.Name)
	}
	if set.StatisticsSet() != "DOM" {
		t.Errorf("Expected statistics set DOM, got %s", set.StatisticsSet())
	}
}

func TestSetRepository_ListOrdersByReleaseDate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSetRepository(db)
	ctx := context.Background()

	for _, code := range []string{"AAA", "BBB", "CCC"} {
		if err := repo.InsertSkeleton(ctx, code); err != nil {
			t.Fatalf("Failed to insert set %s: %v", code, err)
		}
	}
	_ = repo.UpdateMetadata(ctx, models.Set{Code: "AAA", ReleaseDate: strPtr("2019-01-01")})
	_ = repo.UpdateMetadata(ctx, models.Set{Code: "BBB", ReleaseDate: strPtr("2021-01-01")})

	sets, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("Failed to list sets: %v", err)
	}
	if len(sets) != 3 {
		t.Fatalf("Expected 3 sets, got %d", len(sets))
	}
	got := []string{sets[0].Code, sets[1].Code, sets[2].Code}
	want := []string{"BBB", "AAA", "CCC"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected order %v, got %v", want, got)
			break
		}
	}
}
