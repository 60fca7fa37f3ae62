package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ramonehamilton/mtga-ratings-sync/internal/storage/models"
)

// CustomRatingRepository provides access to the CustomRatings table.
type CustomRatingRepository interface {
	// Get returns the override for a card, or nil if there is none.
	Get(ctx context.Context, idArena int) (*models.CustomRating, error)

	// Save upserts the override, or deletes it when it carries neither a rating
	// nor a note. Returns true when the row was deleted.
	Save(ctx context.Context, custom models.CustomRating) (deleted bool, err error)
}

type customRatingRepository struct {
	db Querier
}

// NewCustomRatingRepository creates a new custom rating repository.
func NewCustomRatingRepository(db Querier) CustomRatingRepository {
	return &customRatingRepository{db: db}
}

func (r *customRatingRepository) Get(ctx context.Context, idArena int) (*models.CustomRating, error) {
	var (
		custom models.CustomRating
		rating sql.NullInt64
		note   sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id_arena, rating, note FROM CustomRatings WHERE id_arena = ?
	`, idArena).Scan(&custom.IDArena, &rating, &note)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get custom rating %d: %w", idArena, err)
	}
	custom.Rating = intPtr(rating)
	custom.Note = stringPtr(note)
	return &custom, nil
}

func (r *customRatingRepository) Save(ctx context.Context, custom models.CustomRating) (bool, error) {
	if custom.IsEmpty() {
		if _, err := r.db.ExecContext(ctx, `DELETE FROM CustomRatings WHERE id_arena = ?`, custom.IDArena); err != nil {
			return false, fmt.Errorf("failed to delete custom rating %d: %w", custom.IDArena, err)
		}
		return true, nil
	}

	// Store the sentinel and empty notes as NULL so a row never carries a dead value.
	rating := custom.Rating
	if !custom.HasRating() {
		rating = nil
	}
	note := custom.Note
	if !custom.HasNote() {
		note = nil
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO CustomRatings (id_arena, rating, note)
		VALUES (?, ?, ?)
		ON CONFLICT(id_arena) DO UPDATE SET
			rating = excluded.rating,
			note = excluded.note
	`, custom.IDArena, nullInt(rating), nullString(note))
	if err != nil {
		return false, fmt.Errorf("failed to save custom rating %d: %w", custom.IDArena, err)
	}
	return false, nil
}
