package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ramonehamilton/mtga-ratings-sync/internal/storage/models"
)

// SetRepository provides access to the Sets table.
type SetRepository interface {
	// List returns every known set ordered by release date, newest first.
	List(ctx context.Context) ([]models.Set, error)

	// Get returns a set by code, or nil if it does not exist.
	Get(ctx context.Context, code string) (*models.Set, error)

	// Codes returns the codes of all known sets.
	Codes(ctx context.Context) (map[string]bool, error)

	// InsertSkeleton inserts a set with only its code populated.
	InsertSkeleton(ctx context.Context, code string) error

	// Pending returns codes of sets still missing name, type or release date.
	Pending(ctx context.Context) ([]string, error)

	// UpdateMetadata stores catalogue metadata for a set. A nil parent clears it.
	UpdateMetadata(ctx context.Context, set models.Set) error
}

type setRepository struct {
	db Querier
}

// NewSetRepository creates a new set repository.
func NewSetRepository(db Querier) SetRepository {
	return &setRepository{db: db}
}

func (r *setRepository) List(ctx context.Context) ([]models.Set, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, type, release_date, parent_set
		FROM Sets
		ORDER BY release_date IS NULL, release_date DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sets []models.Set
	for rows.Next() {
		set, err := scanSet(rows)
		if err != nil {
			return nil, err
		}
		sets = append(sets, *set)
	}
	return sets, rows.Err()
}

func (r *setRepository) Get(ctx context.Context, code string) (*models.Set, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, type, release_date, parent_set
		FROM Sets
		WHERE id = ?
	`, code)

	set, err := scanSet(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return set, err
}

func (r *setRepository) Codes(ctx context.Context) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM Sets`)
	if err != nil {
		return nil, fmt.Errorf("failed to query set codes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	codes := make(map[string]bool)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan set code: %w", err)
		}
		codes[code] = true
	}
	return codes, rows.Err()
}

func (r *setRepository) InsertSkeleton(ctx context.Context, code string) error {
	if _, err := r.db.ExecContext(ctx, `INSERT INTO Sets (id) VALUES (?)`, code); err != nil {
		return fmt.Errorf("failed to insert set %s: %w", code, err)
	}
	return nil
}

func (r *setRepository) Pending(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id FROM Sets
		WHERE name IS NULL OR type IS NULL OR release_date IS NULL
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending sets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan pending set: %w", err)
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

func (r *setRepository) UpdateMetadata(ctx context.Context, set models.Set) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE Sets
		SET name = ?, type = ?, release_date = ?, parent_set = ?
		WHERE id = ?
	`, nullString(set.Name), nullInt64(set.Type), nullString(set.ReleaseDate), nullString(set.ParentSet), set.Code)
	if err != nil {
		return fmt.Errorf("failed to update set %s: %w", set.Code, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSet(row rowScanner) (*models.Set, error) {
	var (
		set         models.Set
		name        sql.NullString
		setType     sql.NullInt64
		releaseDate sql.NullString
		parent      sql.NullString
	)
	if err := row.Scan(&set.Code, &name, &setType, &releaseDate, &parent); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan set: %w", err)
	}
	set.Name = stringPtr(name)
	set.Type = int64Ptr(setType)
	set.ReleaseDate = stringPtr(releaseDate)
	set.ParentSet = stringPtr(parent)
	return &set, nil
}
