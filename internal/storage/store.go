package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ramonehamilton/mtga-ratings-sync/internal/storage/repository"
)

// Repositories bundles the repositories bound to one connection or transaction.
type Repositories struct {
	Sets          repository.SetRepository
	Ratings       repository.RatingRepository
	Statistics    repository.StatisticsRepository
	CustomRatings repository.CustomRatingRepository
}

func newRepositories(q repository.Querier) Repositories {
	return Repositories{
		Sets:          repository.NewSetRepository(q),
		Ratings:       repository.NewRatingRepository(q),
		Statistics:    repository.NewStatisticsRepository(q),
		CustomRatings: repository.NewCustomRatingRepository(q),
	}
}

// Store provides the repositories over an open database.
type Store struct {
	db *DB
	Repositories
}

// NewStore creates a store over an already opened and migrated database.
func NewStore(db *DB) *Store {
	return &Store{
		db:           db,
		Repositories: newRepositories(db.Conn()),
	}
}

// OpenStore opens the database at path, creating the schema if needed.
func OpenStore(path string) (*Store, error) {
	config := DefaultConfig(path)
	config.AutoMigrate = true

	db, err := Open(config)
	if err != nil {
		return nil, err
	}
	return NewStore(db), nil
}

// Update runs fn with repositories bound to a single transaction.
// Any error returned by fn rolls the whole batch back.
func (s *Store) Update(ctx context.Context, fn func(Repositories) error) error {
	return s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		return fn(newRepositories(tx))
	})
}

// DB returns the underlying database.
func (s *Store) DB() *DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}
	return nil
}
