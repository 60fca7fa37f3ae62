package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ramonehamilton/mtga-ratings-sync/internal/storage/models"
)

// RatingRepository provides access to the Ratings template table.
type RatingRepository interface {
	// Get returns the template row for a card, or nil if it does not exist.
	Get(ctx context.Context, idArena int) (*models.Rating, error)

	// Upsert inserts or replaces the template row for a card.
	Upsert(ctx context.Context, rating models.Rating) error

	// ListBySets returns template rows for the given sets ordered by set and name.
	ListBySets(ctx context.Context, sets []string) ([]models.Rating, error)

	// ListCardViews returns template rows joined with statistics (through the
	// set's parent when present) and custom overrides.
	ListCardViews(ctx context.Context, sets []string) ([]models.CardView, error)

	// Distribution counts template rows per rating for a set.
	Distribution(ctx context.Context, set string) (*models.RatingDistribution, error)
}

type ratingRepository struct {
	db Querier
}

// NewRatingRepository creates a new rating repository.
func NewRatingRepository(db Querier) RatingRepository {
	return &ratingRepository{db: db}
}

func (r *ratingRepository) Get(ctx context.Context, idArena int) (*models.Rating, error) {
	var (
		rating models.Rating
		value  sql.NullInt64
		note   sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id_arena, set_code, name, rating, note
		FROM Ratings
		WHERE id_arena = ?
	`, idArena).Scan(&rating.IDArena, &rating.Set, &rating.Name, &value, &note)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rating %d: %w", idArena, err)
	}
	rating.Rating = intPtr(value)
	rating.Note = stringPtr(note)
	return &rating, nil
}

func (r *ratingRepository) Upsert(ctx context.Context, rating models.Rating) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO Ratings (id_arena, set_code, name, rating, note)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id_arena) DO UPDATE SET
			set_code = excluded.set_code,
			name = excluded.name,
			rating = excluded.rating,
			note = excluded.note
	`, rating.IDArena, rating.Set, rating.Name, nullInt(rating.Rating), nullString(rating.Note))
	if err != nil {
		return fmt.Errorf("failed to upsert rating %d: %w", rating.IDArena, err)
	}
	return nil
}

func (r *ratingRepository) ListBySets(ctx context.Context, sets []string) ([]models.Rating, error) {
	if len(sets) == 0 {
		return nil, nil
	}

	in, args := inClause(sets)
	rows, err := r.db.QueryContext(ctx, `
		SELECT id_arena, set_code, name, rating, note
		FROM Ratings
		WHERE set_code IN (`+in+`)
		ORDER BY set_code, name, id_arena
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ratings []models.Rating
	for rows.Next() {
		var (
			rating models.Rating
			value  sql.NullInt64
			note   sql.NullString
		)
		if err := rows.Scan(&rating.IDArena, &rating.Set, &rating.Name, &value, &note); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		rating.Rating = intPtr(value)
		rating.Note = stringPtr(note)
		ratings = append(ratings, rating)
	}
	return ratings, rows.Err()
}

func (r *ratingRepository) ListCardViews(ctx context.Context, sets []string) ([]models.CardView, error) {
	if len(sets) == 0 {
		return nil, nil
	}

	in, args := inClause(sets)
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.id_arena, r.set_code, r.name, r.rating, r.note,
			sl.set_code, sl.seen_count, sl.avg_seen, sl.pick_count, sl.avg_pick,
			sl.game_count, sl.win_rate,
			sl.opening_hand_game_count, sl.opening_hand_win_rate,
			sl.drawn_game_count, sl.drawn_win_rate,
			sl.ever_drawn_game_count, sl.ever_drawn_win_rate,
			sl.never_drawn_game_count, sl.never_drawn_win_rate,
			sl.drawn_improvement_win_rate, sl.last_update,
			c.id_arena, c.rating, c.note
		FROM Ratings r
		LEFT JOIN Sets s ON s.id = r.set_code
		LEFT JOIN SLRatings sl
			ON sl.set_code = COALESCE(NULLIF(s.parent_set, ''), r.set_code)
			AND sl.name = r.name
		LEFT JOIN CustomRatings c ON c.id_arena = r.id_arena
		WHERE r.set_code IN (`+in+`)
		ORDER BY r.set_code, r.name, r.id_arena
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query card views: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var views []models.CardView
	for rows.Next() {
		var (
			view         models.CardView
			value        sql.NullInt64
			note         sql.NullString
			statsSet     sql.NullString
			stats        statisticsColumns
			lastUpdate   sql.NullTime
			customID     sql.NullInt64
			customRating sql.NullInt64
			customNote   sql.NullString
		)
		dest := []any{&view.IDArena, &view.Set, &view.Name, &value, &note, &statsSet}
		dest = append(dest, stats.dest()...)
		dest = append(dest, &lastUpdate, &customID, &customRating, &customNote)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan card view: %w", err)
		}

		view.Rating.Rating = intPtr(value)
		view.Note = stringPtr(note)

		if statsSet.Valid {
			s := stats.toModel(statsSet.String, view.Name)
			if lastUpdate.Valid {
				s.LastUpdate = lastUpdate.Time
			}
			view.Statistics = &s
		}

		if customID.Valid {
			view.Custom = &models.CustomRating{
				IDArena: int(customID.Int64),
				Rating:  intPtr(customRating),
				Note:    stringPtr(customNote),
			}
		}

		views = append(views, view)
	}
	return views, rows.Err()
}

func (r *ratingRepository) Distribution(ctx context.Context, set string) (*models.RatingDistribution, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT rating, COUNT(*)
		FROM Ratings
		WHERE set_code = ?
		GROUP BY rating
	`, set)
	if err != nil {
		return nil, fmt.Errorf("failed to query rating distribution: %w", err)
	}
	defer func() { _ = rows.Close() }()

	dist := &models.RatingDistribution{Set: set}
	for rows.Next() {
		var (
			value sql.NullInt64
			count int
		)
		if err := rows.Scan(&value, &count); err != nil {
			return nil, fmt.Errorf("failed to scan rating distribution: %w", err)
		}
		if !value.Valid || value.Int64 < 0 || value.Int64 >= int64(len(dist.Counts)) {
			dist.Unrated += count
			continue
		}
		dist.Counts[value.Int64] += count
	}
	return dist, rows.Err()
}

// statisticsColumns scans the 15 nullable SLRatings metric columns in table order.
type statisticsColumns struct {
	seenCount               sql.NullInt64
	avgSeen                 sql.NullFloat64
	pickCount               sql.NullInt64
	avgPick                 sql.NullFloat64
	gameCount               sql.NullInt64
	winRate                 sql.NullFloat64
	openingHandGameCount    sql.NullInt64
	openingHandWinRate      sql.NullFloat64
	drawnGameCount          sql.NullInt64
	drawnWinRate            sql.NullFloat64
	everDrawnGameCount      sql.NullInt64
	everDrawnWinRate        sql.NullFloat64
	neverDrawnGameCount     sql.NullInt64
	neverDrawnWinRate       sql.NullFloat64
	drawnImprovementWinRate sql.NullFloat64
}

func (c *statisticsColumns) dest() []any {
	return []any{
		&c.seenCount, &c.avgSeen, &c.pickCount, &c.avgPick,
		&c.gameCount, &c.winRate,
		&c.openingHandGameCount, &c.openingHandWinRate,
		&c.drawnGameCount, &c.drawnWinRate,
		&c.everDrawnGameCount, &c.everDrawnWinRate,
		&c.neverDrawnGameCount, &c.neverDrawnWinRate,
		&c.drawnImprovementWinRate,
	}
}

func (c *statisticsColumns) toModel(set, name string) models.CardStatistics {
	return models.CardStatistics{
		Set:                     set,
		Name:                    name,
		SeenCount:               int64Ptr(c.seenCount),
		AvgSeen:                 floatPtr(c.avgSeen),
		PickCount:               int64Ptr(c.pickCount),
		AvgPick:                 floatPtr(c.avgPick),
		GameCount:               int64Ptr(c.gameCount),
		WinRate:                 floatPtr(c.winRate),
		OpeningHandGameCount:    int64Ptr(c.openingHandGameCount),
		OpeningHandWinRate:      floatPtr(c.openingHandWinRate),
		DrawnGameCount:          int64Ptr(c.drawnGameCount),
		DrawnWinRate:            floatPtr(c.drawnWinRate),
		EverDrawnGameCount:      int64Ptr(c.everDrawnGameCount),
		EverDrawnWinRate:        floatPtr(c.everDrawnWinRate),
		NeverDrawnGameCount:     int64Ptr(c.neverDrawnGameCount),
		NeverDrawnWinRate:       floatPtr(c.neverDrawnWinRate),
		DrawnImprovementWinRate: floatPtr(c.drawnImprovementWinRate),
	}
}
