package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ramonehamilton/mtga-ratings-sync/internal/storage/models"
)

// StatisticsRepository provides access to the SLRatings table.
type StatisticsRepository interface {
	// Upsert inserts or replaces the statistics row for (set, name).
	Upsert(ctx context.Context, stats models.CardStatistics) error

	// ListBySet returns all statistics rows for a set ordered by name.
	ListBySet(ctx context.Context, set string) ([]models.CardStatistics, error)

	// Count returns the number of statistics rows for a set.
	Count(ctx context.Context, set string) (int, error)
}

type statisticsRepository struct {
	db Querier
}

// NewStatisticsRepository creates a new statistics repository.
func NewStatisticsRepository(db Querier) StatisticsRepository {
	return &statisticsRepository{db: db}
}

func (r *statisticsRepository) Upsert(ctx context.Context, s models.CardStatistics) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO SLRatings (
			set_code, name, seen_count, avg_seen, pick_count, avg_pick,
			game_count, win_rate,
			opening_hand_game_count, opening_hand_win_rate,
			drawn_game_count, drawn_win_rate,
			ever_drawn_game_count, ever_drawn_win_rate,
			never_drawn_game_count, never_drawn_win_rate,
			drawn_improvement_win_rate, last_update
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(set_code, name) DO UPDATE SET
			seen_count = excluded.seen_count,
			avg_seen = excluded.avg_seen,
			pick_count = excluded.pick_count,
			avg_pick = excluded.avg_pick,
			game_count = excluded.game_count,
			win_rate = excluded.win_rate,
			opening_hand_game_count = excluded.opening_hand_game_count,
			opening_hand_win_rate = excluded.opening_hand_win_rate,
			drawn_game_count = excluded.drawn_game_count,
			drawn_win_rate = excluded.drawn_win_rate,
			ever_drawn_game_count = excluded.ever_drawn_game_count,
			ever_drawn_win_rate = excluded.ever_drawn_win_rate,
			never_drawn_game_count = excluded.never_drawn_game_count,
			never_drawn_win_rate = excluded.never_drawn_win_rate,
			drawn_improvement_win_rate = excluded.drawn_improvement_win_rate,
			last_update = excluded.last_update
	`,
		s.Set, s.Name,
		nullInt64(s.SeenCount), nullFloat(s.AvgSeen),
		nullInt64(s.PickCount), nullFloat(s.AvgPick),
		nullInt64(s.GameCount), nullFloat(s.WinRate),
		nullInt64(s.OpeningHandGameCount), nullFloat(s.OpeningHandWinRate),
		nullInt64(s.DrawnGameCount), nullFloat(s.DrawnWinRate),
		nullInt64(s.EverDrawnGameCount), nullFloat(s.EverDrawnWinRate),
		nullInt64(s.NeverDrawnGameCount), nullFloat(s.NeverDrawnWinRate),
		nullFloat(s.DrawnImprovementWinRate),
		s.LastUpdate,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert statistics for %s/%s: %w", s.Set, s.Name, err)
	}
	return nil
}

func (r *statisticsRepository) ListBySet(ctx context.Context, set string) ([]models.CardStatistics, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, seen_count, avg_seen, pick_count, avg_pick,
			game_count, win_rate,
			opening_hand_game_count, opening_hand_win_rate,
			drawn_game_count, drawn_win_rate,
			ever_drawn_game_count, ever_drawn_win_rate,
			never_drawn_game_count, never_drawn_win_rate,
			drawn_improvement_win_rate, last_update
		FROM SLRatings
		WHERE set_code = ?
		ORDER BY name
	`, set)
	if err != nil {
		return nil, fmt.Errorf("failed to query statistics: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []models.CardStatistics
	for rows.Next() {
		var (
			name       string
			cols       statisticsColumns
			lastUpdate sql.NullTime
		)
		dest := append([]any{&name}, cols.dest()...)
		dest = append(dest, &lastUpdate)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan statistics: %w", err)
		}
		stats := cols.toModel(set, name)
		if lastUpdate.Valid {
			stats.LastUpdate = lastUpdate.Time
		}
		result = append(result, stats)
	}
	return result, rows.Err()
}

func (r *statisticsRepository) Count(ctx context.Context, set string) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM SLRatings WHERE set_code = ?`, set).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count statistics: %w", err)
	}
	return count, nil
}
