// Package ratings turns 17Lands card statistics into decile-based 0-10 ratings
// and short comment strings for upload to MTGA Helper.
package ratings

import (
	"fmt"

	"github.com/ramonehamilton/mtga-ratings-sync/internal/storage/models"
)

// Metric names one of the SLRatings statistics columns.
type Metric string

const (
	SeenCount               Metric = "seen_count"
	AvgSeen                 Metric = "avg_seen"
	PickCount               Metric = "pick_count"
	AvgPick                 Metric = "avg_pick"
	GameCount               Metric = "game_count"
	WinRate                 Metric = "win_rate"
	OpeningHandGameCount    Metric = "opening_hand_game_count"
	OpeningHandWinRate      Metric = "opening_hand_win_rate"
	DrawnGameCount          Metric = "drawn_game_count"
	DrawnWinRate            Metric = "drawn_win_rate"
	EverDrawnGameCount      Metric = "ever_drawn_game_count"
	EverDrawnWinRate        Metric = "ever_drawn_win_rate"
	NeverDrawnGameCount     Metric = "never_drawn_game_count"
	NeverDrawnWinRate       Metric = "never_drawn_win_rate"
	DrawnImprovementWinRate Metric = "drawn_improvement_win_rate"
)

// Kind determines how a metric value is formatted in comments.
type Kind int

const (
	KindCount Kind = iota
	KindAverage
	KindWinRate
)

var metricKinds = map[Metric]Kind{
	SeenCount:               KindCount,
	AvgSeen:                 KindAverage,
	PickCount:               KindCount,
	AvgPick:                 KindAverage,
	GameCount:               KindCount,
	WinRate:                 KindWinRate,
	OpeningHandGameCount:    KindCount,
	OpeningHandWinRate:      KindWinRate,
	DrawnGameCount:          KindCount,
	DrawnWinRate:            KindWinRate,
	EverDrawnGameCount:      KindCount,
	EverDrawnWinRate:        KindWinRate,
	NeverDrawnGameCount:     KindCount,
	NeverDrawnWinRate:       KindWinRate,
	DrawnImprovementWinRate: KindWinRate,
}

// AllMetrics lists every metric in SLRatings column order.
var AllMetrics = []Metric{
	SeenCount, AvgSeen, PickCount, AvgPick, GameCount, WinRate,
	OpeningHandGameCount, OpeningHandWinRate,
	DrawnGameCount, DrawnWinRate,
	EverDrawnGameCount, EverDrawnWinRate,
	NeverDrawnGameCount, NeverDrawnWinRate,
	DrawnImprovementWinRate,
}

// ParseMetric validates a metric name.
func ParseMetric(name string) (Metric, error) {
	m := Metric(name)
	if _, ok := metricKinds[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMetric, name)
	}
	return m, nil
}

// Kind returns the formatting kind of the metric.
func (m Metric) Kind() Kind {
	return metricKinds[m]
}

// Descending reports whether a lower value is better. Only the average pick
// position behaves this way: an early pick is a strong card.
func (m Metric) Descending() bool {
	return m == AvgPick
}

// Value extracts the metric from a statistics row. ok is false when the row is
// nil or the value is NULL.
func (m Metric) Value(s *models.CardStatistics) (value float64, ok bool) {
	if s == nil {
		return 0, false
	}

	var (
		i *int64
		f *float64
	)
	switch m {
	case SeenCount:
		i = s.SeenCount
	case AvgSeen:
		f = s.AvgSeen
	case PickCount:
		i = s.PickCount
	case AvgPick:
		f = s.AvgPick
	case GameCount:
		i = s.GameCount
	case WinRate:
		f = s.WinRate
	case OpeningHandGameCount:
		i = s.OpeningHandGameCount
	case OpeningHandWinRate:
		f = s.OpeningHandWinRate
	case DrawnGameCount:
		i = s.DrawnGameCount
	case DrawnWinRate:
		f = s.DrawnWinRate
	case EverDrawnGameCount:
		i = s.EverDrawnGameCount
	case EverDrawnWinRate:
		f = s.EverDrawnWinRate
	case NeverDrawnGameCount:
		i = s.NeverDrawnGameCount
	case NeverDrawnWinRate:
		f = s.NeverDrawnWinRate
	case DrawnImprovementWinRate:
		f = s.DrawnImprovementWinRate
	default:
		panic(fmt.Sprintf("ratings: unknown metric %q", string(m)))
	}

	switch {
	case i != nil:
		return float64(*i), true
	case f != nil:
		return *f, true
	default:
		return 0, false
	}
}
