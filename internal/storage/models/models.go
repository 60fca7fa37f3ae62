package models

import "time"

// NotRated is the CustomRating.Rating sentinel meaning "no override".
const NotRated = -1

// Set represents one card set tracked by MTGA Helper.
// Name, Type and ReleaseDate stay nil until Scryfall metadata has been applied.
type Set struct {
	Code        string  `json:"code"`
	Name        *string `json:"name,omitempty"`
	Type        *int64  `json:"type,omitempty"`         // SetType bitmask
	ReleaseDate *string `json:"release_date,omitempty"` // YYYY-MM-DD
	ParentSet   *string `json:"parent_set,omitempty"`   // Set whose statistics apply to this one
}

// StatisticsSet returns the set code whose 17Lands statistics apply to this set.
func (s Set) StatisticsSet() string {
	if s.ParentSet != nil && *s.ParentSet != "" {
		return *s.ParentSet
	}
	return s.Code
}

// Rating represents the rating template row for one Arena card.
type Rating struct {
	IDArena int     `json:"id_arena"`
	Set     string  `json:"set"`
	Name    string  `json:"name"`
	Rating  *int    `json:"rating,omitempty"` // 0-10, nil when unrated
	Note    *string `json:"note,omitempty"`
}

// CardStatistics holds the 17Lands card_ratings metrics for one card of a set.
// Every metric is nullable; 17Lands omits values it has too few samples for.
type CardStatistics struct {
	Set  string `json:"set"`
	Name string `json:"name"`

	SeenCount *int64   `json:"seen_count,omitempty"`
	AvgSeen   *float64 `json:"avg_seen,omitempty"`
	PickCount *int64   `json:"pick_count,omitempty"`
	AvgPick   *float64 `json:"avg_pick,omitempty"`
	GameCount *int64   `json:"game_count,omitempty"`
	WinRate   *float64 `json:"win_rate,omitempty"`

	OpeningHandGameCount    *int64   `json:"opening_hand_game_count,omitempty"`
	OpeningHandWinRate      *float64 `json:"opening_hand_win_rate,omitempty"`
	DrawnGameCount          *int64   `json:"drawn_game_count,omitempty"`
	DrawnWinRate            *float64 `json:"drawn_win_rate,omitempty"`
	EverDrawnGameCount      *int64   `json:"ever_drawn_game_count,omitempty"`
	EverDrawnWinRate        *float64 `json:"ever_drawn_win_rate,omitempty"`
	NeverDrawnGameCount     *int64   `json:"never_drawn_game_count,omitempty"`
	NeverDrawnWinRate       *float64 `json:"never_drawn_win_rate,omitempty"`
	DrawnImprovementWinRate *float64 `json:"drawn_improvement_win_rate,omitempty"`

	LastUpdate time.Time `json:"last_update"`
}

// CustomRating is a user override for one Arena card.
type CustomRating struct {
	IDArena int     `json:"id_arena"`
	Rating  *int    `json:"rating,omitempty"`
	Note    *string `json:"note,omitempty"`
}

// HasRating reports whether the override carries a usable rating.
func (c *CustomRating) HasRating() bool {
	return c != nil && c.Rating != nil && *c.Rating != NotRated
}

// HasNote reports whether the override carries a non-empty note.
func (c *CustomRating) HasNote() bool {
	return c != nil && c.Note != nil && *c.Note != ""
}

// IsEmpty reports whether the override carries neither a rating nor a note.
func (c *CustomRating) IsEmpty() bool {
	return !c.HasRating() && !c.HasNote()
}
