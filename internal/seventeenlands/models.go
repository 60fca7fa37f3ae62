package seventeenlands

// CardRating represents the card_ratings statistics of one card. Every field is
// nullable: 17Lands omits or nulls values it has too few samples for, and
// entries without a name are unusable.
type CardRating struct {
	Name *string `json:"name"`

	SeenCount *int64   `json:"seen_count"`
	AvgSeen   *float64 `json:"avg_seen"`
	PickCount *int64   `json:"pick_count"`
	AvgPick   *float64 `json:"avg_pick"`
	GameCount *int64   `json:"game_count"`
	WinRate   *float64 `json:"win_rate"`

	OpeningHandGameCount    *int64   `json:"opening_hand_game_count"`
	OpeningHandWinRate      *float64 `json:"opening_hand_win_rate"`
	DrawnGameCount          *int64   `json:"drawn_game_count"`
	DrawnWinRate            *float64 `json:"drawn_win_rate"`
	EverDrawnGameCount      *int64   `json:"ever_drawn_game_count"`
	EverDrawnWinRate        *float64 `json:"ever_drawn_win_rate"`
	NeverDrawnGameCount     *int64   `json:"never_drawn_game_count"`
	NeverDrawnWinRate       *float64 `json:"never_drawn_win_rate"`
	DrawnImprovementWinRate *float64 `json:"drawn_improvement_win_rate"`
}

// QueryParams holds parameters for 17Lands API queries.
type QueryParams struct {
	// Required parameters
	Expansion string // Set code (e.g., "BLB", "MKM")
	Format    string // Format (e.g., "PremierDraft", "QuickDraft", "TradDraft")

	// Optional parameters
	StartDate string // YYYY-MM-DD format
	EndDate   string // YYYY-MM-DD format
}

// Error types for 17Lands API
const (
	ErrRateLimited   = "rate_limited"
	ErrUnavailable   = "unavailable"
	ErrInvalidParams = "invalid_params"
	ErrParseError    = "parse_error"
)

// APIError represents an error from the 17Lands API.
type APIError struct {
	Type       string
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}
