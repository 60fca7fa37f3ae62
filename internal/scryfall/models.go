package scryfall

import "strings"

// Set is one entry of the Scryfall set catalogue. Only the fields used for
// set metadata are decoded.
type Set struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	SetType       string `json:"set_type"`
	ReleasedAt    string `json:"released_at,omitempty"`
	ParentSetCode string `json:"parent_set_code,omitempty"`
	Digital       bool   `json:"digital"`
}

// SetList represents a list of sets from Scryfall.
type SetList struct {
	Object  string `json:"object"`
	HasMore bool   `json:"has_more"`
	Data    []Set  `json:"data"`
}

// Set type bits stored in Sets.type. Unknown set types map to 0.
const (
	TypeCore int64 = 1 << iota
	TypeExpansion
	TypeMasters
	TypeAlchemy
	TypeMasterpiece
	TypeArsenal
	TypeFromTheVault
	TypeSpellbook
	TypePremiumDeck
	TypeDuelDeck
	TypeDraftInnovation
	TypeTreasureChest
	TypeCommander
	TypePlanechase
	TypeArchenemy
	TypeVanguard
	TypeFunny
	TypeStarter
	TypeBox
)

var setTypes = map[string]int64{
	"core":             TypeCore,
	"expansion":        TypeExpansion,
	"masters":          TypeMasters,
	"alchemy":          TypeAlchemy,
	"masterpiece":      TypeMasterpiece,
	"arsenal":          TypeArsenal,
	"from_the_vault":   TypeFromTheVault,
	"spellbook":        TypeSpellbook,
	"premium_deck":     TypePremiumDeck,
	"duel_deck":        TypeDuelDeck,
	"draft_innovation": TypeDraftInnovation,
	"treasure_chest":   TypeTreasureChest,
	"commander":        TypeCommander,
	"planechase":       TypePlanechase,
	"archenemy":        TypeArchenemy,
	"vanguard":         TypeVanguard,
	"funny":            TypeFunny,
	"starter":          TypeStarter,
	"box":              TypeBox,
}

// SetTypeMask converts a Scryfall set_type to its bit.
func SetTypeMask(setType string) int64 {
	return setTypes[strings.ToLower(setType)]
}

// Error types for the Scryfall API.
const (
	ErrRateLimited = "rate_limited"
	ErrUnavailable = "unavailable"
	ErrParseError  = "parse_error"
)

// APIError represents an error from the Scryfall API.
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

// errorBody is the Scryfall error object.
type errorBody struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Details string `json:"details"`
}
