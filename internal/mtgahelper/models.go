package mtgahelper

import "errors"

// SetsResponse is the payload of GET /api/Misc/Sets.
type SetsResponse struct {
	Sets []SetEntry `json:"sets"`
}

// SetEntry is one set known to MTGA Helper. The name is the set code in
// whatever case the service returns.
type SetEntry struct {
	Name string `json:"name"`
}

// SignInResponse is the payload of GET /api/Account/Signin.
type SignInResponse struct {
	IsAuthenticated bool `json:"isAuthenticated"`
}

// CardRef identifies the card of a custom rating.
type CardRef struct {
	IDArena int    `json:"idArena"`
	Set     string `json:"set"`
	Name    string `json:"name"`
}

// CustomDraftRating is one row of the user's rating template.
type CustomDraftRating struct {
	Card   CardRef `json:"card"`
	Rating *int    `json:"rating"`
	Note   *string `json:"note"`
}

// CustomDraftRatingUpdate is the body of PUT /api/User/CustomDraftRating.
// Null rating or note clears the stored value.
type CustomDraftRatingUpdate struct {
	IDArena int     `json:"idArena"`
	Rating  *int    `json:"rating"`
	Note    *string `json:"note"`
}

var (
	// ErrMissingCredentials is returned by SignIn before any request is made.
	ErrMissingCredentials = errors.New("username and password are required")

	// ErrNotAuthenticated is returned when the service rejects the credentials.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// Error types for the MTGA Helper API
const (
	ErrUnavailable  = "unavailable"
	ErrInvalidParam = "invalid_params"
	ErrParseError   = "parse_error"
	ErrCircuitOpen  = "circuit_open"
)

// APIError represents an error from the MTGA Helper API.
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
