package events

// Signal names emitted by the synchronization worker. Every operation ends in
// exactly one success or failure signal.
const (
	Initialised          = "initialised"
	InitialisationFailed = "initialisationFailed"

	LoggedIn     = "loggedIn"
	LoginFailed  = "loginFailed"
	LoggedOut    = "loggedOut"
	LogoutFailed = "logoutFailed"

	SetsMTGAH                  = "setsMTGAH"
	DownloadSetsMTGAHFailed    = "downloadSetsMTGAHFailed"
	SetsScryfall               = "setsScryfall"
	DownloadSetsScryfallFailed = "downloadSetsScryfallFailed"

	CustomRatingTemplate       = "customRatingTemplate"
	CustomRatingTemplateFailed = "customRatingTemplateFailed"

	Downloaded17LRatings    = "downloaded17LRatings"
	Failed17LRatings        = "failed17LRatings"
	DownloadedAll17LRatings = "downloadedAll17LRatings"

	RatingCalculated        = "ratingCalculated"
	RatingsCalculated       = "ratingsCalculated"
	FailedRatingCalculation = "failedRatingCalculation"

	RatingUploaded     = "ratingUploaded"
	RatingUploadFailed = "ratingUploadFailed"
	AllRatingsUploaded = "allRatingsUploaded"
	UploadCancelled    = "uploadCancelled"

	CustomRatingSaved  = "customRatingSaved"
	CustomRatingFailed = "customRatingFailed"

	BackedUp     = "backedUp"
	BackupFailed = "backupFailed"
)

// FailureEvent is the payload of the failure signals that carry only a message.
type FailureEvent struct {
	Error string `json:"error"`
}

// InitialisedEvent is the payload for initialised events.
type InitialisedEvent struct {
	Path string `json:"path"` // Database file
}

// LoggedInEvent is the payload for loggedIn events.
type LoggedInEvent struct {
	Username string `json:"username"`
}

// LoggedOutEvent is the payload for loggedOut events.
type LoggedOutEvent struct{}

// NeedsUpdateEvent is the payload for setsMTGAH, setsScryfall and
// customRatingTemplate. NeedsUpdate is true when the stage changed local data.
type NeedsUpdateEvent struct {
	NeedsUpdate bool `json:"needsUpdate"`
}

// SetEvent is the payload for downloaded17LRatings and failed17LRatings.
type SetEvent struct {
	BatchID string `json:"batchId"`
	Set     string `json:"set"`
	Cards   int    `json:"cards,omitempty"` // Rows stored
	Error   string `json:"error,omitempty"`
}

// BatchEvent is the payload for the batch-level signals: downloadedAll17LRatings,
// ratingsCalculated, allRatingsUploaded and uploadCancelled.
type BatchEvent struct {
	BatchID string `json:"batchId"`
	Total   int    `json:"total"`
}

// CardEvent is the payload for ratingCalculated, ratingUploaded and ratingUploadFailed.
type CardEvent struct {
	BatchID string  `json:"batchId"`
	IDArena int     `json:"idArena"`
	Name    string  `json:"name"`
	Set     string  `json:"set"`
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
	Attempt int     `json:"attempt,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// CustomRatingEvent is the payload for customRatingSaved and customRatingFailed.
type CustomRatingEvent struct {
	IDArena int    `json:"idArena"`
	Deleted bool   `json:"deleted,omitempty"`
	Error   string `json:"error,omitempty"`
}

// BackupEvent is the payload for backedUp.
type BackupEvent struct {
	Path string `json:"path"`
}
