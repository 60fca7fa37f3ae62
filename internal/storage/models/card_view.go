package models

// CardView joins a rating template row with the statistics of its statistics set
// and the user's override, if any.
type CardView struct {
	Rating

	// Statistics is nil when 17Lands has no row for the card.
	Statistics *CardStatistics `json:"statistics,omitempty"`

	// Custom is nil when the user has not overridden the card.
	Custom *CustomRating `json:"custom,omitempty"`
}

// RatingDistribution counts template rows per rating value for one set.
type RatingDistribution struct {
	Set     string  `json:"set"`
	Unrated int     `json:"unrated"`
	Counts  [11]int `json:"counts"` // index = rating 0-10
}

// Total returns the number of rows counted.
func (d RatingDistribution) Total() int {
	total := d.Unrated
	for _, c := range d.Counts {
		total += c
	}
	return total
}
