package ratings

import (
	"fmt"

	"github.com/ramonehamilton/mtga-ratings-sync/internal/storage/models"
)

// Params controls one calculation run.
type Params struct {
	Sets           []string        `json:"sets"`
	Metric         Metric          `json:"metric"`
	CommentMetrics []CommentMetric `json:"comment_metrics"`
	Locale         string          `json:"locale"`

	// Clear produces requests that reset every card's rating and note.
	Clear bool `json:"clear"`
}

// UploadRequest is the rating and note to upload for one card.
type UploadRequest struct {
	IDArena int     `json:"id_arena"`
	Name    string  `json:"name"`
	Set     string  `json:"set"`
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

// Calculate builds the upload requests for the cards of params.Sets.
// views must hold the template rows of those sets joined with their statistics
// and custom overrides. In compute mode every requested set needs at least one
// eligible card, otherwise ErrNoEligibleCards is returned and nothing is produced.
func Calculate(views []models.CardView, params Params) ([]UploadRequest, error) {
	if params.Clear {
		return clearRequests(views)
	}

	if _, err := ParseMetric(string(params.Metric)); err != nil {
		return nil, err
	}

	deciles, err := setDeciles(views, params.Sets, params.Metric)
	if err != nil {
		return nil, err
	}

	formatter := NewFormatter(params.Locale)
	descending := params.Metric.Descending()

	requests := make([]UploadRequest, 0, len(views))
	for _, view := range views {
		bounds, ok := deciles[view.Set]
		if !ok {
			continue
		}

		req := UploadRequest{IDArena: view.IDArena, Name: view.Name, Set: view.Set}

		if value, eligible := eligibleValue(view, params.Metric); eligible {
			rating := Rate(value, bounds, descending)
			req.Rating = &rating
		}
		if view.Custom.HasRating() {
			rating := *view.Custom.Rating
			req.Rating = &rating
		}

		if view.Custom.HasNote() {
			note := *view.Custom.Note
			req.Comment = &note
		} else {
			req.Comment = formatter.Comment(view.Statistics, params.CommentMetrics)
		}

		requests = append(requests, req)
	}

	if len(requests) == 0 {
		return nil, ErrNoCards
	}
	return requests, nil
}

func clearRequests(views []models.CardView) ([]UploadRequest, error) {
	if len(views) == 0 {
		return nil, ErrNoCards
	}
	requests := make([]UploadRequest, 0, len(views))
	for _, view := range views {
		requests = append(requests, UploadRequest{IDArena: view.IDArena, Name: view.Name, Set: view.Set})
	}
	return requests, nil
}

// setDeciles computes the boundaries for each requested set.
func setDeciles(views []models.CardView, sets []string, metric Metric) (map[string][]float64, error) {
	values := make(map[string][]float64, len(sets))
	for _, set := range sets {
		values[set] = nil
	}
	for _, view := range views {
		if _, requested := values[view.Set]; !requested {
			continue
		}
		if value, ok := eligibleValue(view, metric); ok {
			values[view.Set] = append(values[view.Set], value)
		}
	}

	deciles := make(map[string][]float64, len(values))
	for _, set := range sets {
		if len(values[set]) == 0 {
			return nil, fmt.Errorf("%w in set %s for %s", ErrNoEligibleCards, set, metric)
		}
		deciles[set] = Deciles(DistinctSorted(values[set]))
	}
	return deciles, nil
}

// eligibleValue returns the metric value of a card that has been seen in drafts.
func eligibleValue(view models.CardView, metric Metric) (float64, bool) {
	if view.Statistics == nil || view.Statistics.SeenCount == nil {
		return 0, false
	}
	return metric.Value(view.Statistics)
}
