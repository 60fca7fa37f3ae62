package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/mtga-ratings-sync/internal/api/response"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/charts"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/storage/models"
)

// SetHandler handles the set and card rating read endpoints.
type SetHandler struct {
	worker Worker
}

// NewSetHandler creates a new SetHandler.
func NewSetHandler(w Worker) *SetHandler {
	return &SetHandler{worker: w}
}

// CustomRatingRequest is the body of a custom rating update. Sending neither
// a rating nor a note removes the override.
type CustomRatingRequest struct {
	Rating *int    `json:"rating"`
	Note   *string `json:"note"`
}

func setCode(r *http.Request) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "code")))
	if code == "" {
		return "", errors.New("set code is required")
	}
	return code, nil
}

// GetSets returns every known set, newest first.
func (h *SetHandler) GetSets(w http.ResponseWriter, r *http.Request) {
	sets, err := h.worker.ListSets(r.Context())
	if err != nil {
		workerError(w, err, "list sets")
		return
	}
	if sets == nil {
		sets = []models.Set{}
	}
	response.Success(w, sets)
}

// GetRatings returns the cards of a set with their statistics and overrides.
func (h *SetHandler) GetRatings(w http.ResponseWriter, r *http.Request) {
	code, err := setCode(r)
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	cards, err := h.worker.ListRatings(r.Context(), code)
	if err != nil {
		workerError(w, err, "list ratings")
		return
	}
	if len(cards) == 0 {
		response.NotFound(w, fmt.Errorf("no ratings for set %s", code))
		return
	}
	response.Success(w, cards)
}

// GetChart renders the rating distribution of a set as an HTML bar chart.
func (h *SetHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	code, err := setCode(r)
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	dist, err := h.worker.RatingDistribution(r.Context(), code)
	if err != nil {
		workerError(w, err, "get rating distribution")
		return
	}
	if dist.Total() == 0 {
		response.NotFound(w, fmt.Errorf("no ratings for set %s", code))
		return
	}

	var buf bytes.Buffer
	if err := charts.RenderRatingDistribution(&buf, *dist, charts.DefaultChartConfig()); err != nil {
		response.InternalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// PutCustomRating stores or removes the user's override for one card.
func (h *SetHandler) PutCustomRating(w http.ResponseWriter, r *http.Request) {
	idArena, err := strconv.Atoi(chi.URLParam(r, "idArena"))
	if err != nil || idArena <= 0 {
		response.BadRequest(w, fmt.Errorf("invalid card id %q", chi.URLParam(r, "idArena")))
		return
	}

	var req CustomRatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Rating != nil && (*req.Rating < models.NotRated || *req.Rating > 10) {
		response.BadRequest(w, fmt.Errorf("rating must be between %d and 10", models.NotRated))
		return
	}

	h.worker.SetCustomRating(idArena, req.Rating, req.Note)
	response.Accepted(w, "custom-rating")
}
