package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ramonehamilton/mtga-ratings-sync/internal/api/response"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/config"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/metrics"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/ratings"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/worker"
)

// SyncHandler handles the worker commands and the status endpoint.
type SyncHandler struct {
	worker  Worker
	config  ConfigSource
	metrics *metrics.SyncMetrics
}

// NewSyncHandler creates a new SyncHandler. metrics may be nil.
func NewSyncHandler(w Worker, cfg ConfigSource, m *metrics.SyncMetrics) *SyncHandler {
	return &SyncHandler{worker: w, config: cfg, metrics: m}
}

// LoginRequest carries MTGA Helper credentials.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// StatisticsRequest overrides the configured 17Lands query.
type StatisticsRequest struct {
	Format    string   `json:"format"`
	Sets      []string `json:"sets"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
}

// CalculateRequest overrides the configured calculation parameters.
type CalculateRequest struct {
	Sets           []string                `json:"sets"`
	Metric         string                  `json:"metric"`
	CommentMetrics []ratings.CommentMetric `json:"comment_metrics"`
	Locale         string                  `json:"locale"`
	Clear          *bool                   `json:"clear"`
}

// StatusResponse combines the worker queues with the request metrics.
type StatusResponse struct {
	Worker  worker.Status      `json:"worker"`
	Metrics *metrics.SyncStats `json:"metrics,omitempty"`
}

// decodeOptional decodes a JSON body, leaving dst untouched when the body is empty.
func decodeOptional(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// Initialise opens the database.
func (h *SyncHandler) Initialise(w http.ResponseWriter, _ *http.Request) {
	h.worker.Initialise()
	response.Accepted(w, "init")
}

// Login signs in to MTGA Helper.
func (h *SyncHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Username == "" || req.Password == "" {
		response.BadRequest(w, errors.New("username and password are required"))
		return
	}

	h.worker.Login(req.Username, req.Password)
	response.Accepted(w, "login")
}

// Logout signs out of MTGA Helper.
func (h *SyncHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	h.worker.Logout()
	response.Accepted(w, "logout")
}

// SyncSets runs set discovery against MTGA Helper and then Scryfall.
func (h *SyncHandler) SyncSets(w http.ResponseWriter, _ *http.Request) {
	h.worker.DownloadSets()
	response.Accepted(w, "sets")
}

// SyncTemplate downloads the custom-rating template.
func (h *SyncHandler) SyncTemplate(w http.ResponseWriter, _ *http.Request) {
	h.worker.DownloadCustomRatingTemplate()
	response.Accepted(w, "template")
}

// DownloadStatistics queues 17Lands requests. Omitted fields fall back to the
// [download] section of the configuration.
func (h *SyncHandler) DownloadStatistics(w http.ResponseWriter, r *http.Request) {
	var req StatisticsRequest
	if err := decodeOptional(r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}

	defaults := h.config().Download
	if req.Format == "" {
		req.Format = defaults.Format
	}
	if len(req.Sets) == 0 {
		req.Sets = defaults.Sets
	}
	if req.StartDate == "" {
		req.StartDate = defaults.StartDate
	}
	if req.EndDate == "" {
		req.EndDate = defaults.EndDate
	}

	if len(req.Sets) == 0 {
		response.BadRequest(w, errors.New("at least one set is required"))
		return
	}
	for _, date := range []string{req.StartDate, req.EndDate} {
		if date == "" {
			continue
		}
		if _, err := time.Parse(config.DateLayout, date); err != nil {
			response.BadRequest(w, fmt.Errorf("invalid date %q: %w", date, err))
			return
		}
	}

	h.worker.Download17LRatings(req.Format, req.Sets, req.StartDate, req.EndDate)
	response.Accepted(w, "statistics")
}

// CalculateRatings computes ratings and queues their upload. Omitted fields
// fall back to the [upload] section of the configuration.
func (h *SyncHandler) CalculateRatings(w http.ResponseWriter, r *http.Request) {
	var req CalculateRequest
	if err := decodeOptional(r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}

	cfg := h.config()
	sets := req.Sets
	if len(sets) == 0 {
		sets = cfg.Download.Sets
	}
	sets = append([]string(nil), sets...)
	if len(sets) == 0 {
		response.BadRequest(w, errors.New("at least one set is required"))
		return
	}

	params := cfg.CalculationParams(sets)
	if req.Metric != "" {
		metric, err := ratings.ParseMetric(req.Metric)
		if err != nil {
			response.BadRequest(w, err)
			return
		}
		params.Metric = metric
	}
	if req.CommentMetrics != nil {
		for _, cm := range req.CommentMetrics {
			if _, err := ratings.ParseMetric(string(cm.Metric)); err != nil {
				response.BadRequest(w, err)
				return
			}
		}
		params.CommentMetrics = req.CommentMetrics
	}
	if req.Locale != "" {
		params.Locale = req.Locale
	}
	if req.Clear != nil {
		params.Clear = *req.Clear
	}
	for i, set := range params.Sets {
		params.Sets[i] = strings.ToUpper(strings.TrimSpace(set))
	}

	h.worker.CalculateRatings(params)
	response.Accepted(w, "calculate")
}

// CancelUpload stops the running upload batch before its next request.
func (h *SyncHandler) CancelUpload(w http.ResponseWriter, _ *http.Request) {
	h.worker.CancelUpload()
	response.Accepted(w, "cancel")
}

// Backup copies the database into the backup directory.
func (h *SyncHandler) Backup(w http.ResponseWriter, _ *http.Request) {
	h.worker.BackupDatabase("", h.config().App.BackupKeep)
	response.Accepted(w, "backup")
}

// GetBackups lists the database backups, newest first.
func (h *SyncHandler) GetBackups(w http.ResponseWriter, r *http.Request) {
	backups, err := h.worker.ListBackups(r.Context())
	if err != nil {
		workerError(w, err, "list backups")
		return
	}
	response.Success(w, backups)
}

// GetStatus returns the worker queues and request metrics.
func (h *SyncHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.worker.Status(r.Context())
	if err != nil {
		workerError(w, err, "get status")
		return
	}

	resp := StatusResponse{Worker: status}
	if h.metrics != nil {
		resp.Metrics = h.metrics.GetStats()
	}
	response.Success(w, resp)
}
