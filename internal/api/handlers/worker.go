// Package handlers maps the API routes onto the synchronization worker.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ramonehamilton/mtga-ratings-sync/internal/api/response"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/config"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/ratings"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/storage"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/storage/models"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/worker"
)

// Worker is the part of the synchronization worker the handlers drive.
// Commands return immediately; their outcome is signalled on the event stream.
type Worker interface {
	Initialise()
	Login(username, password string)
	Logout()
	DownloadSets()
	DownloadCustomRatingTemplate()
	Download17LRatings(format string, sets []string, startDate, endDate string)
	CalculateRatings(params ratings.Params)
	CancelUpload()
	SetCustomRating(idArena int, rating *int, note *string)
	BackupDatabase(dir string, keep int)

	ListSets(ctx context.Context) ([]models.Set, error)
	ListRatings(ctx context.Context, set string) ([]models.CardView, error)
	RatingDistribution(ctx context.Context, set string) (*models.RatingDistribution, error)
	Status(ctx context.Context) (worker.Status, error)
	ListBackups(ctx context.Context) ([]storage.BackupInfo, error)
}

// ConfigSource returns the current configuration. It is called per request so
// reloaded settings apply without a restart.
type ConfigSource func() *config.Config

// workerError writes the status matching a query error.
func workerError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, worker.ErrNotInitialised), errors.Is(err, worker.ErrStopped):
		response.ServiceUnavailable(w, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		response.Error(w, http.StatusGatewayTimeout, fmt.Errorf("failed to %s: %w", action, err))
	default:
		response.InternalError(w, fmt.Errorf("failed to %s: %w", action, err))
	}
}
