// Package worker implements the synchronization worker: a single actor goroutine
// that owns the database and the statistics and upload queues, and drives the
// MTGA Helper, Scryfall and 17Lands clients.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ramonehamilton/mtga-ratings-sync/internal/events"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/metrics"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/mtgahelper"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/scryfall"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/seventeenlands"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/storage"
)

// DefaultTickInterval is the queue drain period.
const DefaultTickInterval = time.Second

var (
	// ErrNotInitialised is reported by operations that need the database
	// before Initialise has succeeded.
	ErrNotInitialised = errors.New("worker not initialised")

	// ErrEmptyPayload is reported when a response holds no usable entries.
	ErrEmptyPayload = errors.New("response contains no usable entries")

	// ErrInjectedFault is reported when a FaultInjector fails a stage.
	ErrInjectedFault = errors.New("injected fault")

	// ErrTooManyAttempts is reported when an upload batch is discarded.
	ErrTooManyAttempts = errors.New("too many upload attempts")

	// ErrStopped is returned by queries posted after Run has returned.
	ErrStopped = errors.New("worker stopped")
)

// RatingHost is the MTGA Helper API used by the worker.
type RatingHost interface {
	GetSets(ctx context.Context) (*mtgahelper.SetsResponse, error)
	SignIn(ctx context.Context, email, password string) error
	SignOut(ctx context.Context) error
	GetCustomRatings(ctx context.Context) ([]mtgahelper.CustomDraftRating, error)
	PutCustomRating(ctx context.Context, update mtgahelper.CustomDraftRatingUpdate) error
}

// SetCatalogue is the Scryfall API used by the worker.
type SetCatalogue interface {
	GetSets(ctx context.Context) (*scryfall.SetList, error)
}

// StatisticsSource is the 17Lands API used by the worker.
type StatisticsSource interface {
	GetCardRatings(ctx context.Context, params seventeenlands.QueryParams) ([]seventeenlands.CardRating, error)
}

// Options configures a Worker.
type Options struct {
	DBPath string

	MTGAHelper     RatingHost
	Scryfall       SetCatalogue
	SeventeenLands StatisticsSource

	Dispatcher *events.EventDispatcher
	Faults     FaultInjector
	Metrics    *metrics.SyncMetrics
	Logger     *slog.Logger

	TickInterval time.Duration
}

// Worker is the synchronization actor. Every exported method only posts a task;
// the task runs on the goroutine executing Run.
type Worker struct {
	dbPath         string
	mtgahelper     RatingHost
	scryfall       SetCatalogue
	seventeenlands StatisticsSource
	dispatcher     *events.EventDispatcher
	faults         FaultInjector
	metrics        *metrics.SyncMetrics
	logger         *slog.Logger
	tickInterval   time.Duration

	tasks chan func(context.Context)
	done  chan struct{}

	// in-flight network goroutines
	wg sync.WaitGroup

	cancelled atomic.Bool

	// Owned by the actor goroutine.
	store             *storage.Store
	ticker            *time.Ticker
	tickC             <-chan time.Time
	statsQueue        fifo[statisticsRequest]
	statsOutstanding  int
	statsBatch        string
	statsTotal        int
	statsDone         bool
	uploadQueue       fifo[uploadRequest]
	uploadOutstanding int
	uploadBatch       string
	uploadTotal       int
}

// New creates a worker. Call Run to start it.
func New(opts Options) (*Worker, error) {
	if opts.DBPath == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if opts.MTGAHelper == nil {
		return nil, fmt.Errorf("MTGA Helper client is required")
	}
	if opts.Scryfall == nil {
		return nil, fmt.Errorf("scryfall client is required")
	}
	if opts.SeventeenLands == nil {
		return nil, fmt.Errorf("17Lands client is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Dispatcher == nil {
		opts.Dispatcher = events.NewEventDispatcher(opts.Logger)
	}
	if opts.Faults == nil {
		opts.Faults = noFaults{}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewSyncMetrics()
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}

	return &Worker{
		dbPath:         opts.DBPath,
		mtgahelper:     opts.MTGAHelper,
		scryfall:       opts.Scryfall,
		seventeenlands: opts.SeventeenLands,
		dispatcher:     opts.Dispatcher,
		faults:         opts.Faults,
		metrics:        opts.Metrics,
		logger:         opts.Logger.With("component", "worker"),
		tickInterval:   opts.TickInterval,
		tasks:          make(chan func(context.Context), 256),
		done:           make(chan struct{}),
	}, nil
}

// Dispatcher returns the dispatcher signals are emitted on.
func (w *Worker) Dispatcher() *events.EventDispatcher {
	return w.dispatcher
}

// Run processes tasks and ticks until ctx is cancelled. It waits for in-flight
// requests, which observe ctx, and closes the database before returning.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("Sync worker started", "tickInterval", w.tickInterval)

	defer func() {
		close(w.done)
		w.stopTicker()
		w.wg.Wait()
		if w.store != nil {
			if err := w.store.Close(); err != nil {
				w.logger.Error("Failed to close database", "error", err)
			}
			w.store = nil
		}
		w.logger.Info("Sync worker stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case task := <-w.tasks:
			task(ctx)
		case <-w.tickC:
			w.tick(ctx)
		}
	}
}

// post schedules fn on the actor. Tasks posted after Run returned are dropped.
func (w *Worker) post(fn func(context.Context)) {
	select {
	case <-w.done:
	case w.tasks <- fn:
	}
}

// query runs fn on the actor and waits for its result.
func query[T any](ctx context.Context, w *Worker, fn func(context.Context) (T, error)) (T, error) {
	type result struct {
		value T
		err   error
	}
	ch := make(chan result, 1)
	w.post(func(ctx context.Context) {
		value, err := fn(ctx)
		ch <- result{value, err}
	})

	var zero T
	select {
	case r := <-ch:
		return r.value, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-w.done:
		return zero, ErrStopped
	}
}

// async runs request on its own goroutine and posts the completion it returns
// back onto the actor.
func (w *Worker) async(ctx context.Context, request func(context.Context) func(context.Context)) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.post(request(ctx))
	}()
}

// timed runs one upstream call and records its latency.
func (w *Worker) timed(upstream metrics.Upstream, call func() error) error {
	start := time.Now()
	err := call()
	w.metrics.RecordRequest(upstream, time.Since(start), err)
	return err
}

func (w *Worker) emit(ctx context.Context, eventType string, data any) {
	w.dispatcher.Dispatch(events.NewTypedEvent(eventType, data, ctx))
}

func (w *Worker) fail(ctx context.Context, eventType string, err error) {
	w.logger.Warn("Stage failed", "signal", eventType, "error", err)
	w.emit(ctx, eventType, events.FailureEvent{Error: err.Error()})
}

func (w *Worker) startTicker() {
	if w.ticker != nil {
		return
	}
	w.ticker = time.NewTicker(w.tickInterval)
	w.tickC = w.ticker.C
}

func (w *Worker) stopTicker() {
	if w.ticker == nil {
		return
	}
	w.ticker.Stop()
	w.ticker = nil
	w.tickC = nil
}

// tick issues at most one statistics request and at most one upload.
func (w *Worker) tick(ctx context.Context) {
	if w.statsQueue.Len() > 0 {
		w.issueStatistics(ctx, w.statsQueue.PopFront())
	}
	w.issueUpload(ctx)

	if w.statsQueue.Len() == 0 && w.uploadQueue.Len() == 0 {
		w.stopTicker()
	}
	w.updateQueueMetrics()
}

func (w *Worker) updateQueueMetrics() {
	w.metrics.SetQueueDepth(w.statsQueue.Len(), w.uploadQueue.Len(), w.statsOutstanding+w.uploadOutstanding)
}

// Initialise opens the database and creates the schema.
func (w *Worker) Initialise() {
	w.post(func(ctx context.Context) {
		if w.faults.Active(FaultInit) {
			w.fail(ctx, events.InitialisationFailed, ErrInjectedFault)
			return
		}
		if w.store == nil {
			store, err := storage.OpenStore(w.dbPath)
			if err != nil {
				w.fail(ctx, events.InitialisationFailed, err)
				return
			}
			w.store = store
		}
		w.logger.Info("Database ready", "path", w.dbPath)
		w.emit(ctx, events.Initialised, events.InitialisedEvent{Path: w.dbPath})
	})
}

// requireStore reports failEvent when the database is not open yet.
func (w *Worker) requireStore(ctx context.Context, failEvent string) bool {
	if w.store == nil {
		w.fail(ctx, failEvent, ErrNotInitialised)
		return false
	}
	return true
}

// CancelUpload asks the upload queue to stop. It takes effect when the
// in-flight upload completes, or on the next tick when nothing is in flight.
func (w *Worker) CancelUpload() {
	w.cancelled.Store(true)
}
