package worker

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ramonehamilton/mtga-ratings-sync/internal/events"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/metrics"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/mtgahelper"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/scryfall"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/seventeenlands"
)

var errUpstream = errors.New("upstream unavailable")

func ptr[T any](v T) *T { return &v }

type fakeHost struct {
	mu sync.Mutex

	sets    *mtgahelper.SetsResponse
	setsErr error

	signInErr   error
	signInCalls int
	signOutErr  error

	template      []mtgahelper.CustomDraftRating
	templateErr   error
	templateCalls int

	// putFailures fails that many uploads before succeeding; negative fails forever.
	putFailures int
	puts        []mtgahelper.CustomDraftRatingUpdate

	// When set, uploads signal putStarted and wait for putRelease.
	putStarted chan struct{}
	putRelease chan struct{}
}

func (h *fakeHost) GetSets(ctx context.Context) (*mtgahelper.SetsResponse, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.setsErr != nil {
		return nil, h.setsErr
	}
	return h.sets, nil
}

func (h *fakeHost) SignIn(ctx context.Context, email, password string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.signInCalls++
	return h.signInErr
}

func (h *fakeHost) SignOut(ctx context.Context) error {
	return h.signOutErr
}

func (h *fakeHost) GetCustomRatings(ctx context.Context) ([]mtgahelper.CustomDraftRating, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.templateCalls++
	if h.templateErr != nil {
		return nil, h.templateErr
	}
	return h.template, nil
}

func (h *fakeHost) PutCustomRating(ctx context.Context, update mtgahelper.CustomDraftRatingUpdate) error {
	if h.putStarted != nil {
		h.putStarted <- struct{}{}
		<-h.putRelease
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.puts = append(h.puts, update)
	if h.putFailures != 0 {
		if h.putFailures > 0 {
			h.putFailures--
		}
		return errUpstream
	}
	return nil
}

func (h *fakeHost) setTemplate(template []mtgahelper.CustomDraftRating) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.template = template
}

func (h *fakeHost) putCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.puts)
}

func (h *fakeHost) templateCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.templateCalls
}

type fakeCatalogue struct {
	mu    sync.Mutex
	list  *scryfall.SetList
	err   error
	calls int
}

func (c *fakeCatalogue) GetSets(ctx context.Context) (*scryfall.SetList, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.list, nil
}

func (c *fakeCatalogue) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type fakeSource struct {
	mu       sync.Mutex
	bySet    map[string][]seventeenlands.CardRating
	errBySet map[string]error
	requests []seventeenlands.QueryParams
}

func (s *fakeSource) GetCardRatings(ctx context.Context, params seventeenlands.QueryParams) ([]seventeenlands.CardRating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, params)
	if err := s.errBySet[params.Expansion]; err != nil {
		return nil, err
	}
	return s.bySet[params.Expansion], nil
}

// recorder collects every dispatched signal in emission order.
type recorder struct {
	ch chan events.Event
}

// waitFor returns the first event of eventType and the events received before it.
func (r *recorder) waitFor(t *testing.T, eventType string) (events.Event, []events.Event) {
	t.Helper()
	var before []events.Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case e := <-r.ch:
			if e.Type == eventType {
				return e, before
			}
			before = append(before, e)
		case <-timeout:
			types := make([]string, len(before))
			for i, e := range before {
				types[i] = e.Type
			}
			t.Fatalf("Timed out waiting for %s, got %v", eventType, types)
			return events.Event{}, nil
		}
	}
}

// expectNone fails if any event arrives within d.
func (r *recorder) expectNone(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case e := <-r.ch:
		t.Errorf("Expected no further events, got %s", e.Type)
	case <-time.After(d):
	}
}

func countType(list []events.Event, eventType string) int {
	n := 0
	for _, e := range list {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

type harness struct {
	worker  *Worker
	events  *recorder
	host    *fakeHost
	catalog *fakeCatalogue
	source  *fakeSource
	faults  *Faults
	metrics *metrics.SyncMetrics
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		events:  &recorder{ch: make(chan events.Event, 4096)},
		host:    &fakeHost{},
		catalog: &fakeCatalogue{},
		source:  &fakeSource{bySet: map[string][]seventeenlands.CardRating{}, errBySet: map[string]error{}},
		faults:  &Faults{},
		metrics: metrics.NewSyncMetrics(),
	}

	dispatcher := events.NewEventDispatcher(nil)
	dispatcher.Register(events.NewFuncObserver("test", func(e events.Event) error {
		h.events.ch <- e
		return nil
	}))

	w, err := New(Options{
		DBPath:         filepath.Join(t.TempDir(), "ratings.db"),
		MTGAHelper:     h.host,
		Scryfall:       h.catalog,
		SeventeenLands: h.source,
		Dispatcher:     dispatcher,
		Faults:         h.faults,
		Metrics:        h.metrics,
		TickInterval:   5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	h.worker = w

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run returned %v", err)
		}
	})

	return h
}

func (h *harness) initialise(t *testing.T) {
	t.Helper()
	h.worker.Initialise()
	h.events.waitFor(t, events.Initialised)
}

// loadTemplate stores a template through the worker.
func (h *harness) loadTemplate(t *testing.T, template []mtgahelper.CustomDraftRating) {
	t.Helper()
	h.host.setTemplate(template)
	h.worker.DownloadCustomRatingTemplate()
	h.events.waitFor(t, events.CustomRatingTemplate)
}

// loadStatistics downloads statistics for sets through the worker.
func (h *harness) loadStatistics(t *testing.T, sets ...string) {
	t.Helper()
	h.worker.Download17LRatings("PremierDraft", sets, "", "")
	h.events.waitFor(t, events.DownloadedAll17LRatings)
}

func templateRow(id int, set, name string) mtgahelper.CustomDraftRating {
	return mtgahelper.CustomDraftRating{Card: mtgahelper.CardRef{IDArena: id, Set: set, Name: name}}
}

func statRow(name string, seen int64, winRate float64) seventeenlands.CardRating {
	return seventeenlands.CardRating{
		Name:      ptr(name),
		SeenCount: ptr(seen),
		WinRate:   ptr(winRate),
		GameCount: ptr(int64(1000)),
	}
}
