// Command ratings-sync runs the draft-rating synchronization worker and its
// local API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"

	"github.com/ramonehamilton/mtga-ratings-sync/internal/api"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/config"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/events"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/metrics"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/mtgahelper"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/scryfall"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/seventeenlands"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/version"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/worker"
)

// passwordEnv supplies a password to remember when the config asks for it.
const passwordEnv = "MTGAH_PASSWORD"

var (
	configPath = flag.String("config", "", "Config file path (default: ~/.mtga-ratings-sync/config.toml)")
	debug      = flag.Bool("debug", false, "Enable debug logging and fault injection routes")
	logJSON    = flag.Bool("log-json", false, "Log as JSON")
	port       = flag.Int("port", 0, "API port (overrides the config file)")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		slog.Error("ratings-sync failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	path := *configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return err
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if *port != 0 {
		cfg.API.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", path, err)
	}

	level := new(slog.LevelVar)
	logger := newLogger(level, cfg.App.LogJSON || *logJSON)
	setLevel(level, cfg.App.DebugMode || *debug)
	slog.SetDefault(logger)

	dataDir := cfg.App.DataDir
	if dataDir == "" {
		dataDir = filepath.Dir(path)
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	key, err := config.LoadOrCreateKey(dataDir)
	if err != nil {
		return err
	}
	if password := os.Getenv(passwordEnv); password != "" && cfg.Account.RememberPassword {
		if err := cfg.SetPassword(password, key); err != nil {
			return err
		}
		if err := cfg.Save(path); err != nil {
			return err
		}
		logger.Info("Stored MTGA Helper password", "config", path)
	}

	var current atomic.Pointer[config.Config]
	current.Store(cfg)

	timeout, err := cfg.GetRequestTimeout()
	if err != nil {
		return err
	}
	tick, err := cfg.GetTickInterval()
	if err != nil {
		return err
	}
	backupInterval, err := cfg.GetBackupInterval()
	if err != nil {
		return err
	}

	syncMetrics := metrics.NewSyncMetrics()

	helper, err := mtgahelper.NewClient(mtgahelper.ClientOptions{
		BaseURL:       cfg.Worker.MTGAHelperURL,
		Timeout:       timeout,
		TripThreshold: uint32(cfg.Worker.BreakerThreshold),
		OnStateChange: func(string, gobreaker.State, gobreaker.State) {
			syncMetrics.BreakerTransitions.Add(1)
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}
	catalogue := scryfall.NewClient(scryfall.ClientOptions{
		BaseURL:   cfg.Worker.ScryfallURL,
		Timeout:   timeout,
		UserAgent: version.UserAgent(),
	})
	source := seventeenlands.NewClient(seventeenlands.ClientOptions{
		BaseURL: cfg.Worker.SeventeenLandsURL,
		Timeout: timeout,
	})

	var faults *worker.Faults
	if cfg.App.DebugMode || *debug {
		faults = &worker.Faults{}
	}

	dispatcher := events.NewEventDispatcher(logger)
	dispatcher.Register(events.NewLoggingObserver(logger, true))

	w, err := worker.New(worker.Options{
		DBPath:         filepath.Join(dataDir, "ratings.db"),
		MTGAHelper:     helper,
		Scryfall:       catalogue,
		SeventeenLands: source,
		Dispatcher:     dispatcher,
		Faults:         faults,
		Metrics:        syncMetrics,
		Logger:         logger,
		TickInterval:   tick,
	})
	if err != nil {
		return err
	}

	server, err := api.NewServer(api.Options{
		Port:           cfg.API.Port,
		AllowedOrigins: cfg.API.AllowedOrigins,
		Worker:         w,
		Config:         current.Load,
		Metrics:        syncMetrics,
		Faults:         faults,
		Logger:         logger,
	})
	if err != nil {
		return err
	}
	dispatcher.Register(server.NewWebSocketObserver())

	watcher := config.NewWatcher(path, func(next *config.Config) {
		// Ports, URLs and the tick interval only apply on restart.
		current.Store(next)
		setLevel(level, next.App.DebugMode || *debug)
		logger.Info("Reloaded config", "path", path)
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(ctx) })
	g.Go(func() error { return server.Run(ctx) })
	g.Go(func() error { return watcher.Run(ctx) })
	if backupInterval > 0 {
		g.Go(func() error {
			scheduleBackups(ctx, w, backupInterval, current.Load)
			return nil
		})
	}

	w.Initialise()
	if err := autoLogin(w, cfg, key); err != nil {
		logger.Warn("Skipping automatic login", "error", err)
	}
	w.DownloadSets()

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("Stopped", "version", version.Version)
	return nil
}

// scheduleBackups backs the database up every interval until ctx is done.
func scheduleBackups(ctx context.Context, w *worker.Worker, interval time.Duration, cfg func() *config.Config) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.BackupDatabase("", cfg().App.BackupKeep)
		}
	}
}

// autoLogin signs in with the remembered credentials, if any.
func autoLogin(w *worker.Worker, cfg *config.Config, key string) error {
	if cfg.Account.Username == "" || !cfg.Account.RememberPassword {
		return nil
	}
	password, err := cfg.GetPassword(key)
	if err != nil {
		return err
	}
	if password == "" {
		return nil
	}
	w.Login(cfg.Account.Username, password)
	return nil
}

func newLogger(level *slog.LevelVar, asJSON bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if asJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func setLevel(level *slog.LevelVar, debug bool) {
	if debug {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}
}
