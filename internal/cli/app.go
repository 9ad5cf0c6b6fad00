package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"vehicle-catalog/internal/catalog"
	"vehicle-catalog/internal/config"
	"vehicle-catalog/internal/logging"
	"vehicle-catalog/internal/store"
	"vehicle-catalog/internal/telemetry"
)

const shutdownTimeout = 5 * time.Second

// app is everything a command needs once the catalog file has been read.
type app struct {
	cfg       *config.Config
	telemetry *telemetry.Provider
	store     *store.FileStore
	catalog   *catalog.InstrumentedCollection
	closeLog  func() error
}

func setup(ctx context.Context, opts *options, logFallback io.Writer) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.file != "" {
		cfg.CatalogFile = opts.file
	}
	if opts.debug {
		cfg.Log.Level = "debug"
	}

	tp, err := telemetry.New(ctx, telemetry.Config{
		ServiceName:  cfg.Telemetry.ServiceName,
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.Telemetry.Endpoint,
		Export:       cfg.Telemetry.Enabled,
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	logOut, closeLog, err := openLog(cfg.Log.File, logFallback)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}
	logging.Init(logging.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		Environment:    cfg.Environment,
		Level:          cfg.Log.Level,
		Output:         logOut,
		LoggerProvider: tp.LoggerProvider(),
	})

	a := &app{
		cfg:       cfg,
		telemetry: tp,
		store:     store.NewFileStore(cfg.CatalogFile),
		closeLog:  closeLog,
	}

	c, err := a.store.Load(ctx)
	if err != nil {
		logging.Error(ctx, "catalog load failed", slog.Any("error", err))
		a.close()
		return nil, err
	}

	a.catalog, err = catalog.NewInstrumentedCollection(c, tp)
	if err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

// save persists the catalog even when ctx is already cancelled, which is the
// usual case on the way out.
func (a *app) save(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return a.store.Save(ctx, a.catalog.Collection)
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.telemetry.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "telemetry shutdown: %v\n", err)
	}
	if err := a.closeLog(); err != nil {
		fmt.Fprintf(os.Stderr, "closing log: %v\n", err)
	}
}

func openLog(path string, fallback io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return fallback, func() error { return nil }, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return f, f.Close, nil
}

func errNotFound(plate string) error {
	return fmt.Errorf("vehicle %s not found", plate)
}

// exitedNormally reports whether err only says the session was interrupted.
func exitedNormally(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}
