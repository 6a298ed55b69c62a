package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/multierr"

	"github.com/haukened/fwd-dns/internal/dns/common/clock"
	"github.com/haukened/fwd-dns/internal/dns/common/log"
	"github.com/haukened/fwd-dns/internal/dns/config"
	"github.com/haukened/fwd-dns/internal/dns/domain"
	"github.com/haukened/fwd-dns/internal/dns/gateways/transport"
	"github.com/haukened/fwd-dns/internal/dns/gateways/upstream"
	"github.com/haukened/fwd-dns/internal/dns/gateways/wire"
	"github.com/haukened/fwd-dns/internal/dns/repos/answercache"
	"github.com/haukened/fwd-dns/internal/dns/repos/blocklist"
	"github.com/haukened/fwd-dns/internal/dns/repos/snapshot"
	"github.com/haukened/fwd-dns/internal/dns/services/resolver"
)

const (
	// Version information
	version = "0.1.0-dev"
	appName = "fwd-dnsd"
)

// cache is what the application needs from the answer cache beyond lookups.
type cache interface {
	resolver.AnswerCache
	Entries() []domain.CachedAnswer
	Restore(entries []domain.CachedAnswer) int
	Len() int
}

// Application holds all the components of the DNS server
type Application struct {
	config    *config.AppConfig
	logger    log.Logger
	transport resolver.ServerTransport
	resolver  *resolver.Resolver
	cache     cache
	snapshot  *snapshot.Store
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(2)
	}

	err = log.Configure(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"version":   version,
		"env":       cfg.Env,
		"log_level": cfg.LogLevel,
		"listen":    cfg.Listen,
		"resolver":  cfg.Resolver,
		"cache":     cfg.CacheEnabled,
	}, "Starting "+appName)

	app, err := buildApplication(cfg, log.GetLogger())
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build application")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info(map[string]any{"signal": sig.String()}, "Shutdown signal received")
		cancel()
	}()

	if err := app.Run(ctx); err != nil {
		log.Fatal(map[string]any{"error": err}, "Server failed")
	}

	log.Info(nil, appName+" stopped gracefully")
}

// buildApplication constructs all components and wires them together.
// Anything opened here is closed again if a later step fails.
func buildApplication(cfg *config.AppConfig, logger log.Logger) (_ *Application, err error) {
	codec := wire.NewUDPCodec(logger)
	app := &Application{config: cfg, logger: logger}
	defer func() {
		if err != nil && app.snapshot != nil {
			err = multierr.Append(err, app.snapshot.Close())
		}
	}()

	opts := resolver.ResolverOptions{Logger: logger}

	if cfg.BlocklistFile != "" {
		bl, err := blocklist.LoadFile(cfg.BlocklistFile, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to load blocklist: %w", err)
		}
		opts.Blocklist = bl
	}

	if cfg.Forwarding() {
		up, err := upstream.NewResolver(upstream.Options{
			Server:  cfg.Resolver,
			Timeout: cfg.UpstreamTimeout,
			Codec:   codec,
			Logger:  logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create upstream client: %w", err)
		}
		opts.Upstream = up
		logger.Info(map[string]any{
			"server":  cfg.Resolver,
			"timeout": cfg.UpstreamTimeout.String(),
		}, "Upstream DNS client configured")

		if cfg.CacheEnabled {
			if err := app.buildCache(cfg); err != nil {
				return nil, err
			}
			opts.Cache = app.cache
		}
	} else {
		logger.Info(nil, "No upstream configured, answering locally")
	}

	app.resolver = resolver.NewResolver(opts)

	app.transport, err = transport.NewTransport(transport.TransportUDP, cfg.Listen, codec, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}
	return app, nil
}

// buildCache creates the answer cache and warms it from the snapshot file
// when one is configured.
func (app *Application) buildCache(cfg *config.AppConfig) error {
	clk := clock.RealClock{}
	c, err := answercache.New(cfg.CacheSize, cfg.CacheTTL, clk)
	if err != nil {
		return fmt.Errorf("failed to create answer cache: %w", err)
	}
	app.cache = c

	if cfg.CacheSnapshot == "" {
		app.logger.Info(map[string]any{"size": cfg.CacheSize}, "Answer cache configured")
		return nil
	}

	store, err := snapshot.Open(cfg.CacheSnapshot)
	if err != nil {
		return fmt.Errorf("failed to open cache snapshot: %w", err)
	}
	app.snapshot = store

	entries, skipped, err := store.Load(clk.Now())
	if err != nil {
		return fmt.Errorf("failed to load cache snapshot: %w", err)
	}
	restored := c.Restore(entries)
	app.logger.Info(map[string]any{
		"size":     cfg.CacheSize,
		"snapshot": cfg.CacheSnapshot,
		"restored": restored,
		"skipped":  skipped,
	}, "Answer cache configured")
	return nil
}

// Start binds the listener and begins serving.
func (app *Application) Start(ctx context.Context) error {
	if err := app.transport.Start(ctx, app.resolver); err != nil {
		return fmt.Errorf("failed to start UDP transport: %w", err)
	}

	mode := "synthesize"
	if app.resolver.Forwarding() {
		mode = "forward"
	}
	app.logger.Info(map[string]any{
		"address":   app.transport.Address(),
		"transport": string(transport.TransportUDP),
		"mode":      mode,
	}, "DNS server started")
	return nil
}

// Shutdown stops the listener, persists the cache and releases the
// snapshot file. Every step runs even if an earlier one fails.
func (app *Application) Shutdown() error {
	err := app.transport.Stop()

	if app.snapshot != nil {
		entries := app.cache.Entries()
		if saveErr := app.snapshot.Save(entries); saveErr != nil {
			err = multierr.Append(err, fmt.Errorf("failed to save cache snapshot: %w", saveErr))
		} else {
			app.logger.Info(map[string]any{"entries": len(entries)}, "Cache snapshot saved")
		}
		err = multierr.Append(err, app.snapshot.Close())
		app.snapshot = nil
	}
	return err
}

// Run starts the DNS server and blocks until ctx is cancelled.
func (app *Application) Run(ctx context.Context) error {
	if err := app.Start(ctx); err != nil {
		return multierr.Append(err, app.Shutdown())
	}

	<-ctx.Done()
	app.logger.Info(nil, "Shutdown initiated")

	if err := app.Shutdown(); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	app.logger.Info(nil, "Graceful shutdown completed")
	return nil
}
