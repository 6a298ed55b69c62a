package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/fwd-dns/internal/dns/common/log"
	"github.com/haukened/fwd-dns/internal/dns/config"
	"github.com/haukened/fwd-dns/internal/dns/domain"
)

// testConfig returns the defaults bound to an ephemeral loopback port.
func testConfig() *config.AppConfig {
	cfg := config.DEFAULT_APP_CONFIG
	cfg.Listen = "127.0.0.1:0"
	cfg.LogLevel = "error"
	return &cfg
}

// startApp builds and starts the application, returning the bound address.
// The application is shut down when the test ends unless the test already did.
func startApp(t *testing.T, cfg *config.AppConfig) (*Application, string) {
	t.Helper()
	app, err := buildApplication(cfg, log.NewNoopLogger())
	require.NoError(t, err)
	require.NoError(t, app.Start(context.Background()))
	t.Cleanup(func() { _ = app.Shutdown() })
	return app, app.transport.Address()
}

// TestApplication_Integration tests the full application lifecycle
func TestApplication_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	app, err := buildApplication(testConfig(), log.NewNoopLogger())
	require.NoError(t, err)
	assert.NotNil(t, app)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appErr := make(chan error, 1)
	go func() {
		appErr <- app.Run(ctx)
	}()

	// Wait for the listener to bind
	require.Eventually(t, func() bool {
		return app.transport.Address() != "127.0.0.1:0"
	}, 2*time.Second, 10*time.Millisecond, "server failed to start within timeout")

	cancel()

	select {
	case err := <-appErr:
		assert.NoError(t, err, "Application should shutdown gracefully")
	case <-time.After(5 * time.Second):
		t.Fatal("Application failed to shutdown within timeout")
	}
}

func TestApplication_RunFailsOnBindConflict(t *testing.T) {
	first, addr := startApp(t, testConfig())
	require.NotNil(t, first)

	cfg := testConfig()
	cfg.Listen = addr
	second, err := buildApplication(cfg, log.NewNoopLogger())
	require.NoError(t, err)

	err = second.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start UDP transport")
}

// TestBuildApplication_ConfigurationVariations tests different configurations
func TestBuildApplication_ConfigurationVariations(t *testing.T) {
	dir := t.TempDir()
	blocklistFile := filepath.Join(dir, "blocked.txt")
	require.NoError(t, os.WriteFile(blocklistFile, []byte("ads.example.com\n"), 0o644))

	tests := []struct {
		name          string
		mutate        func(cfg *config.AppConfig)
		wantErr       bool
		errorContains string
		forwarding    bool
		cache         bool
		snapshot      bool
	}{
		{
			name:   "minimal valid config",
			mutate: func(cfg *config.AppConfig) {},
		},
		{
			name: "forwarding without cache",
			mutate: func(cfg *config.AppConfig) {
				cfg.Resolver = "127.0.0.1:5353"
			},
			forwarding: true,
		},
		{
			name: "forwarding with cache",
			mutate: func(cfg *config.AppConfig) {
				cfg.Resolver = "127.0.0.1:5353"
				cfg.CacheEnabled = true
			},
			forwarding: true,
			cache:      true,
		},
		{
			name: "cache ignored when synthesizing",
			mutate: func(cfg *config.AppConfig) {
				cfg.CacheEnabled = true
			},
		},
		{
			name: "cache with snapshot",
			mutate: func(cfg *config.AppConfig) {
				cfg.Resolver = "127.0.0.1:5353"
				cfg.CacheEnabled = true
				cfg.CacheSnapshot = filepath.Join(t.TempDir(), "cache.db")
			},
			forwarding: true,
			cache:      true,
			snapshot:   true,
		},
		{
			name: "blocklist file",
			mutate: func(cfg *config.AppConfig) {
				cfg.BlocklistFile = blocklistFile
			},
		},
		{
			name: "missing blocklist file",
			mutate: func(cfg *config.AppConfig) {
				cfg.BlocklistFile = filepath.Join(dir, "missing.txt")
			},
			wantErr:       true,
			errorContains: "failed to load blocklist",
		},
		{
			name: "invalid cache size",
			mutate: func(cfg *config.AppConfig) {
				cfg.Resolver = "127.0.0.1:5353"
				cfg.CacheEnabled = true
				cfg.CacheSize = 0
			},
			wantErr:       true,
			errorContains: "failed to create answer cache",
		},
		{
			name: "unopenable snapshot",
			mutate: func(cfg *config.AppConfig) {
				cfg.Resolver = "127.0.0.1:5353"
				cfg.CacheEnabled = true
				cfg.CacheSnapshot = filepath.Join(dir, "missing", "cache.db")
			},
			wantErr:       true,
			errorContains: "failed to open cache snapshot",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)

			app, err := buildApplication(cfg, log.NewNoopLogger())

			if tt.wantErr {
				assert.Error(t, err)
				if tt.errorContains != "" {
					assert.Contains(t, err.Error(), tt.errorContains)
				}
				assert.Nil(t, app)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, app)
			assert.NotNil(t, app.transport)
			assert.NotNil(t, app.resolver)
			assert.Equal(t, tt.forwarding, app.resolver.Forwarding())
			assert.Equal(t, tt.cache, app.cache != nil)
			assert.Equal(t, tt.snapshot, app.snapshot != nil)
			if app.snapshot != nil {
				require.NoError(t, app.snapshot.Close())
			}
		})
	}
}

func TestApplication_SnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	cfg := testConfig()
	cfg.Resolver = "127.0.0.1:5353"
	cfg.CacheEnabled = true
	cfg.CacheSnapshot = path

	first, err := buildApplication(cfg, log.NewNoopLogger())
	require.NoError(t, err)
	require.NoError(t, first.Start(context.Background()))

	q, err := domain.NewQuestion("www.example.com", domain.RRTypeA, domain.RRClassIN)
	require.NoError(t, err)
	answer, err := domain.NewAnswer(q.Name, domain.RRTypeA, domain.RRClassIN, 300, []byte{192, 0, 2, 1})
	require.NoError(t, err)
	first.cache.Set(q.CacheKey(), answer, 5*time.Minute)

	require.NoError(t, first.Shutdown())
	assert.Nil(t, first.snapshot)

	second, err := buildApplication(cfg, log.NewNoopLogger())
	require.NoError(t, err)
	defer func() { _ = second.snapshot.Close() }()

	assert.Equal(t, 1, second.cache.Len())
	got, ok := second.cache.Get(q.CacheKey())
	require.True(t, ok)
	assert.Equal(t, []byte{192, 0, 2, 1}, got.Data)
	assert.LessOrEqual(t, got.TTL, uint32(300))
}
