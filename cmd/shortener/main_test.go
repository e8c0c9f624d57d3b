package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atinyakov/amethyst/internal/app/dispatch"
	"github.com/atinyakov/amethyst/internal/app/service"
	"github.com/atinyakov/amethyst/internal/config"
	"github.com/atinyakov/amethyst/internal/repository"
	"github.com/atinyakov/amethyst/internal/storage"
)

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name string
		opts *config.Options
		want any
	}{
		{"memory", &config.Options{}, &storage.MemoryStorage{}},
		{"file", &config.Options{FilePath: filepath.Join(dir, "links.jsonl")}, &storage.FileStorage{}},
		{"sqlite", &config.Options{DatabaseDSN: filepath.Join(dir, "links.db"), DatabaseDriver: repository.DriverSQLite}, &repository.LinkRepository{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := openStore(ctx, tt.opts, zap.NewNop())
			require.NoError(t, err)
			defer s.Close()

			assert.IsType(t, tt.want, s)

			require.NoError(t, s.Insert(ctx, "abcde", "http://example.com"))
			link, err := s.FindBySlug(ctx, "abcde")
			require.NoError(t, err)
			assert.Equal(t, "http://example.com", link.Destination)
		})
	}

	t.Run("unreachable database", func(t *testing.T) {
		_, err := openStore(ctx, &config.Options{DatabaseDSN: "x", DatabaseDriver: "mysql"}, zap.NewNop())
		assert.Error(t, err)
	})
}

func TestNewLookup(t *testing.T) {
	mem, _ := storage.CreateMemoryStorage()
	svc := service.NewLinkService(mem, service.NewSlugGenerator(mem, nil, 0), zap.NewNop())

	assert.Same(t, svc, newLookup(&config.Options{}, svc))
	assert.IsType(t, &dispatch.HTTPLookup{}, newLookup(&config.Options{LookupEndpoint: "http://lookup:8080", RequestTimeout: time.Second}, svc))
}

func TestRunStopsOnCancel(t *testing.T) {
	opts := &config.Options{
		Port:           "127.0.0.1:0",
		ResultHostname: "http://localhost:8080",
		RequestTimeout: time.Second,
		SlugAttempts:   4,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, opts, zap.NewNop()) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}

func TestHostOf(t *testing.T) {
	host, err := hostOf("https://am.example:8443/base")
	require.NoError(t, err)
	assert.Equal(t, "am.example", host)

	_, err = hostOf("/relative")
	assert.Error(t, err)
}
