package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Team-synvo/jb-ai/internal/platform/config"
	"github.com/Team-synvo/jb-ai/internal/platform/observability"
	"github.com/Team-synvo/jb-ai/internal/visits"
)

func TestRunReturnsStartupErrors(t *testing.T) {
	cfg, err := config.Load(context.Background(), config.WithEnvFile(""), config.WithoutSystemEnv(),
		config.WithEnvMap(map[string]string{"APP_CATALOG_PATH": filepath.Join(t.TempDir(), "missing.yaml")}))
	require.NoError(t, err)

	ctx := observability.WithLogger(context.Background(), zaptest.NewLogger(t))
	require.Error(t, run(ctx, cfg, ""))
}

func TestOpenRepositoryMemory(t *testing.T) {
	repo, closer, err := openRepository(context.Background(), config.VisitsConfig{Backend: config.BackendMemory}, config.CloudConfig{})
	require.NoError(t, err)
	require.IsType(t, &visits.MemoryRepository{}, repo)
	require.NoError(t, closer.Close())
}

func TestOpenRepositorySQLite(t *testing.T) {
	cfg := config.VisitsConfig{Backend: config.BackendSQLite, SQLitePath: filepath.Join(t.TempDir(), "visits.db")}
	repo, closer, err := openRepository(context.Background(), cfg, config.CloudConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = closer.Close() })

	total, err := repo.Increment(context.Background(), "site:visits")
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
}

func TestIsTrue(t *testing.T) {
	for _, v := range []string{"true", " YES ", "1", "on"} {
		require.True(t, isTrue(v), v)
	}
	for _, v := range []string{"", "false", "0", "maybe"} {
		require.False(t, isTrue(v), v)
	}
}
