package app

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AlphaScreener/internal/config"
	"AlphaScreener/internal/domain"
	"AlphaScreener/internal/usecase"
)

func testConfig() config.Config {
	cfg := config.Config{}
	cfg.Cache.Backend = config.CacheMemory
	cfg.Cache.TTL = time.Hour
	cfg.AI.Provider = config.AIAnthropic
	cfg.Scheduler.CronExpression = "0 6 * * *"
	return cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewWithMemoryCache(t *testing.T) {
	t.Parallel()

	a, err := New(context.Background(), testConfig(), quietLogger())
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Analyze(context.Background(), domain.ProjectIdentifier{Name: " "}, usecase.RunOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidIdentifier)
}

func TestNewRejectsUnknownProviders(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Providers.Funding = []string{"messari", "dune"}
	_, err := New(context.Background(), cfg, quietLogger())
	assert.ErrorContains(t, err, "dune")

	cfg = testConfig()
	cfg.AI.Provider = "gemini"
	_, err = New(context.Background(), cfg, quietLogger())
	assert.Error(t, err)
}

func TestPostgresCacheNeedsDatabase(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Cache.Backend = config.CachePostgres
	_, err := New(context.Background(), cfg, quietLogger())
	assert.Error(t, err)
}

func TestWatchRequiresWatchlist(t *testing.T) {
	t.Parallel()

	a, err := New(context.Background(), testConfig(), quietLogger())
	require.NoError(t, err)
	defer a.Close()

	assert.Error(t, a.Watch(context.Background(), false))
}

func TestOrchestratorLogsComponentOnce(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	a, err := New(context.Background(), testConfig(), slog.New(slog.NewTextHandler(&buf, nil)))
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Analyze(context.Background(), domain.ProjectIdentifier{Name: "Example"}, usecase.RunOptions{})
	require.Error(t, err, "no api key is configured")

	var failure string
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.Contains(line, "analysis failed") {
			failure = line
		}
	}
	require.NotEmpty(t, failure)
	assert.Equal(t, 1, strings.Count(failure, "component=orchestrator"))
}
