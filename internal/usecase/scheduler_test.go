package usecase

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AlphaScreener/internal/domain"
)

// tickOnce runs the job a single time when started.
type tickOnce struct {
	at      time.Time
	stopped bool
}

func (d *tickOnce) Start(_ context.Context, job func(time.Time)) error {
	job(d.at)
	return nil
}

func (d *tickOnce) Stop(context.Context) error {
	d.stopped = true
	return nil
}

func TestSchedulerLogsFailedRefresh(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	analyzer := &fakeAnalyzer{fail: map[string]error{"Beta": errors.New("boom")}}
	p := NewPipeline(PipelineDeps{
		Analyzer:  analyzer,
		Watchlist: []domain.ProjectIdentifier{{Name: "Alpha"}, {Name: "Beta"}},
		Logger:    slog.New(slog.NewTextHandler(&buf, nil)),
	})
	driver := &tickOnce{at: time.Date(2025, 1, 1, 6, 0, 0, 0, time.UTC)}
	s := NewScheduler(driver, p)

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, []string{"Alpha", "Beta"}, analyzer.calls)
	assert.Contains(t, buf.String(), "scheduled watchlist refresh incomplete")
	assert.Contains(t, buf.String(), "boom")

	require.NoError(t, s.Stop(context.Background()))
	assert.True(t, driver.stopped)
}

func TestSchedulerWithoutDriverIsNoop(t *testing.T) {
	t.Parallel()

	s := NewScheduler(nil, nil)
	assert.NoError(t, s.Start(context.Background()))
	assert.NoError(t, s.Stop(context.Background()))
}
