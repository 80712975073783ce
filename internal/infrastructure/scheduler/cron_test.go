package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCronSchedulerRejectsBadSpec(t *testing.T) {
	t.Parallel()

	_, err := NewCronScheduler("not a cron", nil)
	assert.Error(t, err)
}

func TestNext(t *testing.T) {
	t.Parallel()

	s, err := NewCronScheduler("0 6 * * *", time.UTC)
	require.NoError(t, err)

	from := time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 2, 6, 0, 0, 0, time.UTC), s.Next(from))
}

func TestStartStop(t *testing.T) {
	t.Parallel()

	s, err := NewCronScheduler("* * * * *", nil)
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background(), func(time.Time) {}))
	require.NoError(t, s.Start(context.Background(), func(time.Time) {}), "second start is a no-op")
	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, s.Stop(context.Background()), "stopping twice is harmless")
}
