package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestMemoryRoundTripAndExpiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clk := &clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewMemory()
	c.now = clk.Now

	require.NoError(t, c.Set(ctx, "analysis:Example", payload{Name: "Example", Score: 80}, time.Hour))

	var got payload
	ok, err := c.Get(ctx, "analysis:Example", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, payload{Name: "Example", Score: 80}, got)

	clk.Advance(time.Hour)
	ok, err = c.Exists(ctx, "analysis:Example")
	require.NoError(t, err)
	assert.False(t, ok, "entry expires at its ttl")
}

func TestMemoryNoTTLNeverExpires(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clk := &clock{now: time.Now()}
	c := NewMemory()
	c.now = clk.Now

	require.NoError(t, c.Set(ctx, "k", 1, 0))
	clk.Advance(24 * 365 * time.Hour)

	ok, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryDeleteAndClear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := NewMemory()
	require.NoError(t, c.Set(ctx, "a", 1, time.Minute))
	require.NoError(t, c.Set(ctx, "b", 2, time.Minute))

	require.NoError(t, c.Delete(ctx, "a"))
	ok, _ := c.Exists(ctx, "a")
	assert.False(t, ok)

	require.NoError(t, c.Clear(ctx))
	ok, _ = c.Exists(ctx, "b")
	assert.False(t, ok)
}

func TestMemoryStoresCopies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := NewMemory()
	value := &payload{Name: "before"}
	require.NoError(t, c.Set(ctx, "k", value, time.Minute))
	value.Name = "after"

	var got payload
	_, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.Equal(t, "before", got.Name)
}

type fakeEntry struct {
	jetstream.KeyValueEntry
	key   string
	value []byte
}

func (e fakeEntry) Key() string   { return e.key }
func (e fakeEntry) Value() []byte { return e.value }

type fakeBucket struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{data: map[string][]byte{}}
}

func (b *fakeBucket) Get(_ context.Context, key string) (jetstream.KeyValueEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.data[key]
	if !ok {
		return nil, jetstream.ErrKeyNotFound
	}
	return fakeEntry{key: key, value: v}, nil
}

func (b *fakeBucket) Put(_ context.Context, key string, value []byte) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = value
	return uint64(len(b.data)), nil
}

func (b *fakeBucket) Delete(_ context.Context, key string, _ ...jetstream.KVDeleteOpt) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.data[key]; !ok {
		return jetstream.ErrKeyNotFound
	}
	delete(b.data, key)
	return nil
}

func (b *fakeBucket) Keys(_ context.Context, _ ...jetstream.WatchOpt) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.data) == 0 {
		return nil, jetstream.ErrNoKeysFound
	}
	keys := make([]string, 0, len(b.data))
	for k := range b.data {
		keys = append(keys, k)
	}
	return keys, nil
}

func TestNATSRoundTripAndExpiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clk := &clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	bucket := newFakeBucket()
	c := newNATS(bucket)
	c.now = clk.Now

	require.NoError(t, c.Set(ctx, "analysis:Some Project", payload{Name: "Some Project", Score: 61}, 30*time.Minute))
	for k := range bucket.data {
		assert.Regexp(t, `^[A-Za-z0-9_-]+$`, k, "keys stay within the bucket alphabet")
	}

	var got payload
	ok, err := c.Get(ctx, "analysis:Some Project", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 61, got.Score)

	clk.Advance(31 * time.Minute)
	ok, err = c.Get(ctx, "analysis:Some Project", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNATSMissingKeyIsMiss(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newNATS(newFakeBucket())

	var got payload
	ok, err := c.Get(ctx, "nope", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	exists, err := c.Exists(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.NoError(t, c.Delete(ctx, "nope"))
}

func TestNATSClear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newNATS(newFakeBucket())

	require.NoError(t, c.Clear(ctx), "clearing an empty bucket")
	require.NoError(t, c.Set(ctx, "a", 1, time.Minute))
	require.NoError(t, c.Set(ctx, "b", 2, time.Minute))
	require.NoError(t, c.Clear(ctx))

	ok, err := c.Exists(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPostgresQueries(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	p := NewPostgres(nil, "")
	p.now = func() time.Time { return now }

	query, args, err := p.selectLive("analysis:Example", "value").ToSql()
	require.NoError(t, err)
	assert.Contains(t, query, `SELECT value FROM "analysis_cache"`)
	assert.Contains(t, query, "key = $1")
	assert.Contains(t, query, "expires_at IS NULL OR expires_at > $2")
	assert.Equal(t, []any{"analysis:Example", now}, args)

	query, args, err = p.upsert("k", []byte(`{"a":1}`), time.Hour).ToSql()
	require.NoError(t, err)
	assert.Contains(t, query, `INSERT INTO "analysis_cache"`)
	assert.Contains(t, query, "ON CONFLICT (key) DO UPDATE")
	require.Len(t, args, 3)
	assert.Equal(t, `{"a":1}`, args[1])
	assert.Equal(t, now.Add(time.Hour), args[2])

	_, args, err = p.upsert("k", []byte(`1`), 0).ToSql()
	require.NoError(t, err)
	assert.Nil(t, args[2], "no ttl stores a null expiry")
}
