package cache

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"AlphaScreener/internal/domain"
	"AlphaScreener/internal/ports"
)

// DefaultBucket is the key-value bucket analyses are cached in.
const DefaultBucket = "ALPHA_SCREENER_CACHE"

// kvBucket is the part of jetstream.KeyValue the cache relies on.
type kvBucket interface {
	Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error)
	Put(ctx context.Context, key string, value []byte) (uint64, error)
	Delete(ctx context.Context, key string, opts ...jetstream.KVDeleteOpt) error
	Keys(ctx context.Context, opts ...jetstream.WatchOpt) ([]string, error)
}

// envelope carries the per-key expiry, since bucket TTL is bucket-wide.
type envelope struct {
	ExpiresAt time.Time       `json:"expiresAt"`
	Value     json.RawMessage `json:"value"`
}

// NATS stores entries in a JetStream key-value bucket shared by every
// process connected to the same server.
type NATS struct {
	bucket kvBucket
	now    func() time.Time
}

var _ ports.Cache = (*NATS)(nil)

// NewNATS creates or updates the bucket. maxAge bounds how long the server
// keeps any entry; per-key ttl is enforced on read.
func NewNATS(ctx context.Context, js jetstream.JetStream, bucket string, maxAge time.Duration) (*NATS, error) {
	if js == nil {
		return nil, fmt.Errorf("jetstream context required")
	}
	if bucket == "" {
		bucket = DefaultBucket
	}
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "Cached project analyses",
		TTL:         maxAge,
	})
	if err != nil {
		return nil, fmt.Errorf("create/update kv bucket: %w", err)
	}
	return newNATS(kv), nil
}

func newNATS(bucket kvBucket) *NATS {
	return &NATS{bucket: bucket, now: time.Now}
}

func (n *NATS) Get(ctx context.Context, key string, dst any) (bool, error) {
	env, err := n.load(ctx, key)
	if errors.Is(err, domain.ErrCacheMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(env.Value, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (n *NATS) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	data, err := json.Marshal(envelope{ExpiresAt: expiry(n.now(), ttl), Value: raw})
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if _, err := n.bucket.Put(ctx, kvKey(key), data); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (n *NATS) Delete(ctx context.Context, key string) error {
	err := n.bucket.Delete(ctx, kvKey(key))
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (n *NATS) Exists(ctx context.Context, key string) (bool, error) {
	_, err := n.load(ctx, key)
	if errors.Is(err, domain.ErrCacheMiss) {
		return false, nil
	}
	return err == nil, err
}

func (n *NATS) Clear(ctx context.Context) error {
	keys, err := n.bucket.Keys(ctx)
	if errors.Is(err, jetstream.ErrNoKeysFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("list keys: %w", err)
	}
	for _, k := range keys {
		if err := n.bucket.Delete(ctx, k); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
			return fmt.Errorf("delete %s: %w", k, err)
		}
	}
	return nil
}

func (n *NATS) load(ctx context.Context, key string) (envelope, error) {
	entry, err := n.bucket.Get(ctx, kvKey(key))
	if errors.Is(err, jetstream.ErrKeyNotFound) || errors.Is(err, jetstream.ErrKeyDeleted) {
		return envelope{}, domain.ErrCacheMiss
	}
	if err != nil {
		return envelope{}, fmt.Errorf("get %s: %w", key, err)
	}

	var env envelope
	if err := json.Unmarshal(entry.Value(), &env); err != nil {
		return envelope{}, fmt.Errorf("decode envelope %s: %w", key, err)
	}
	if !env.ExpiresAt.IsZero() && !n.now().Before(env.ExpiresAt) {
		return envelope{}, domain.ErrCacheMiss
	}
	return env, nil
}

// kvKey maps arbitrary keys onto the bucket's key alphabet.
func kvKey(key string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(key))
}
