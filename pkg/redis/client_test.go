package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	allowed, count, err := client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Fatalf("expected allowed on first request")
	}
	if count != 1 {
		t.Fatalf("expected counter 1 got %d", count)
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expected expire for first increment")
	}

	allowed, count, err = client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed || count != 2 {
		t.Fatalf("unexpected second call state allowed=%v count=%d", allowed, count)
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expire should not be set again")
	}

	allowed, _, err = client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Fatalf("expected limit reached")
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.CacheKey("catalog", "products"); got != "pf:cache:catalog:products" {
		t.Fatalf("unexpected cache key %s", got)
	}
	if got := client.RateLimitKey("scope"); got != "pf:rate_limit:scope" {
		t.Fatalf("unexpected rate limit key %s", got)
	}
	if got := client.IdempotencyKey("evt:processed:orders", "abc"); got != "pf:idempotency:evt:processed:orders:abc" {
		t.Fatalf("unexpected idempotency key %s", got)
	}
	if got := client.CounterKey("hits"); got != "pf:counter:hits" {
		t.Fatalf("unexpected counter key %s", got)
	}
	if got := client.CacheKey("catalog", "", "categories"); got != "pf:cache:catalog:categories" {
		t.Fatalf("empty parts should be skipped, got %s", got)
	}
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	if err := client.Ping(context.Background()); err == nil {
		t.Fatalf("expected error from uninitialized client")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close without raw client should be a no-op: %v", err)
	}
}

type cachedProduct struct {
	ID    string `json:"id"`
	Price string `json:"price"`
}

func newMiniredisClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	raw := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	return NewFromClient(raw), mr
}

func TestJSONCacheRoundTripWithMiniredis(t *testing.T) {
	ctx := context.Background()
	client, mr := newMiniredisClient(t)
	key := client.CacheKey("catalog", "product", "whey")

	var miss cachedProduct
	err := client.GetJSON(ctx, key, &miss)
	require.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, client.SetJSON(ctx, key, cachedProduct{ID: "whey", Price: "149.9"}, time.Minute))
	assert.True(t, mr.Exists(key))
	ttl := mr.TTL(key)
	assert.GreaterOrEqual(t, ttl, time.Minute)
	assert.Less(t, ttl, time.Minute+time.Minute/5)

	var got cachedProduct
	require.NoError(t, client.GetJSON(ctx, key, &got))
	assert.Equal(t, "whey", got.ID)
	assert.Equal(t, "149.9", got.Price)

	require.NoError(t, client.Del(ctx, key))
	assert.False(t, mr.Exists(key))
}

func TestGetJSONRejectsCorruptValue(t *testing.T) {
	ctx := context.Background()
	client, mr := newMiniredisClient(t)
	key := client.CacheKey("broken")
	require.NoError(t, mr.Set(key, "{not json"))

	var dest cachedProduct
	err := client.GetJSON(ctx, key, &dest)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrCacheMiss))
}

func TestIncrWithTTLExpiresWindow(t *testing.T) {
	ctx := context.Background()
	client, mr := newMiniredisClient(t)
	key := client.RateLimitKey("admin:10.0.0.1")

	count, err := client.IncrWithTTL(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	count, err = client.IncrWithTTL(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	mr.FastForward(2 * time.Minute)
	count, err = client.IncrWithTTL(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSetNXOnlyWritesOnce(t *testing.T) {
	ctx := context.Background()
	client, mr := newMiniredisClient(t)
	key := client.IdempotencyKey("evt:processed:orders", "evt-1")

	first, err := client.SetNX(ctx, key, "1", time.Hour)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := client.SetNX(ctx, key, "2", time.Hour)
	require.NoError(t, err)
	assert.False(t, second)

	got, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "1", got)
	assert.Equal(t, time.Hour, mr.TTL(key))
}

type mockCmdable struct {
	data        map[string]string
	incr        map[string]int64
	expireCalls []expireCall
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		incr: make(map[string]int64),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, ok := m.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.incr[key]++
	return redis.NewIntResult(m.incr[key], nil)
}

func (m *mockCmdable) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: expiration})
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
