package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/vintra/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis spins up a Redis container and returns a connected RedisCache + cleanup.
func setupRedis(t *testing.T) *cache.RedisCache {
	t.Helper()
	rc, err := cache.NewRedisCache(startRedis(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })
	return rc
}

// startRedis runs a Redis container and returns its URL.
func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, container.Terminate(ctx)) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	return "redis://" + host + ":" + port.Port()
}

// --- Ping ---

func TestPing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	err := rc.Ping(context.Background())
	assert.NoError(t, err)
}

// --- Set / Get roundtrip ---

func TestSetGet_Roundtrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()

	err := rc.Set(ctx, "consultation:status:roundtrip", []byte(`{"status":"transcribing","progress":50}`), 10*time.Second)
	require.NoError(t, err)

	val, found, err := rc.Get(ctx, "consultation:status:roundtrip")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte(`{"status":"transcribing","progress":50}`), val)
}

func TestGet_NotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)

	val, found, err := rc.Get(context.Background(), "consultation:status:missing")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, val)
}

func TestSet_TTLExpiry(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()

	err := rc.Set(ctx, "consultation:status:expiring", []byte(`{"status":"initializing","progress":0}`), 1*time.Second)
	require.NoError(t, err)

	// Immediately should exist
	_, found, err := rc.Get(ctx, "consultation:status:expiring")
	require.NoError(t, err)
	assert.True(t, found)

	// Wait for TTL to expire
	time.Sleep(1500 * time.Millisecond)

	_, found, err = rc.Get(ctx, "consultation:status:expiring")
	require.NoError(t, err)
	assert.False(t, found)
}

// --- Delete ---

func TestDelete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, rc.Set(ctx, "consultation:status:deleted", []byte(`{"status":"completed","progress":100}`), 10*time.Second))

	err := rc.Delete(ctx, "consultation:status:deleted")
	require.NoError(t, err)

	_, found, err := rc.Get(ctx, "consultation:status:deleted")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDelete_NonExistent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)

	err := rc.Delete(context.Background(), "does:not:exist")
	assert.NoError(t, err)
}

// --- IncrWithExpiry ---

func TestIncrWithExpiry(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()
	key := "ratelimit:upload:" + uuid.NewString()[:8]

	val, err := rc.IncrWithExpiry(ctx, key, 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(1), val)

	val, err = rc.IncrWithExpiry(ctx, key, 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(2), val)

	val, err = rc.IncrWithExpiry(ctx, key, 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(3), val)
}

func TestIncrWithExpiry_Expires(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()
	key := "ratelimit:upload-expiry:" + uuid.NewString()[:8]

	_, err := rc.IncrWithExpiry(ctx, key, 1*time.Second)
	require.NoError(t, err)

	time.Sleep(1500 * time.Millisecond)

	// After expiry, should start from 1 again
	val, err := rc.IncrWithExpiry(ctx, key, 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(1), val)
}

// --- Cache Key Builders ---

func TestStatusKey(t *testing.T) {
	jobID := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	key := cache.StatusKey(jobID.String())
	assert.Equal(t, "consultation:status:22222222-2222-2222-2222-222222222222", key)
}

func TestRateLimitKey(t *testing.T) {
	key := cache.RateLimitKey("vt_abcd1234")
	assert.Equal(t, "ratelimit:vt_abcd1234", key)
}

func TestKeyBuilders_NonColliding(t *testing.T) {
	keys := map[string]bool{
		cache.StatusKey(uuid.NewString()): true,
		cache.RateLimitKey("vt_prefix"):   true,
		cache.RateLimitKey("203.0.113.7"): true,
	}
	assert.Len(t, keys, 3, "all keys should be unique")
}

// --- Namespacing ---

func TestKey_Namespace(t *testing.T) {
	rc, err := cache.NewRedisCache("redis://localhost:6379", cache.WithNamespace("vintra"))
	require.NoError(t, err)
	assert.Equal(t, "vintra:consultation:status:abc", rc.Key(cache.StatusKey("abc")))

	bare, err := cache.NewRedisCache("redis://localhost:6379")
	require.NoError(t, err)
	assert.Equal(t, "ratelimit:addr:10.0.0.1", bare.Key(cache.RateLimitKey("addr:10.0.0.1")))
}

func TestNewRedisCache_InvalidURL(t *testing.T) {
	_, err := cache.NewRedisCache("not-a-redis-url")
	assert.Error(t, err)
}

func TestNamespace_IsolatesInstances(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	url := startRedis(t)
	ctx := context.Background()

	rc, err := cache.NewRedisCache(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })
	prod, err := cache.NewRedisCache(url, cache.WithNamespace("prod"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = prod.Close() })
	staging, err := cache.NewRedisCache(url, cache.WithNamespace("staging"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = staging.Close() })

	key := cache.StatusKey(uuid.NewString())
	require.NoError(t, prod.Set(ctx, key, []byte("prod"), time.Minute))

	_, found, err := staging.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)

	raw, found, err := rc.Get(ctx, "prod:"+key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "prod", string(raw))
}

// --- JSON helpers ---

type mapCache struct {
	entries map[string][]byte
}

func (m *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.entries[key] = value
	return nil
}

func (m *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *mapCache) Delete(_ context.Context, key string) error {
	delete(m.entries, key)
	return nil
}

func (m *mapCache) Ping(_ context.Context) error { return nil }

func (m *mapCache) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	return 0, nil
}

type jobSnapshot struct {
	Status   string `json:"status"`
	Progress int    `json:"progress"`
}

func TestJSON_Roundtrip(t *testing.T) {
	ctx := context.Background()
	mc := &mapCache{entries: map[string][]byte{}}

	require.NoError(t, cache.SetJSON(ctx, mc, "job", jobSnapshot{Status: "transcribing", Progress: 50}, time.Minute))
	assert.JSONEq(t, `{"status":"transcribing","progress":50}`, string(mc.entries["job"]))

	got, found, err := cache.GetJSON[jobSnapshot](ctx, mc, "job")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, jobSnapshot{Status: "transcribing", Progress: 50}, got)
}

func TestGetJSON_Miss(t *testing.T) {
	_, found, err := cache.GetJSON[jobSnapshot](context.Background(), &mapCache{entries: map[string][]byte{}}, "nope")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetJSON_Corrupt(t *testing.T) {
	mc := &mapCache{entries: map[string][]byte{"job": []byte("{not json")}}

	_, found, err := cache.GetJSON[jobSnapshot](context.Background(), mc, "job")
	assert.ErrorIs(t, err, cache.ErrCorrupt)
	assert.False(t, found)
}
