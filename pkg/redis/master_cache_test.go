package redis

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	client, err := NewClient(context.Background(), Config{Host: mr.Host(), Port: port}, ectologger.NewEctoLogger(func(ectologger.EctoLogMessage) {}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestNewClient_Unreachable(t *testing.T) {
	_, err := NewClient(context.Background(), Config{Host: "127.0.0.1", Port: 1}, ectologger.NewEctoLogger(func(ectologger.EctoLogMessage) {}))
	assert.ErrorContains(t, err, "failed to connect to Redis")
}

func TestMasterCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)
	cache := NewMasterCache(client, time.Minute, client.logger)

	_, ok := cache.GetMasters(ctx, "owner-1")
	assert.False(t, ok)

	masters := []models.MasterExercise{{ID: "m1", OwnerID: "owner-1", Name: "Row", NormalizedName: "row"}}
	cache.SetMasters(ctx, "owner-1", 0, masters)

	got, ok := cache.GetMasters(ctx, "owner-1")
	require.True(t, ok)
	assert.Equal(t, "m1", got[0].ID)
	assert.Equal(t, "row", got[0].NormalizedName)

	_, ok = cache.GetMasters(ctx, "owner-2")
	assert.False(t, ok)

	assert.Equal(t, time.Minute, mr.TTL(masterKey("owner-1")))
}

func TestMasterCache_EmptyListIsAHit(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)
	cache := NewMasterCache(client, 0, client.logger)

	cache.SetMasters(ctx, "owner-1", 0, nil)
	got, ok := cache.GetMasters(ctx, "owner-1")
	require.True(t, ok)
	assert.Empty(t, got)
}

func TestMasterCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)
	cache := NewMasterCache(client, time.Minute, client.logger)

	cache.SetMasters(ctx, "owner-1", 0, []models.MasterExercise{{ID: "m1"}})
	cache.SetMasters(ctx, "owner-2", 0, []models.MasterExercise{{ID: "m2"}})
	cache.Invalidate(ctx, "owner-1")

	assert.False(t, mr.Exists(masterKey("owner-1")))
	assert.True(t, mr.Exists(masterKey("owner-2")))
}

func TestMasterCache_CorruptEntryIsDropped(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)
	cache := NewMasterCache(client, time.Minute, client.logger)
	require.NoError(t, mr.Set(masterKey("owner-1"), "not json"))

	_, ok := cache.GetMasters(ctx, "owner-1")
	assert.False(t, ok)
	assert.False(t, mr.Exists(masterKey("owner-1")))
}

func TestMasterCache_ExpiresWithTTL(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)
	cache := NewMasterCache(client, time.Minute, client.logger)

	cache.SetMasters(ctx, "owner-1", 0, []models.MasterExercise{{ID: "m1"}})
	mr.FastForward(2 * time.Minute)

	_, ok := cache.GetMasters(ctx, "owner-1")
	assert.False(t, ok)
}

func TestMasterCache_InvalidateAdvancesGeneration(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)
	cache := NewMasterCache(client, time.Minute, client.logger)

	generation, ok := cache.Generation(ctx, "owner-1")
	require.True(t, ok)
	assert.Equal(t, int64(0), generation)

	cache.Invalidate(ctx, "owner-1")
	cache.Invalidate(ctx, "owner-1")

	generation, ok = cache.Generation(ctx, "owner-1")
	require.True(t, ok)
	assert.Equal(t, int64(2), generation)
	assert.Equal(t, time.Duration(0), mr.TTL(generationKey("owner-1")))

	other, _ := cache.Generation(ctx, "owner-2")
	assert.Equal(t, int64(0), other)
}

func TestMasterCache_StaleFillIsSkipped(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)
	cache := NewMasterCache(client, time.Minute, client.logger)

	// a reader takes the generation and loads the list, then a write invalidates before the fill
	generation, ok := cache.Generation(ctx, "owner-1")
	require.True(t, ok)
	cache.Invalidate(ctx, "owner-1")
	cache.SetMasters(ctx, "owner-1", generation, []models.MasterExercise{{ID: "m1"}})

	_, ok = cache.GetMasters(ctx, "owner-1")
	assert.False(t, ok)
	assert.False(t, mr.Exists(masterKey("owner-1")))

	current, _ := cache.Generation(ctx, "owner-1")
	cache.SetMasters(ctx, "owner-1", current, []models.MasterExercise{{ID: "m1"}, {ID: "m2"}})

	got, ok := cache.GetMasters(ctx, "owner-1")
	require.True(t, ok)
	assert.Len(t, got, 2)
}

func TestMasterCache_GenerationUnavailable(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)
	cache := NewMasterCache(client, time.Minute, client.logger)
	require.NoError(t, mr.Set(generationKey("owner-1"), "not a number"))

	_, ok := cache.Generation(ctx, "owner-1")
	assert.False(t, ok)
}

func TestConfigAddr(t *testing.T) {
	assert.Equal(t, "localhost:6379", Config{Host: "localhost", Port: 6379}.Addr())
	assert.Equal(t, "[::1]:6379", Config{Host: "::1", Port: 6379}.Addr())
}
