package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SetAndGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	require.NoError(t, c.Set(ctx, "42", "hola", time.Minute))

	val, ok, err := c.Get(ctx, "42")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hola", val)

	_, ok, err = c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "a", "uno", time.Minute))
	require.NoError(t, c.Set(ctx, "b", "dos", 0))

	now = now.Add(2 * time.Minute)

	_, ok, _ := c.Get(ctx, "a")
	assert.False(t, ok, "entry past its ttl must miss")

	val, ok, _ := c.Get(ctx, "b")
	assert.True(t, ok, "zero ttl never expires")
	assert.Equal(t, "dos", val)
	assert.Equal(t, 1, c.Len())
}

func TestMemory_SweepDropsExpiredEntries(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "old", "a", time.Minute))
	require.NoError(t, c.Set(ctx, "new", "b", time.Hour))
	require.NoError(t, c.Set(ctx, "forever", "c", 0))

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, 2, c.Len())

	now = now.Add(2 * time.Hour)
	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, 1, c.Len())
}

func TestMemory_RunSweeperStopsOnCancel(t *testing.T) {
	c := NewMemory()
	require.NoError(t, c.Set(context.Background(), "k", "v", time.Nanosecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.RunSweeper(ctx, time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestNop_AlwaysMisses(t *testing.T) {
	ctx := context.Background()
	var c Cache = Nop{}

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedis_SetAndGet(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	c := NewRedis(client)

	require.NoError(t, c.Set(ctx, "7", "texto completo", time.Hour))

	val, ok, err := c.Get(ctx, "7")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "texto completo", val)

	assert.True(t, mr.Exists("habla:article:7"))
	assert.Equal(t, time.Hour, mr.TTL("habla:article:7"))
}

func TestRedis_MissAndExpiry(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	c := NewRedis(client)

	_, ok, err := c.Get(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "x", "y", time.Second))
	mr.FastForward(2 * time.Second)

	_, ok, err = c.Get(ctx, "x")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConnect(t *testing.T) {
	mr, _ := newTestRedis(t)

	client, err := Connect(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	defer client.Close()

	client2, err := Connect(context.Background(), mr.Addr())
	require.NoError(t, err)
	defer client2.Close()
}
