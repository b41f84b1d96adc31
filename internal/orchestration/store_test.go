package orchestration

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leefowlercu/chunkalyze/internal/analysis"
	"github.com/leefowlercu/chunkalyze/internal/providers"
)

func sampleInstance(id string, status RuntimeStatus) *Instance {
	summary := "Short summary."
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &Instance{
		ID:            id,
		Method:        providers.MethodExtractiveSummarization,
		RuntimeStatus: status,
		Phase:         PhaseAnalysisComplete,
		ChunkCount:    3,
		Output:        []string{"Summarization:" + summary},
		Result: &analysis.Result{
			Method:        providers.MethodExtractiveSummarization,
			Items:         []string{},
			Summarization: &summary,
			Rounds:        2,
		},
		CreatedAt:     now,
		LastUpdatedAt: now,
	}
}

func TestMemoryStore_SaveGet(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	ctx := context.Background()

	inst := sampleInstance("a", StatusCompleted)
	require.NoError(t, s.Save(ctx, inst))

	// Mutating the saved value does not affect the stored copy.
	inst.Output[0] = "changed"

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Summarization:Short summary.", got.Output[0])

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrInstanceNotFound)
}

func TestMemoryStore_Expiry(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	now := time.Now()
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleInstance("a", StatusRunning)))
	require.NoError(t, s.Save(ctx, sampleInstance("b", StatusCompleted)))

	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[StatusRunning])
	assert.Equal(t, 1, counts[StatusCompleted])

	now = now.Add(2 * time.Minute)
	_, err = s.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrInstanceNotFound)

	counts, err = s.Counts(ctx)
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStoreFromClient(client, ttl)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisStore_RoundTrip(t *testing.T) {
	s, _ := newRedisStore(t, time.Hour)
	ctx := context.Background()

	inst := sampleInstance("abc", StatusCompleted)
	require.NoError(t, s.Save(ctx, inst))

	got, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, inst.ID, got.ID)
	assert.Equal(t, inst.RuntimeStatus, got.RuntimeStatus)
	assert.Equal(t, inst.Phase, got.Phase)
	assert.Equal(t, inst.Output, got.Output)
	require.NotNil(t, got.Result)
	require.NotNil(t, got.Result.Summarization)
	assert.Equal(t, "Short summary.", *got.Result.Summarization)
	assert.True(t, inst.CreatedAt.Equal(got.CreatedAt))

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrInstanceNotFound)
	assert.NoError(t, s.Ping(ctx))
}

func TestRedisStore_TTL(t *testing.T) {
	s, mr := newRedisStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleInstance("abc", StatusRunning)))
	assert.Equal(t, time.Minute, mr.TTL(redisKeyPrefix+"abc"))

	mr.FastForward(2 * time.Minute)
	_, err := s.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrInstanceNotFound)
}

func TestRedisStore_Counts(t *testing.T) {
	s, mr := newRedisStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleInstance("a", StatusRunning)))
	require.NoError(t, s.Save(ctx, sampleInstance("b", StatusRunning)))
	require.NoError(t, s.Save(ctx, sampleInstance("c", StatusFailed)))
	require.NoError(t, mr.Set("unrelated", "x"))

	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[RuntimeStatus]int{StatusRunning: 2, StatusFailed: 1}, counts)
}

func TestStoreMetrics(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	require.NoError(t, s.Save(context.Background(), sampleInstance("a", StatusRunning)))

	assert.NoError(t, NewStoreMetrics(s).CollectMetrics(context.Background()))
}

func TestRuntimeStatus_Terminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusRunning.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.True(t, StatusTerminated.Terminal())
}
