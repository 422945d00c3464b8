package catalog

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// countingRepo counts ListAssociations passes to the underlying repo.
type countingRepo struct {
	*MemoryRepo
	calls int
}

func (c *countingRepo) ListAssociations(ctx context.Context, sessionTypeID string) ([]Association, error) {
	c.calls++
	return c.MemoryRepo.ListAssociations(ctx, sessionTypeID)
}

func newCacheFixture(t *testing.T) (*countingRepo, *CachedRepo, *mr.Miniredis) {
	t.Helper()
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)

	inner := &countingRepo{MemoryRepo: NewMemoryRepo()}
	inner.AddAssociation(Association{ID: "a1", SessionTypeID: "st1", TestTypeID: "tt1", DocumentTypeID: "dt1"})

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	return inner, NewCachedRepo(inner, client, time.Minute), m
}

func TestCachedRepoReadThrough(t *testing.T) {
	inner, cached, _ := newCacheFixture(t)
	ctx := context.Background()

	got, err := cached.ListAssociations(ctx, "st1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, 1, inner.calls)

	// second read served from Redis
	got, err = cached.ListAssociations(ctx, "st1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, 1, inner.calls)
}

func TestCachedRepoInvalidate(t *testing.T) {
	inner, cached, _ := newCacheFixture(t)
	ctx := context.Background()

	_, err := cached.ListAssociations(ctx, "st1")
	require.NoError(t, err)
	require.Equal(t, 1, inner.calls)

	require.NoError(t, cached.Invalidate(ctx, "st1"))

	_, err = cached.ListAssociations(ctx, "st1")
	require.NoError(t, err)
	require.Equal(t, 2, inner.calls, "invalidation forces a reload")
}

func TestCachedRepoCorruptEntryFallsThrough(t *testing.T) {
	inner, cached, m := newCacheFixture(t)
	ctx := context.Background()

	require.NoError(t, m.Set("assoc:st1", "not json"))

	got, err := cached.ListAssociations(ctx, "st1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, 1, inner.calls)
}

func TestCachedRepoPassesThroughOtherLookups(t *testing.T) {
	inner, cached, _ := newCacheFixture(t)
	inner.AddEquipment(Equipment{ID: "eq1", EquipmentTypeID: "et1"})

	eq, err := cached.GetEquipment(context.Background(), "eq1")
	require.NoError(t, err)
	require.Equal(t, "et1", eq.EquipmentTypeID)
}
