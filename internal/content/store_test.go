package content

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mardix/equiptest/internal/errs"
)

func TestMemoryStorePutDeduplicates(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	b1, err := s.Put(ctx, []byte("insulation resistance report"))
	require.NoError(t, err)
	require.Equal(t, ChecksumBytes([]byte("insulation resistance report")), b1.Checksum)
	require.Equal(t, int64(len("insulation resistance report")), b1.SizeBytes)

	b2, err := s.Put(ctx, []byte("insulation resistance report"))
	require.NoError(t, err)
	require.Equal(t, b1.ID, b2.ID, "identical payloads must share one blob")
	require.Equal(t, 1, s.Len())

	b3, err := s.Put(ctx, []byte("different payload"))
	require.NoError(t, err)
	require.NotEqual(t, b1.Checksum, b3.Checksum)
	require.Equal(t, 2, s.Len())
}

func TestMemoryStoreGetRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	b, err := s.Put(ctx, []byte("payload"))
	require.NoError(t, err)

	got, err := s.Get(ctx, b.Checksum)
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), got)

	_, err = s.Get(ctx, "no-such-checksum")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestMemoryStoreIntegrityViolation(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	b, err := s.Put(ctx, []byte("original"))
	require.NoError(t, err)

	// corrupt the stored payload behind the store's back
	s.mu.Lock()
	s.data[b.Checksum] = []byte("tampered")
	s.mu.Unlock()

	_, err = s.Get(ctx, b.Checksum)
	require.ErrorIs(t, err, errs.ErrIntegrity)
}

func TestMemoryStoreSweep(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	kept, err := s.Put(ctx, []byte("still referenced"))
	require.NoError(t, err)
	gone, err := s.Put(ctx, []byte("orphaned"))
	require.NoError(t, err)

	require.NoError(t, s.Sweep(ctx, map[string]bool{kept.Checksum: true}))
	require.Equal(t, 1, s.Len())

	_, err = s.Get(ctx, kept.Checksum)
	require.NoError(t, err)
	_, err = s.Get(ctx, gone.Checksum)
	require.ErrorIs(t, err, errs.ErrNotFound)
}
