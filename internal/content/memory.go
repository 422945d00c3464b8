package content

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mardix/equiptest/internal/errs"
	"github.com/mardix/equiptest/pkg/metrics"
)

// MemoryStore is the in-memory Store used for unit tests and for running the
// service without object storage configured.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string]Blob   // checksum -> blob
	data  map[string][]byte // checksum -> payload
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs: make(map[string]Blob),
		data:  make(map[string][]byte),
	}
}

// Put stores data under its checksum. Re-putting identical bytes returns the
// existing Blob without copying.
func (s *MemoryStore) Put(_ context.Context, data []byte) (Blob, error) {
	sum := ChecksumBytes(data)
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.blobs[sum]; ok {
		metrics.BlobsDeduplicated.Inc()
		return b, nil
	}
	b := Blob{
		ID:        uuid.NewString(),
		Checksum:  sum,
		SizeBytes: int64(len(data)),
		CreatedAt: time.Now().UTC(),
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	s.blobs[sum] = b
	s.data[sum] = cp
	return b, nil
}

func (s *MemoryStore) Get(_ context.Context, checksum string) ([]byte, error) {
	s.mu.RLock()
	payload, ok := s.data[checksum]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("blob %s: %w", checksum, errs.ErrNotFound)
	}
	if ChecksumBytes(payload) != checksum {
		return nil, fmt.Errorf("blob %s: %w", checksum, errs.ErrIntegrity)
	}
	out := make([]byte, len(payload))
	copy(out, payload)
	return out, nil
}

// Sweep drops every blob whose checksum is absent from referenced.
func (s *MemoryStore) Sweep(_ context.Context, referenced map[string]bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sum := range s.blobs {
		if !referenced[sum] {
			delete(s.blobs, sum)
			delete(s.data, sum)
		}
	}
	return nil
}

// Len reports the number of distinct blobs held. Test helper.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
