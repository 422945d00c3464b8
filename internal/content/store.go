package content

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Blob describes one immutable stored payload. Blobs are keyed by checksum:
// two identical payloads share one Blob regardless of which revisions point
// at them.
type Blob struct {
	ID        string    `bson:"id" json:"id"`
	Checksum  string    `bson:"checksum" json:"checksum"`
	SizeBytes int64     `bson:"sizeBytes" json:"sizeBytes"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// Store is a content-addressed blob store. Put has insert-or-return-existing
// semantics and must be safe under concurrent writers; Get verifies the
// payload against its recorded checksum and reports errs.ErrIntegrity on
// mismatch. Sweep deletes blobs whose checksum is not in the referenced set
// (teardown GC, never run inline with a reconcile).
type Store interface {
	Put(ctx context.Context, data []byte) (Blob, error)
	Get(ctx context.Context, checksum string) ([]byte, error)
	Sweep(ctx context.Context, referenced map[string]bool) error
}

// ChecksumBytes returns the hex SHA-256 of data, the key used throughout for
// dedup and integrity checks.
func ChecksumBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
