package content

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/mardix/equiptest/internal/errs"
	"github.com/mardix/equiptest/pkg/metrics"
)

// MinIOConfig holds MinIO connection configuration.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// MinIOStore is a Store backed by a MinIO/S3 bucket. The object key is the
// payload checksum, so deduplication and concurrent-writer safety fall out of
// content addressing: two writers racing on the same bytes write the same
// immutable object.
type MinIOStore struct {
	client *minio.Client
	bucket string
}

// NewMinIOStore creates the client and ensures the bucket exists.
func NewMinIOStore(cfg *MinIOConfig) (*MinIOStore, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio config missing")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}
	s := &MinIOStore{client: mc, bucket: cfg.Bucket}
	// ensure bucket exists (idempotent)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mc.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		exist, xerr := mc.BucketExists(ctx, s.bucket)
		if xerr != nil || !exist {
			return nil, fmt.Errorf("minio bucket ensure: %w", err)
		}
	}
	return s, nil
}

func (s *MinIOStore) Put(ctx context.Context, data []byte) (Blob, error) {
	sum := ChecksumBytes(data)
	if st, err := s.client.StatObject(ctx, s.bucket, sum, minio.StatObjectOptions{}); err == nil {
		metrics.BlobsDeduplicated.Inc()
		return Blob{
			ID:        st.ETag,
			Checksum:  sum,
			SizeBytes: st.Size,
			CreatedAt: st.LastModified,
		}, nil
	}
	_, err := s.client.PutObject(ctx, s.bucket, sum, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return Blob{}, fmt.Errorf("minio put %s: %w", sum, err)
	}
	return Blob{
		ID:        uuid.NewString(),
		Checksum:  sum,
		SizeBytes: int64(len(data)),
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (s *MinIOStore) Get(ctx context.Context, checksum string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, checksum, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("minio get %s: %w", checksum, err)
	}
	defer obj.Close()
	if _, err := obj.Stat(); err != nil {
		return nil, fmt.Errorf("blob %s: %w", checksum, errs.ErrNotFound)
	}
	payload, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("minio read %s: %w", checksum, err)
	}
	if ChecksumBytes(payload) != checksum {
		return nil, fmt.Errorf("blob %s: %w", checksum, errs.ErrIntegrity)
	}
	return payload, nil
}

func (s *MinIOStore) Sweep(ctx context.Context, referenced map[string]bool) error {
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{}) {
		if obj.Err != nil {
			return fmt.Errorf("minio list: %w", obj.Err)
		}
		if referenced[obj.Key] {
			continue
		}
		if err := s.client.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("minio remove %s: %w", obj.Key, err)
		}
	}
	return nil
}
