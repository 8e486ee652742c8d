package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/rs/zerolog"
)

// BlobStore holds chunk payloads. Metadata (ordering, uniqueness) lives in
// the database; this store only maps object names to bytes.
type BlobStore interface {
	Put(ctx context.Context, objectName string, payload []byte, contentType string) error
	Get(ctx context.Context, objectName string) ([]byte, error)
	Remove(ctx context.Context, objectName string) error
}

// ChunkObjectName builds the object key for one chunk payload:
// recordings/{recordingId}/chunks/chunk_{order}.
func ChunkObjectName(recordingID uuid.UUID, chunkOrder int) string {
	return fmt.Sprintf("recordings/%s/chunks/chunk_%06d", recordingID, chunkOrder)
}

type minioStore struct {
	client *minio.Client
	bucket string
}

func NewMinIOStore(client *minio.Client, bucket string) BlobStore {
	return &minioStore{
		client: client,
		bucket: bucket,
	}
}

func (s *minioStore) Put(ctx context.Context, objectName string, payload []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(payload), int64(len(payload)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("object_name", objectName).Msg("failed to store payload")
		return err
	}
	return nil
}

func (s *minioStore) Get(ctx context.Context, objectName string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	payload, err := io.ReadAll(obj)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("object_name", objectName).Msg("failed to read payload")
		return nil, err
	}
	return payload, nil
}

func (s *minioStore) Remove(ctx context.Context, objectName string) error {
	return s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{})
}
