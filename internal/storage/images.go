// Package storage conserve les images produits et avis (MinIO, ou mémoire en dev).
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"smartshop_back_end/internal/errs"

	"github.com/minio/minio-go/v7"
)

type ObjectInfo struct {
	ContentType string
	Size        int64
}

type ImageStore interface {
	Put(ctx context.Context, name, contentType string, r io.Reader, size int64) error
	// Get renvoie errs.ErrNotFound si l'objet n'existe pas
	Get(ctx context.Context, name string) (io.ReadCloser, ObjectInfo, error)
}

type MinIOStore struct {
	client *minio.Client
	bucket string
}

func NewMinIOStore(client *minio.Client, bucket string) *MinIOStore {
	return &MinIOStore{client: client, bucket: bucket}
}

func (s *MinIOStore) Put(ctx context.Context, name, contentType string, r io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, s.bucket, name, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=86400",
	})
	if err != nil {
		return fmt.Errorf("upload MinIO %s: %w", name, err)
	}
	return nil
}

func (s *MinIOStore) Get(ctx context.Context, name string) (io.ReadCloser, ObjectInfo, error) {
	// GetObject est paresseux : Stat révèle l'absence de l'objet
	obj, err := s.client.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, ObjectInfo{}, fmt.Errorf("lecture MinIO %s: %w", name, err)
	}
	stat, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		var resp minio.ErrorResponse
		if errors.As(err, &resp) && resp.Code == "NoSuchKey" {
			return nil, ObjectInfo{}, fmt.Errorf("%w: image %s", errs.ErrNotFound, name)
		}
		return nil, ObjectInfo{}, fmt.Errorf("stat MinIO %s: %w", name, err)
	}
	return obj, ObjectInfo{ContentType: stat.ContentType, Size: stat.Size}, nil
}

type memoryObject struct {
	data        []byte
	contentType string
}

type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memoryObject)}
}

func (s *MemoryStore) Put(_ context.Context, name, contentType string, r io.Reader, _ int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.objects[name] = memoryObject{data: data, contentType: contentType}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, name string) (io.ReadCloser, ObjectInfo, error) {
	s.mu.RLock()
	obj, ok := s.objects[name]
	s.mu.RUnlock()
	if !ok {
		return nil, ObjectInfo{}, fmt.Errorf("%w: image %s", errs.ErrNotFound, name)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), ObjectInfo{ContentType: obj.contentType, Size: int64(len(obj.data))}, nil
}
