package filesvc

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/pkg/errors"

	"github.com/minhaescola/backend/core"
)

var ErrFileNotFound = errors.New("file not found")

type memoryObject struct {
	contentType string
	data        []byte
}

// memoryStore keeps files in memory; it backs tests and the inmem engine.
type memoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

var _ core.FileStore = (*memoryStore)(nil)

func NewMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string]memoryObject)}
}

func (s *memoryStore) Put(ctx context.Context, key, contentType string, data io.Reader, size int64) error {
	buf, err := io.ReadAll(data)
	if err != nil {
		return errors.Wrap(err, "storing file")
	}
	s.mu.Lock()
	s.objects[key] = memoryObject{contentType: contentType, data: buf}
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) Get(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return nil, 0, ErrFileNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), int64(len(obj.data)), nil
}

func (s *memoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}
