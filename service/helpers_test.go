package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"audio-recorder/constant"
	"audio-recorder/dto"
	"audio-recorder/entities"
	"audio-recorder/repository"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepo(t *testing.T) repository.RecordingRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&entities.Recording{}, &entities.AudioChunk{}))

	return repository.NewRepoWithDB(db)
}

// memBlobStore keeps payloads in a map. Stands in for MinIO.
type memBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	failPut bool
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{objects: make(map[string][]byte)}
}

func (s *memBlobStore) Put(ctx context.Context, objectName string, payload []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPut {
		return errors.New("blob store unavailable")
	}
	buf := make([]byte, len(payload))
	copy(buf, payload)
	s.objects[objectName] = buf
	return nil
}

func (s *memBlobStore) Get(ctx context.Context, objectName string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, ok := s.objects[objectName]
	if !ok {
		return nil, errors.New("object not found")
	}
	return payload, nil
}

func (s *memBlobStore) Remove(ctx context.Context, objectName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, objectName)
	return nil
}

func (s *memBlobStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// captureEvents records everything published instead of hitting a broker.
type captureEvents struct {
	mu     sync.Mutex
	events []dto.RecordingEvent
}

func (p *captureEvents) Publish(ctx context.Context, event dto.RecordingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *captureEvents) byName(name constant.EventName) []dto.RecordingEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []dto.RecordingEvent
	for _, e := range p.events {
		if e.Event == name.String() {
			out = append(out, e)
		}
	}
	return out
}
