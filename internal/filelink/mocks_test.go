package filelink

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sundayezeilo/filedrop/internal/errx"
	"github.com/sundayezeilo/filedrop/internal/objectstore"
)

/***************
 * Mocks
 ***************/

// testNow is the fixed clock used across the package tests.
var testNow = time.Unix(1_700_000_000, 0).UTC()

// mockRepository keeps links in memory unless a func field overrides it.
type mockRepository struct {
	mu             sync.Mutex
	links          map[uuid.UUID]Link
	createFunc     func(ctx context.Context, link Link) (Link, error)
	findActiveFunc func(ctx context.Context, id uuid.UUID, now time.Time) (Link, error)
	createCalls    int
	findCalls      int
}

func newMockRepository() *mockRepository {
	return &mockRepository{links: map[uuid.UUID]Link{}}
}

func (m *mockRepository) Create(ctx context.Context, link Link) (Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++

	if m.createFunc != nil {
		return m.createFunc(ctx, link)
	}
	m.links[link.RandomURI] = link
	return link, nil
}

func (m *mockRepository) FindActive(ctx context.Context, id uuid.UUID, now time.Time) (Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findCalls++

	if m.findActiveFunc != nil {
		return m.findActiveFunc(ctx, id, now)
	}
	link, ok := m.links[id]
	if !ok || !link.ActiveAt(now) {
		return Link{}, errx.E("mock.FindActive", errx.NotFound, errors.New("not found"))
	}
	return link, nil
}

// mockStore fakes the object store with predictable URLs.
type mockStore struct {
	mu                  sync.Mutex
	presignUploadFunc   func(ctx context.Context, key string) (objectstore.SignedURL, error)
	presignDownloadFunc func(ctx context.Context, key string) (objectstore.SignedURL, error)
	deleteFunc          func(ctx context.Context, key string) error
	deleted             []string
	downloads           int
}

func (m *mockStore) PresignUpload(ctx context.Context, key string) (objectstore.SignedURL, error) {
	if m.presignUploadFunc != nil {
		return m.presignUploadFunc(ctx, key)
	}
	return objectstore.SignedURL{
		URL:       "https://s3.test/file-hosting-app/" + url.PathEscape(key) + "?X-Amz-Signature=put",
		Method:    "PUT",
		Key:       key,
		ExpiresAt: testNow.Add(objectstore.DefaultPresignTTL),
	}, nil
}

func (m *mockStore) PresignDownload(ctx context.Context, key string) (objectstore.SignedURL, error) {
	m.mu.Lock()
	m.downloads++
	m.mu.Unlock()

	if m.presignDownloadFunc != nil {
		return m.presignDownloadFunc(ctx, key)
	}
	return objectstore.SignedURL{
		URL:       "https://s3.test/file-hosting-app/" + url.PathEscape(key) + "?X-Amz-Signature=get",
		Method:    "GET",
		Key:       key,
		ExpiresAt: testNow.Add(objectstore.DefaultPresignTTL),
	}, nil
}

func (m *mockStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	m.deleted = append(m.deleted, key)
	m.mu.Unlock()

	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, key)
	}
	return nil
}

// fakeHasher stands in for bcrypt where hashing cost would only slow tests.
type fakeHasher struct{}

func (fakeHasher) Hash(password string) ([]byte, error) {
	return []byte("fake$" + password), nil
}

func (fakeHasher) Verify(hash []byte, password string) bool {
	return string(hash) == "fake$"+password
}

type stubIDs struct {
	ids  []uuid.UUID
	next int
	err  error
}

func (s *stubIDs) Generate() (uuid.UUID, error) {
	if s.err != nil {
		return uuid.Nil, s.err
	}
	if s.next < len(s.ids) {
		id := s.ids[s.next]
		s.next++
		return id, nil
	}
	return uuid.New(), nil
}

type stubTokens struct {
	token string
	err   error
	calls int
}

func (s *stubTokens) Generate(n int) (string, error) {
	s.calls++
	return s.token, s.err
}

func strPtr(s string) *string { return &s }
