package filelink

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sundayezeilo/filedrop/internal/errx"
)

// gatedRepository blocks every FindActive until release is closed.
type gatedRepository struct {
	Repository
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
	link    Link
	err     error
}

func (g *gatedRepository) FindActive(ctx context.Context, id uuid.UUID, now time.Time) (Link, error) {
	g.calls.Add(1)
	select {
	case g.entered <- struct{}{}:
	default:
	}
	<-g.release
	return g.link, g.err
}

func TestCoalescingRepository_SharesConcurrentReads(t *testing.T) {
	id := uuid.New()
	inner := &gatedRepository{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
		link:    Link{RandomURI: id, Key: "tok-a.txt", Expires: testNow.Unix() + 60},
	}
	repo := NewCoalescingRepository(inner)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]Link, callers)
	errs := make([]error, callers)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], errs[0] = repo.FindActive(context.Background(), id, testNow)
	}()
	<-inner.entered

	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = repo.FindActive(context.Background(), id, testNow)
		}(i)
	}
	// Give the followers time to join the in-flight call.
	time.Sleep(50 * time.Millisecond)
	close(inner.release)
	wg.Wait()

	if got := inner.calls.Load(); got != 1 {
		t.Errorf("store reads = %d, want 1", got)
	}
	for i := range callers {
		if errs[i] != nil {
			t.Fatalf("caller %d error = %v", i, errs[i])
		}
		if results[i].Key != "tok-a.txt" {
			t.Errorf("caller %d Key = %q", i, results[i].Key)
		}
	}
}

func TestCoalescingRepository_KeysBySecond(t *testing.T) {
	repo := newMockRepository()
	link := Link{RandomURI: uuid.New(), Key: "tok-a.txt", Expires: testNow.Unix()}
	repo.links[link.RandomURI] = link
	c := NewCoalescingRepository(repo)

	if _, err := c.FindActive(context.Background(), link.RandomURI, testNow); err != nil {
		t.Fatalf("FindActive(at expires) error = %v", err)
	}
	_, err := c.FindActive(context.Background(), link.RandomURI, testNow.Add(time.Second))
	if !errx.Is(err, errx.NotFound) {
		t.Errorf("FindActive(after expires) error = %v, want NotFound", err)
	}
	if repo.findCalls != 2 {
		t.Errorf("store reads = %d, want 2", repo.findCalls)
	}
}

func TestCoalescingRepository_CallerLeavesOnCancel(t *testing.T) {
	id := uuid.New()
	inner := &gatedRepository{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
		link:    Link{RandomURI: id, Key: "tok-a.txt", Expires: testNow.Unix() + 60},
	}
	repo := NewCoalescingRepository(inner)

	ctx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := repo.FindActive(ctx, id, testNow)
		leaderErr <- err
	}()
	<-inner.entered

	follower := make(chan Link, 1)
	go func() {
		link, err := repo.FindActive(context.Background(), id, testNow)
		if err != nil {
			t.Errorf("follower error = %v", err)
		}
		follower <- link
	}()
	time.Sleep(50 * time.Millisecond)

	// The store is still blocked; the cancelled caller must not wait for it.
	cancel()
	select {
	case err := <-leaderErr:
		if !errx.Is(err, errx.Unavailable) || !errors.Is(err, context.Canceled) {
			t.Errorf("cancelled caller error = %v, want Unavailable wrapping context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller did not return while the read was blocked")
	}

	close(inner.release)
	select {
	case link := <-follower:
		if link.Key != "tok-a.txt" {
			t.Errorf("follower Key = %q", link.Key)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("follower did not receive the shared result")
	}
	if got := inner.calls.Load(); got != 1 {
		t.Errorf("store reads = %d, want 1", got)
	}
}

func TestCoalescingRepository_ReadIgnoresCallerCancellation(t *testing.T) {
	var readErr error
	repo := newMockRepository()
	repo.findActiveFunc = func(ctx context.Context, _ uuid.UUID, _ time.Time) (Link, error) {
		readErr = ctx.Err()
		if _, ok := ctx.Deadline(); !ok {
			t.Error("shared read should carry its own deadline")
		}
		return Link{Key: "k"}, nil
	}
	c := NewCoalescingRepository(repo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if _, err := c.FindActive(ctx, uuid.New(), testNow); err != nil {
		t.Fatalf("FindActive() error = %v", err)
	}
	if readErr != nil {
		t.Errorf("store saw ctx error %v, want a live context", readErr)
	}
}

func TestCoalescingRepository_CreatePassesThrough(t *testing.T) {
	repo := newMockRepository()
	c := NewCoalescingRepository(repo)

	link := Link{RandomURI: uuid.New(), Key: "tok-a.txt", Expires: testNow.Unix() + 60}
	if _, err := c.Create(context.Background(), link); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, ok := repo.links[link.RandomURI]; !ok {
		t.Error("Create() did not reach the wrapped repository")
	}
}
