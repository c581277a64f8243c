package filelink

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/sundayezeilo/filedrop/internal/errx"
)

// sharedReadTimeout bounds a coalesced store read.
const sharedReadTimeout = 5 * time.Second

// CoalescingRepository collapses concurrent FindActive calls for the same
// link into one store read. Calls are keyed by id and Unix second, which is
// all the expiry filter looks at, so a shared result is exactly what each
// caller would have read on its own.
type CoalescingRepository struct {
	Repository
	group singleflight.Group
}

// NewCoalescingRepository wraps repo. Create passes straight through.
func NewCoalescingRepository(repo Repository) *CoalescingRepository {
	return &CoalescingRepository{Repository: repo}
}

// FindActive returns as soon as ctx is done, even while the shared read it
// joined is still running for other callers.
func (r *CoalescingRepository) FindActive(ctx context.Context, id uuid.UUID, now time.Time) (Link, error) {
	const op = "filelink.repo.FindActive"
	key := id.String() + "@" + strconv.FormatInt(now.Unix(), 10)

	// The shared read must not die with whichever caller started it, so it
	// gets its own deadline instead.
	detached := context.WithoutCancel(ctx)
	ch := r.group.DoChan(key, func() (any, error) {
		readCtx, cancel := context.WithTimeout(detached, sharedReadTimeout)
		defer cancel()
		return r.Repository.FindActive(readCtx, id, now)
	})

	select {
	case <-ctx.Done():
		return Link{}, errx.E(op, errx.Unavailable, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return Link{}, res.Err
		}
		return res.Val.(Link), nil
	}
}
