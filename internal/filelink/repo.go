package filelink

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists link records. FindActive applies the expiry filter in
// the store itself, so missing and expired links are indistinguishable.
type Repository interface {
	Create(ctx context.Context, link Link) (Link, error)
	FindActive(ctx context.Context, id uuid.UUID, now time.Time) (Link, error)
}

// Purger removes records that can never be active again.
type Purger interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
