package filelink

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	db "github.com/sundayezeilo/filedrop/internal/db/sqlc"
	"github.com/sundayezeilo/filedrop/internal/errx"
)

// querier is the subset of *db.Queries the repository needs.
type querier interface {
	CreateFileLink(ctx context.Context, arg db.CreateFileLinkParams) (db.FileLink, error)
	GetActiveFileLink(ctx context.Context, arg db.GetActiveFileLinkParams) (db.FileLink, error)
	DeleteExpiredFileLinks(ctx context.Context, now int64) (int64, error)
}

// SQLRepository stores links in Postgres through sqlc queries.
type SQLRepository struct {
	q querier
}

// NewRepository returns the Postgres-backed repository.
func NewRepository(q querier) *SQLRepository {
	return &SQLRepository{q: q}
}

func toDomainLink(x db.FileLink) (Link, error) {
	if x.ObjectKey == "" {
		return Link{}, errors.New("stored link has an empty object key")
	}

	var hash []byte
	if len(x.PasswordHash) > 0 {
		hash = x.PasswordHash
	}

	return Link{
		RandomURI:    x.RandomUri,
		Key:          x.ObjectKey,
		Expires:      x.Expires,
		PasswordHash: hash,
	}, nil
}

func mapRepoError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return errx.E(op, errx.NotFound, err)
	}
	return errx.E(op, errx.Unavailable, err)
}

func (r *SQLRepository) Create(ctx context.Context, link Link) (Link, error) {
	const op = "filelink.repo.Create"

	row, err := r.q.CreateFileLink(ctx, db.CreateFileLinkParams{
		RandomUri:    link.RandomURI,
		ObjectKey:    link.Key,
		Expires:      link.Expires,
		PasswordHash: link.PasswordHash,
	})
	if err != nil {
		return Link{}, mapRepoError(op, err)
	}

	created, err := toDomainLink(row)
	if err != nil {
		return Link{}, errx.E(op, errx.Internal, err)
	}
	return created, nil
}

func (r *SQLRepository) FindActive(ctx context.Context, id uuid.UUID, now time.Time) (Link, error) {
	const op = "filelink.repo.FindActive"

	row, err := r.q.GetActiveFileLink(ctx, db.GetActiveFileLinkParams{
		RandomUri: id,
		Now:       now.Unix(),
	})
	if err != nil {
		return Link{}, mapRepoError(op, err)
	}

	link, err := toDomainLink(row)
	if err != nil {
		return Link{}, errx.E(op, errx.Internal, err)
	}
	return link, nil
}

func (r *SQLRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const op = "filelink.repo.DeleteExpired"

	n, err := r.q.DeleteExpiredFileLinks(ctx, now.Unix())
	if err != nil {
		return 0, errx.E(op, errx.Unavailable, err)
	}
	return n, nil
}
