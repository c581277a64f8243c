package filelink

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sundayezeilo/filedrop/internal/errx"
)

// DefaultRedisKeyPrefix namespaces link hashes.
const DefaultRedisKeyPrefix = "filelink:"

const (
	fieldKey          = "key"
	fieldExpires      = "expires"
	fieldPasswordHash = "password_hash"
)

// RedisRepository stores each link as a hash under prefix+random_uri. The
// hash is given an absolute expiry one second after the link stops being
// active, so Redis evicts it on its own.
type RedisRepository struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisRepository returns a Redis-backed repository.
func NewRedisRepository(client redis.UniversalClient, prefix string) *RedisRepository {
	if prefix == "" {
		prefix = DefaultRedisKeyPrefix
	}
	return &RedisRepository{client: client, prefix: prefix}
}

func (r *RedisRepository) hashKey(id uuid.UUID) string {
	return r.prefix + id.String()
}

func (r *RedisRepository) Create(ctx context.Context, link Link) (Link, error) {
	const op = "filelink.repo.Create"

	values := []any{
		fieldKey, link.Key,
		fieldExpires, strconv.FormatInt(link.Expires, 10),
	}
	if link.Protected() {
		values = append(values, fieldPasswordHash, link.PasswordHash)
	}

	key := r.hashKey(link.RandomURI)
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, values...)
	// Beyond MaxExpires the eviction time may not be representable. The
	// record is then kept and the expiry filter in FindActive still applies.
	if link.Expires <= MaxExpires {
		pipe.ExpireAt(ctx, key, time.Unix(link.Expires+1, 0))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return Link{}, errx.E(op, errx.Unavailable, err)
	}

	if !link.Protected() {
		link.PasswordHash = nil
	}
	return link, nil
}

func (r *RedisRepository) FindActive(ctx context.Context, id uuid.UUID, now time.Time) (Link, error) {
	const op = "filelink.repo.FindActive"

	fields, err := r.client.HGetAll(ctx, r.hashKey(id)).Result()
	if err != nil {
		return Link{}, errx.E(op, errx.Unavailable, err)
	}
	if len(fields) == 0 {
		return Link{}, errx.Errorf(op, errx.NotFound, "link not found")
	}

	link, err := linkFromHash(id, fields)
	if err != nil {
		return Link{}, errx.E(op, errx.Internal, err)
	}
	if !link.ActiveAt(now) {
		return Link{}, errx.Errorf(op, errx.NotFound, "link expired")
	}
	return link, nil
}

func linkFromHash(id uuid.UUID, fields map[string]string) (Link, error) {
	key := fields[fieldKey]
	if key == "" {
		return Link{}, errors.New("stored link has an empty object key")
	}

	expires, err := strconv.ParseInt(fields[fieldExpires], 10, 64)
	if err != nil {
		return Link{}, fmt.Errorf("stored link has a bad expiry: %w", err)
	}

	var hash []byte
	if h := fields[fieldPasswordHash]; h != "" {
		hash = []byte(h)
	}

	return Link{
		RandomURI:    id,
		Key:          key,
		Expires:      expires,
		PasswordHash: hash,
	}, nil
}
