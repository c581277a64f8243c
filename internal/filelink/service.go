package filelink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/sundayezeilo/filedrop/internal/errx"
	"github.com/sundayezeilo/filedrop/internal/idgen"
	"github.com/sundayezeilo/filedrop/internal/objectstore"
	"github.com/sundayezeilo/filedrop/tokengen"
)

const (
	// MaxKeyBytes is the longest object key S3 accepts.
	MaxKeyBytes = 1024

	// MaxExpires is the latest accepted expiry, 9999-12-31T23:59:59Z. Every
	// store must be able to represent expires+1 as a point in time.
	MaxExpires int64 = 253402300799

	// cleanupTimeout bounds the compensating delete. It runs detached from
	// the request context so a disconnecting client cannot cancel it.
	cleanupTimeout = 10 * time.Second
)

// ObjectStore issues presigned URLs for uploaded objects and removes
// objects whose link could not be recorded.
type ObjectStore interface {
	PresignUpload(ctx context.Context, key string) (objectstore.SignedURL, error)
	PresignDownload(ctx context.Context, key string) (objectstore.SignedURL, error)
	Delete(ctx context.Context, key string) error
}

// UploadTicket is what a client needs to PUT a file before linking it.
type UploadTicket struct {
	UploadURL string
	Key       string
	ExpiresAt time.Time
}

// CreateLinkRequest represents the parameters for creating a new link.
type CreateLinkRequest struct {
	Key string
	// Expires is an absolute Unix time in seconds.
	Expires int64
	// Password is optional; nil and "" both create an open link.
	Password *string
}

// Outcome says how a resolved link should be answered.
type Outcome uint8

const (
	// OutcomeRedirect means Download holds a usable URL.
	OutcomeRedirect Outcome = iota + 1
	// OutcomePasswordRequired means the visitor has to submit the password.
	OutcomePasswordRequired
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRedirect:
		return "redirect"
	case OutcomePasswordRequired:
		return "password_required"
	default:
		return fmt.Sprintf("Outcome(%d)", o)
	}
}

// Resolution is the result of looking up an active link.
type Resolution struct {
	Outcome  Outcome
	ID       uuid.UUID
	Download objectstore.SignedURL
}

// CleanupOutcome records what happened to the uploaded object after a link
// could not be written.
type CleanupOutcome uint8

const (
	CleanupSucceeded CleanupOutcome = iota + 1
	CleanupFailed
)

func (c CleanupOutcome) String() string {
	switch c {
	case CleanupSucceeded:
		return "deleted"
	case CleanupFailed:
		return "orphaned"
	default:
		return fmt.Sprintf("CleanupOutcome(%d)", c)
	}
}

// CreateError is returned by Create when the link record could not be
// written. The uploaded object has been deleted unless Cleanup is
// CleanupFailed.
type CreateError struct {
	Key        string
	Cleanup    CleanupOutcome
	Err        error
	CleanupErr error
}

func (e *CreateError) Error() string {
	if e.Cleanup == CleanupFailed {
		return fmt.Sprintf("create link for %q: %v (object delete failed: %v)", e.Key, e.Err, e.CleanupErr)
	}
	return fmt.Sprintf("create link for %q: %v (object deleted)", e.Key, e.Err)
}

func (e *CreateError) Unwrap() error { return e.Err }

// ObjectDeleted reports whether the compensating delete went through.
func (e *CreateError) ObjectDeleted() bool {
	return e.Cleanup == CleanupSucceeded
}

// Service defines the link lifecycle: upload, link, resolve and unlock.
type Service interface {
	IssueUpload(ctx context.Context, filename string) (UploadTicket, error)
	Create(ctx context.Context, req CreateLinkRequest) (Link, error)
	Resolve(ctx context.Context, rawID string) (Resolution, error)
	Unlock(ctx context.Context, rawID string, password *string) (Resolution, error)
}

type service struct {
	repo       Repository
	store      ObjectStore
	ids        idgen.Generator
	tokens     tokengen.Generator
	tokenBytes int
	hasher     Hasher
	now        func() time.Time
	logger     *slog.Logger
}

// ServiceConfig holds optional collaborators. Zero values get defaults.
type ServiceConfig struct {
	IDGenerator    idgen.Generator
	TokenGenerator tokengen.Generator
	TokenBytes     int
	Hasher         Hasher
	Now            func() time.Time
	Logger         *slog.Logger
}

// NewService creates a new service instance.
func NewService(repo Repository, store ObjectStore, cfg *ServiceConfig) (Service, error) {
	if repo == nil {
		return nil, errors.New("filelink: repository is required")
	}
	if store == nil {
		return nil, errors.New("filelink: object store is required")
	}
	if cfg == nil {
		cfg = &ServiceConfig{}
	}

	s := &service{
		repo:       repo,
		store:      store,
		ids:        cfg.IDGenerator,
		tokens:     cfg.TokenGenerator,
		tokenBytes: cfg.TokenBytes,
		hasher:     cfg.Hasher,
		now:        cfg.Now,
		logger:     cfg.Logger,
	}

	if s.ids == nil {
		s.ids = idgen.NewV4()
	}
	if s.tokens == nil {
		s.tokens = tokengen.NewURLSafe()
	}
	if s.tokenBytes <= 0 {
		s.tokenBytes = tokengen.DefaultBytes
	}
	if s.hasher == nil {
		h, err := NewBcryptHasher(DefaultBcryptCost)
		if err != nil {
			return nil, err
		}
		s.hasher = h
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s, nil
}

// IssueUpload prefixes filename with a fresh random token and presigns a PUT
// for the resulting key. Nothing is reserved: the key only exists once the
// client uploads to it.
func (s *service) IssueUpload(ctx context.Context, filename string) (UploadTicket, error) {
	const op = "filelink.service.IssueUpload"

	if err := s.validateFilename(filename); err != nil {
		return UploadTicket{}, errx.E(op, errx.Invalid, err)
	}

	token, err := s.tokens.Generate(s.tokenBytes)
	if err != nil {
		return UploadTicket{}, errx.E(op, errx.Internal, err)
	}
	key := token + filename

	signed, err := s.store.PresignUpload(ctx, key)
	if err != nil {
		return UploadTicket{}, errx.Wrap(op, err)
	}

	return UploadTicket{
		UploadURL: signed.URL,
		Key:       key,
		ExpiresAt: signed.ExpiresAt,
	}, nil
}

// Create records a link to an uploaded object. When the record cannot be
// written the object is deleted and a *CreateError describes the cleanup.
func (s *service) Create(ctx context.Context, req CreateLinkRequest) (Link, error) {
	const op = "filelink.service.Create"

	if err := validateKey(req.Key); err != nil {
		return Link{}, errx.E(op, errx.Invalid, err)
	}
	if req.Expires <= s.now().Unix() {
		return Link{}, errx.Errorf(op, errx.Invalid, "ttl must be a future unix timestamp")
	}
	if req.Expires > MaxExpires {
		return Link{}, errx.Errorf(op, errx.Invalid, "ttl must not be after %d", MaxExpires)
	}

	var hash []byte
	if req.Password != nil && *req.Password != "" {
		if len(*req.Password) > MaxPasswordBytes {
			return Link{}, errx.E(op, errx.Invalid,
				fmt.Errorf("password must be at most %d bytes", MaxPasswordBytes))
		}
		h, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return Link{}, errx.E(op, errx.Internal, err)
		}
		hash = h
	}

	id, err := s.ids.Generate()
	if err != nil {
		return Link{}, errx.E(op, errx.Internal, err)
	}

	created, err := s.repo.Create(ctx, Link{
		RandomURI:    id,
		Key:          req.Key,
		Expires:      req.Expires,
		PasswordHash: hash,
	})
	if err != nil {
		return Link{}, errx.Wrap(op, s.compensate(ctx, req.Key, err))
	}
	return created, nil
}

// compensate deletes the object behind a link that failed to be written.
func (s *service) compensate(ctx context.Context, key string, cause error) *CreateError {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	ce := &CreateError{Key: key, Err: cause, Cleanup: CleanupSucceeded}
	if err := s.store.Delete(cleanupCtx, key); err != nil {
		ce.Cleanup = CleanupFailed
		ce.CleanupErr = err
		s.logger.ErrorContext(ctx, "orphaned object",
			"key", key,
			"error", err.Error(),
			"cause", cause.Error(),
		)
	}
	return ce
}

// Resolve looks up an active link for a GET. Protected links are not
// presigned until the password is supplied.
func (s *service) Resolve(ctx context.Context, rawID string) (Resolution, error) {
	const op = "filelink.service.Resolve"

	link, err := s.findActive(ctx, rawID)
	if err != nil {
		return Resolution{}, errx.Wrap(op, err)
	}

	if link.Protected() {
		return Resolution{Outcome: OutcomePasswordRequired, ID: link.RandomURI}, nil
	}

	res, err := s.redirect(ctx, link)
	if err != nil {
		return Resolution{}, errx.Wrap(op, err)
	}
	return res, nil
}

// Unlock redeems a link with a submitted password. A missing password is
// rejected before the store is touched. Open links redirect regardless of
// the password.
func (s *service) Unlock(ctx context.Context, rawID string, password *string) (Resolution, error) {
	const op = "filelink.service.Unlock"

	if password == nil {
		return Resolution{}, errx.Errorf(op, errx.Invalid, "password is required")
	}

	link, err := s.findActive(ctx, rawID)
	if err != nil {
		return Resolution{}, errx.Wrap(op, err)
	}

	if link.Protected() && !s.hasher.Verify(link.PasswordHash, *password) {
		return Resolution{}, errx.Errorf(op, errx.Unauthorized, "password mismatch")
	}

	res, err := s.redirect(ctx, link)
	if err != nil {
		return Resolution{}, errx.Wrap(op, err)
	}
	return res, nil
}

func (s *service) findActive(ctx context.Context, rawID string) (Link, error) {
	id, ok := idgen.Parse(rawID)
	if !ok {
		return Link{}, errx.Errorf("filelink.service.findActive", errx.NotFound, "malformed link id")
	}
	return s.repo.FindActive(ctx, id, s.now())
}

func (s *service) redirect(ctx context.Context, link Link) (Resolution, error) {
	signed, err := s.store.PresignDownload(ctx, link.Key)
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{Outcome: OutcomeRedirect, ID: link.RandomURI, Download: signed}, nil
}

func (s *service) validateFilename(filename string) error {
	if filename == "" {
		return errors.New("filename cannot be empty")
	}
	if !utf8.ValidString(filename) {
		return errors.New("filename must be valid UTF-8")
	}
	if limit := MaxKeyBytes - tokengen.EncodedLen(s.tokenBytes); len(filename) > limit {
		return fmt.Errorf("filename too long (max %d bytes)", limit)
	}
	return nil
}

func validateKey(key string) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	if !utf8.ValidString(key) {
		return errors.New("key must be valid UTF-8")
	}
	if len(key) > MaxKeyBytes {
		return fmt.Errorf("key too long (max %d bytes)", MaxKeyBytes)
	}
	return nil
}
