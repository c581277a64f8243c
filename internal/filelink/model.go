package filelink

import (
	"time"

	"github.com/google/uuid"
)

// Link maps a random short id to an uploaded object. It is written once and
// never updated.
type Link struct {
	RandomURI uuid.UUID
	Key       string
	// Expires is an absolute Unix time in seconds.
	Expires int64
	// PasswordHash is a bcrypt hash, nil for open links.
	PasswordHash []byte
}

// Protected reports whether redeeming the link needs a password.
func (l Link) Protected() bool {
	return len(l.PasswordHash) > 0
}

// ActiveAt reports whether the link can still be redeemed at now. The second
// equal to Expires is still active.
func (l Link) ActiveAt(now time.Time) bool {
	return l.Expires >= now.Unix()
}
