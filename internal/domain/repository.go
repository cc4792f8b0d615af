package domain

import (
	"context"
	"time"
)

// ChangeRepository is the append-only change log store.
type ChangeRepository interface {
	// ListSincePosition returns changes of a changeset with position strictly
	// greater than sincePosition, ordered by position ascending.
	ListSincePosition(ctx context.Context, changesetID string, sincePosition int64) ([]*Change, error)

	// ListAll returns the full log of a changeset ordered by position.
	ListAll(ctx context.Context, changesetID string) ([]*Change, error)

	// Append inserts a change at the given position. The store enforces
	// position uniqueness per changeset; a concurrent append to the same
	// position fails instead of silently reordering.
	Append(ctx context.Context, change *Change) (*Change, error)

	// Count returns the number of changes recorded for a changeset, which is
	// the changeset's version.
	Count(ctx context.Context, changesetID string) (int64, error)

	// DeleteByChangeset removes every change of a changeset.
	DeleteByChangeset(ctx context.Context, changesetID string) error

	// IsDuplicatePosition reports whether err is the unique-index violation
	// raised by a position collision.
	IsDuplicatePosition(err error) bool
}

// SessionRepository stores opaque session tokens.
type SessionRepository interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) (*Session, error)

	// GetByToken returns the session for a token, or nil when unknown.
	GetByToken(ctx context.Context, token string) (*Session, error)

	// DeleteByToken removes the session for a token.
	DeleteByToken(ctx context.Context, token string) error

	// DeleteExpired removes sessions expired before the given time and
	// returns how many were removed.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)

	// CountByUID returns the number of live sessions of a user.
	CountByUID(ctx context.Context, uid int64) (int64, error)
}

// UserRepository stores accounts.
type UserRepository interface {
	// GetByUID returns a user by id, or nil when unknown.
	GetByUID(ctx context.Context, uid int64) (*User, error)

	// GetByLoginKey returns a user by login key, or nil when unknown.
	GetByLoginKey(ctx context.Context, loginKey string) (*User, error)

	// GetByName returns a user by name, or nil when unknown.
	GetByName(ctx context.Context, name string) (*User, error)

	// Create stores a new user.
	Create(ctx context.Context, user *User) (*User, error)
}

// DocumentRepository stores document metadata.
type DocumentRepository interface {
	// GetByChangesetID returns a document by its sync key, or nil when
	// unknown.
	GetByChangesetID(ctx context.Context, changesetID string) (*Document, error)

	// Create stores a new document.
	Create(ctx context.Context, document *Document) (*Document, error)

	// UpdateTitle renames a document.
	UpdateTitle(ctx context.Context, changesetID string, title string) error

	// Touch bumps a document's updated time after a successful append.
	Touch(ctx context.Context, changesetID string) error

	// List returns the documents of a user, most recently updated first.
	List(ctx context.Context, uid int64) ([]*Document, error)

	// DeleteByChangesetID removes a document record.
	DeleteByChangesetID(ctx context.Context, changesetID string) error
}
