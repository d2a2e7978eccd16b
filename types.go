package gatekeeper

import (
	"context"
	"time"
)

// Identity is the authenticated principal. The refresh fingerprint field
// holds the SHA-256 hex of the currently valid rotation fingerprint, or ""
// when no refresh chain is live.
type Identity struct {
	ID                 string    `json:"id"`
	Email              string    `json:"email"`
	Username           string    `json:"username,omitempty"`
	PasswordHash       string    `json:"password_hash,omitempty"`
	Role               Role      `json:"role"`
	Confirmed          bool      `json:"confirmed"`
	AvatarURL          string    `json:"avatar_url,omitempty"`
	RefreshFingerprint string    `json:"refresh_fingerprint,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// UserProvider is the identity backend the engine authenticates against.
//
// Implementations return ErrUserNotFound for absent accounts and
// ErrFingerprintMismatch when a rotation compare-and-swap loses. Any other
// error is treated as a store failure.
type UserProvider interface {
	GetUserByEmail(ctx context.Context, email string) (Identity, error)

	// SetRefreshFingerprint unconditionally installs a fingerprint hash,
	// starting a new refresh chain.
	SetRefreshFingerprint(ctx context.Context, email, fingerprintHash string) error

	// RotateRefreshFingerprint atomically replaces expectedHash with
	// nextHash. Exactly one of N concurrent rotations with the same
	// expectedHash may succeed; the rest get ErrFingerprintMismatch.
	RotateRefreshFingerprint(ctx context.Context, email, expectedHash, nextHash string) error

	// ClearRefreshFingerprint kills the refresh chain.
	ClearRefreshFingerprint(ctx context.Context, email string) error

	// MarkConfirmed flags the account's email as confirmed. Idempotent.
	MarkConfirmed(ctx context.Context, email string) error
}

// Contact is an owner-scoped address book entry.
type Contact struct {
	ID        int64     `json:"id"`
	OwnerID   string    `json:"owner_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Birthday  time.Time `json:"birthday"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListQuery selects a contact page.
type ListQuery struct {
	Limit  int
	Offset int
}

// SearchQuery filters contacts by partial field matches. Empty fields
// match everything.
type SearchQuery struct {
	FirstName string
	LastName  string
	Email     string
	Limit     int
	Offset    int
}

// ContactStore is the primary store for contacts. All lookups are scoped
// to an owner; a contact belonging to someone else reads as absent.
type ContactStore interface {
	CreateContact(ctx context.Context, c Contact) (Contact, error)
	GetContact(ctx context.Context, ownerID string, contactID int64) (Contact, error)
	UpdateContact(ctx context.Context, c Contact) (Contact, error)
	DeleteContact(ctx context.Context, ownerID string, contactID int64) error
	ListContacts(ctx context.Context, ownerID string, q ListQuery) ([]Contact, error)
	SearchContacts(ctx context.Context, ownerID string, q SearchQuery) ([]Contact, error)

	// UpcomingBirthdays returns contacts whose birthday falls within days
	// of from, crossing year boundaries as needed.
	UpcomingBirthdays(ctx context.Context, ownerID string, from time.Time, days int) ([]Contact, error)
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
